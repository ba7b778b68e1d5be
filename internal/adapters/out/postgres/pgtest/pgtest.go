// Package pgtest runs integration suites against a disposable PostgreSQL
// container.
//
//	type RepositorySuite struct{ pgtest.Suite }
//
//	func TestRepository(t *testing.T) {
//		suite.Run(t, &RepositorySuite{Suite: pgtest.Suite{Migrate: postgres.Migrate}})
//	}
package pgtest

import (
	"context"
	"strings"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const image = "postgres:15-alpine"

// Suite starts one container per suite. Migrate, when set, prepares the
// schema before the first test.
type Suite struct {
	suite.Suite

	DB      *gorm.DB
	Migrate func(db *gorm.DB) error

	container *postgres.PostgresContainer
}

func (s *Suite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx, image,
		postgres.WithDatabase("dispatch"),
		postgres.WithUsername("dispatch"),
		postgres.WithPassword("dispatch"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.DB, err = gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	s.Require().NoError(err)

	if s.Migrate != nil {
		s.Require().NoError(s.Migrate(s.DB))
	}
}

func (s *Suite) TearDownSuite() {
	if s.container != nil {
		s.Require().NoError(s.container.Terminate(context.Background()))
	}
}

// Truncate empties the given tables and everything referencing them.
func (s *Suite) Truncate(tables ...string) {
	s.Require().NoError(s.DB.Exec("TRUNCATE TABLE " + strings.Join(tables, ", ") + " CASCADE").Error)
}
