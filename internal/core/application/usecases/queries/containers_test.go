package queries_test

import (
	"freightdispatch/internal/adapters/out/postgres"
	"freightdispatch/internal/adapters/out/postgres/pgtest"
)

// databaseSuite migrates the full schema into a fresh container.
type databaseSuite struct {
	pgtest.Suite
}

func (s *databaseSuite) SetupSuite() {
	s.Migrate = postgres.Migrate
	s.Suite.SetupSuite()
}

func (s *databaseSuite) truncate() {
	s.Truncate("dispatch_attempts", "chain_escalations", "dispatch_chains", "carrier_slots", "route_profiles")
}
