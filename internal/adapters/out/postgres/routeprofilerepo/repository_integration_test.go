package routeprofilerepo_test

import (
	"context"
	"testing"
	"time"

	"freightdispatch/internal/adapters/out/postgres/pgtest"
	"freightdispatch/internal/adapters/out/postgres/routeprofilerepo"
	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/core/domain/model/routeprofile"
	"freightdispatch/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type RouteProfileRepositoryIntegrationTestSuite struct {
	pgtest.Suite

	repository *routeprofilerepo.GormRouteProfileRepository
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(&routeprofilerepo.RouteProfileDTO{}, &routeprofilerepo.CarrierSlotDTO{})
}

func (suite *RouteProfileRepositoryIntegrationTestSuite) SetupTest() {
	suite.Truncate("carrier_slots", "route_profiles")
	suite.repository = routeprofilerepo.NewGormRouteProfileRepository(suite.DB)
}

func (suite *RouteProfileRepositoryIntegrationTestSuite) lane(orgID kernel.UUID, name string, carriers ...string) *routeprofile.RouteProfile {
	slots := make([]routeprofile.CarrierSlot, 0, len(carriers))
	for i, id := range carriers {
		s, err := routeprofile.NewCarrierSlot(id, i+1, 50, 30*time.Minute, routeprofile.Contact{Name: id, Email: id + "@example.com"})
		suite.Require().NoError(err)
		slots = append(slots, s)
	}
	p, err := routeprofile.NewRouteProfile(
		kernel.NewUUID(), orgID, name,
		routeprofile.NewPlaceRule([]string{"69"}, "", "", "FR"),
		routeprofile.NewPlaceRule(nil, "Paris", "", "FR"),
		[]string{"pallet"}, []string{"tail-lift"}, slots,
	)
	suite.Require().NoError(err)
	return p
}

func (suite *RouteProfileRepositoryIntegrationTestSuite) TestSaveAndGet() {
	ctx := context.Background()
	p := suite.lane(kernel.NewUUID(), "Lyon - Paris", "c1", "c2")
	suite.Require().NoError(suite.repository.Save(ctx, p))

	stored, err := suite.repository.Get(ctx, p.ID())
	suite.Require().NoError(err)

	suite.True(p.IsEqual(stored))
	suite.Equal("Lyon - Paris", stored.Name())
	suite.Equal([]string{"69"}, stored.Origin().PostalPrefixes())
	suite.Equal("Paris", stored.Destination().City())
	suite.Equal([]string{"pallet"}, stored.CargoTypes())
	suite.Equal([]string{"tail-lift"}, stored.RequiredConstraints())
	suite.Require().Len(stored.Slots(), 2)
	suite.Equal("c1", stored.Slots()[0].CarrierID())
	suite.Equal(30*time.Minute, stored.Slots()[0].ResponseDeadline())
	suite.Equal("c1@example.com", stored.Slots()[0].Contact().Email)
	suite.True(stored.IsActive())
}

func (suite *RouteProfileRepositoryIntegrationTestSuite) TestSave_ReplacesSlots() {
	ctx := context.Background()
	orgID := kernel.NewUUID()
	p := suite.lane(orgID, "Lyon - Paris", "c1", "c2")
	suite.Require().NoError(suite.repository.Save(ctx, p))

	replaced, err := routeprofile.RestoreRouteProfile(
		p.ID(), orgID, "Lyon - Paris (night)", p.Origin(), p.Destination(),
		p.CargoTypes(), nil, p.Slots()[1:], false,
	)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.repository.Save(ctx, replaced))

	stored, err := suite.repository.Get(ctx, p.ID())
	suite.Require().NoError(err)
	suite.Equal("Lyon - Paris (night)", stored.Name())
	suite.False(stored.IsActive())
	suite.Require().Len(stored.Slots(), 1)
	suite.Equal("c2", stored.Slots()[0].CarrierID())
}

func (suite *RouteProfileRepositoryIntegrationTestSuite) TestGet_NotFound() {
	_, err := suite.repository.Get(context.Background(), kernel.NewUUID())
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *RouteProfileRepositoryIntegrationTestSuite) TestListActiveByOrganization() {
	ctx := context.Background()
	orgID := kernel.NewUUID()

	b := suite.lane(orgID, "B lane", "c1")
	a := suite.lane(orgID, "A lane", "c2")
	inactive := suite.lane(orgID, "C lane", "c3")
	inactive.Deactivate()
	foreign := suite.lane(kernel.NewUUID(), "A foreign lane", "c4")

	for _, p := range []*routeprofile.RouteProfile{b, a, inactive, foreign} {
		suite.Require().NoError(suite.repository.Save(ctx, p))
	}

	got, err := suite.repository.ListActiveByOrganization(ctx, orgID)
	suite.Require().NoError(err)
	suite.Require().Len(got, 2)
	suite.Equal("A lane", got[0].Name())
	suite.Equal("B lane", got[1].Name())
	suite.Len(got[0].Slots(), 1)
}

func TestRouteProfileRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, &RouteProfileRepositoryIntegrationTestSuite{Suite: pgtest.Suite{Migrate: migrate}})
}
