package queries_test

import (
	"context"
	"testing"
	"time"

	"freightdispatch/internal/core/domain/model/chain"
	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/core/domain/model/order"
	"freightdispatch/internal/core/domain/model/routeprofile"
	"freightdispatch/internal/core/ports"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type MockOrderSource struct{ mock.Mock }

func (m *MockOrderSource) GetOrder(ctx context.Context, id kernel.UUID) (*order.Snapshot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Snapshot), args.Error(1)
}

type MockRouteProfileRepository struct{ mock.Mock }

func (m *MockRouteProfileRepository) Save(ctx context.Context, p *routeprofile.RouteProfile) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockRouteProfileRepository) Get(ctx context.Context, id kernel.UUID) (*routeprofile.RouteProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*routeprofile.RouteProfile), args.Error(1)
}

func (m *MockRouteProfileRepository) ListActiveByOrganization(ctx context.Context, orgID kernel.UUID) ([]*routeprofile.RouteProfile, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*routeprofile.RouteProfile), args.Error(1)
}

type MockChainReader struct{ mock.Mock }

func (m *MockChainReader) Get(ctx context.Context, id kernel.UUID) (*chain.Chain, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chain.Chain), args.Error(1)
}

type MockEscalationGateway struct{ mock.Mock }

func (m *MockEscalationGateway) Submit(ctx context.Context, r ports.EscalationRequest) (ports.EscalationReceipt, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(ports.EscalationReceipt), args.Error(1)
}

func (m *MockEscalationGateway) GetStatus(ctx context.Context, id string) (ports.EscalationStatusReport, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(ports.EscalationStatusReport), args.Error(1)
}

func (m *MockEscalationGateway) Cancel(ctx context.Context, id, reason string) error {
	return m.Called(ctx, id, reason).Error(0)
}

func newOrder(t *testing.T, org kernel.UUID) *order.Snapshot {
	t.Helper()
	origin, err := kernel.NewAddress("69003", "Lyon", "Auvergne-Rhone-Alpes", "FR")
	require.NoError(t, err)
	destination, err := kernel.NewAddress("75011", "Paris", "Ile-de-France", "FR")
	require.NoError(t, err)
	cargo, err := order.NewCargo("pallet", []string{"tail-lift"}, 800, "")
	require.NoError(t, err)
	pickup, err := order.NewTimeWindow(epoch.Add(12*time.Hour), epoch.Add(14*time.Hour))
	require.NoError(t, err)

	o, err := order.NewSnapshot(kernel.NewUUID(), org, "PO-1042", origin, destination, cargo, pickup, order.TimeWindow{})
	require.NoError(t, err)
	return o
}

func newLane(
	t *testing.T,
	org kernel.UUID,
	name string,
	origin, destination routeprofile.PlaceRule,
	carriers ...string,
) *routeprofile.RouteProfile {
	t.Helper()
	slots := make([]routeprofile.CarrierSlot, 0, len(carriers))
	for i, id := range carriers {
		s, err := routeprofile.NewCarrierSlot(id, i+1, 0, 30*time.Minute, routeprofile.Contact{Email: id + "@example.com"})
		require.NoError(t, err)
		slots = append(slots, s)
	}
	p, err := routeprofile.NewRouteProfile(kernel.NewUUID(), org, name, origin, destination, []string{"pallet"}, []string{"tail-lift"}, slots)
	require.NoError(t, err)
	return p
}
