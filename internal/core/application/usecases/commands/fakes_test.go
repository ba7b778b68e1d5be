package commands_test

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"freightdispatch/internal/core/application/usecases/commands"
	"freightdispatch/internal/core/domain/model/chain"
	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/core/domain/model/order"
	"freightdispatch/internal/core/domain/model/routeprofile"
	"freightdispatch/internal/core/ports"
	"freightdispatch/internal/pkg/errs"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// store is an in-memory database shared by all units of work of a test.
// Writes made inside a transaction become visible on commit.
type store struct {
	mu       sync.Mutex
	chains   map[kernel.UUID]chain.State
	order    []kernel.UUID
	profiles map[kernel.UUID]*routeprofile.RouteProfile
	jobRuns  map[string]time.Time
	now      func() time.Time
	commits  int
}

func newStore() *store {
	return &store{
		chains:   map[kernel.UUID]chain.State{},
		profiles: map[kernel.UUID]*routeprofile.RouteProfile{},
		jobRuns:  map[string]time.Time{},
		now:      func() time.Time { return epoch },
	}
}

func (s *store) chain(t *testing.T, id kernel.UUID) *chain.Chain {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.chains[id]
	require.True(t, ok, "chain %s not stored", id)
	c, err := chain.RestoreChain(st)
	require.NoError(t, err)
	return c
}

func (s *store) put(t *testing.T, c *chain.Chain) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chains[c.ID()]; !ok {
		s.order = append(s.order, c.ID())
	}
	s.chains[c.ID()] = c.State()
}

type pendingWrite struct {
	state   chain.State
	isNew   bool
	version int
}

type memUoW struct {
	s      *store
	inTx   bool
	writes []pendingWrite
	runs   map[string]time.Time
	lanes  []*routeprofile.RouteProfile
}

func (s *store) uow() *memUoW { return &memUoW{s: s} }

func (u *memUoW) Begin(context.Context) error {
	u.inTx = true
	u.writes = nil
	u.runs = map[string]time.Time{}
	u.lanes = nil
	return nil
}

func (u *memUoW) Commit(context.Context) error {
	if !u.inTx {
		return nil
	}
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	for _, w := range u.writes {
		current, exists := u.s.chains[w.state.ID]
		if w.isNew && exists {
			return errs.NewValueIsInvalidError("chain")
		}
		if !w.isNew && current.Version != w.version {
			return errs.NewVersionIsInvalidError("chain", nil)
		}
	}
	for _, w := range u.writes {
		if w.isNew {
			u.s.order = append(u.s.order, w.state.ID)
		}
		u.s.chains[w.state.ID] = w.state
	}
	for job, at := range u.runs {
		u.s.jobRuns[job] = at
	}
	for _, p := range u.lanes {
		u.s.profiles[p.ID()] = p
	}
	u.s.commits++
	u.inTx = false
	return nil
}

func (u *memUoW) Rollback(context.Context) error {
	u.inTx = false
	u.writes = nil
	return nil
}

func (u *memUoW) ChainRepository() ports.ChainRepository               { return memChains{u} }
func (u *memUoW) RouteProfileRepository() ports.RouteProfileRepository { return memProfiles{u} }
func (u *memUoW) JobRunRepository() ports.JobRunRepository             { return memJobRuns{u} }

type memChains struct{ u *memUoW }

func (r memChains) write(c *chain.Chain, isNew bool) {
	st := c.State()
	version := st.Version
	st.Version++
	if !r.u.inTx {
		r.u.s.mu.Lock()
		if isNew {
			r.u.s.order = append(r.u.s.order, st.ID)
		}
		r.u.s.chains[st.ID] = st
		r.u.s.mu.Unlock()
	} else {
		r.u.writes = append(r.u.writes, pendingWrite{state: st, isNew: isNew, version: version})
	}
	c.AdvanceVersion()
}

func (r memChains) Add(_ context.Context, c *chain.Chain) error {
	r.write(c, true)
	return nil
}

func (r memChains) Update(_ context.Context, c *chain.Chain) error {
	r.write(c, false)
	return nil
}

func (r memChains) Get(_ context.Context, id kernel.UUID) (*chain.Chain, error) {
	r.u.s.mu.Lock()
	st, ok := r.u.s.chains[id]
	r.u.s.mu.Unlock()
	if !ok {
		return nil, errs.NewObjectNotFoundError("chainId", id)
	}
	return chain.RestoreChain(st)
}

func (r memChains) GetLatestByOrderID(_ context.Context, orderID kernel.UUID) (*chain.Chain, error) {
	r.u.s.mu.Lock()
	defer r.u.s.mu.Unlock()
	for _, id := range slices.Backward(r.u.s.order) {
		if st := r.u.s.chains[id]; st.OrderID.IsEqual(orderID) {
			return chain.RestoreChain(st)
		}
	}
	return nil, errs.NewObjectNotFoundError("orderId", orderID)
}

func (r memChains) ListInProgressIDs(context.Context) ([]kernel.UUID, error) {
	return r.filterIDs(func(st chain.State) bool { return st.Status == chain.InProgress }, 0), nil
}

func (r memChains) ListEscalationDeliveriesDue(_ context.Context, now time.Time, limit int) ([]kernel.UUID, error) {
	return r.filterIDs(func(st chain.State) bool {
		e := st.Escalation
		return st.Status == chain.Escalated && e != nil && e.Status == chain.EscalationPending &&
			e.ExternalRequestID == "" && (e.NextDeliveryAt == nil || !e.NextDeliveryAt.After(now))
	}, limit), nil
}

func (r memChains) ListEscalatedBefore(_ context.Context, before time.Time) ([]*chain.Chain, error) {
	ids := r.filterIDs(func(st chain.State) bool {
		e := st.Escalation
		return st.Status == chain.Escalated && e != nil && e.CreatedAt.Before(before)
	}, 0)
	out := make([]*chain.Chain, 0, len(ids))
	for _, id := range ids {
		c, err := r.Get(context.Background(), id)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (r memChains) filterIDs(keep func(chain.State) bool, limit int) []kernel.UUID {
	r.u.s.mu.Lock()
	defer r.u.s.mu.Unlock()
	var ids []kernel.UUID
	for _, id := range r.u.s.order {
		if keep(r.u.s.chains[id]) {
			ids = append(ids, id)
			if limit > 0 && len(ids) == limit {
				break
			}
		}
	}
	return ids
}

type memProfiles struct{ u *memUoW }

func (r memProfiles) Save(_ context.Context, p *routeprofile.RouteProfile) error {
	if r.u.inTx {
		r.u.lanes = append(r.u.lanes, p)
		return nil
	}
	r.u.s.mu.Lock()
	r.u.s.profiles[p.ID()] = p
	r.u.s.mu.Unlock()
	return nil
}

func (r memProfiles) Get(_ context.Context, id kernel.UUID) (*routeprofile.RouteProfile, error) {
	r.u.s.mu.Lock()
	defer r.u.s.mu.Unlock()
	p, ok := r.u.s.profiles[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("routeProfileId", id)
	}
	return p, nil
}

func (r memProfiles) ListActiveByOrganization(_ context.Context, org kernel.UUID) ([]*routeprofile.RouteProfile, error) {
	r.u.s.mu.Lock()
	defer r.u.s.mu.Unlock()
	var out []*routeprofile.RouteProfile
	for _, p := range r.u.s.profiles {
		if p.IsActive() && p.OrganizationID().IsEqual(org) {
			out = append(out, p)
		}
	}
	return out, nil
}

type memJobRuns struct{ u *memUoW }

func (r memJobRuns) LastRun(_ context.Context, job string) (time.Time, bool, error) {
	r.u.s.mu.Lock()
	defer r.u.s.mu.Unlock()
	at, ok := r.u.s.jobRuns[job]
	return at, ok, nil
}

func (r memJobRuns) MarkRun(_ context.Context, job string, at time.Time) error {
	r.u.runs[job] = at
	return nil
}

type chainUoWFactory struct{ s *store }

func (f chainUoWFactory) Create() commands.ChainUoW { return f.s.uow() }

type uowFactory struct{ s *store }

func (f uowFactory) Create() commands.UoW { return f.s.uow() }

type reportUoWFactory struct{ s *store }

func (f reportUoWFactory) Create() commands.ReportUoW { return f.s.uow() }

type routeProfileUoWFactory struct{ s *store }

func (f routeProfileUoWFactory) Create() commands.RouteProfileUoW { return f.s.uow() }

// keyLocker is a process-local ports.Locker.
type keyLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func newKeyLocker() *keyLocker { return &keyLocker{locks: map[string]chan struct{}{}} }

func (l *keyLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	ch, ok := l.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[key] = ch
	}
	l.mu.Unlock()

	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	var once sync.Once
	return func() { once.Do(func() { <-ch }) }, nil
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []chain.DomainEvent
}

func (d *recordingDispatcher) Dispatch(_ context.Context, events []chain.DomainEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, events...)
}

func (d *recordingDispatcher) types() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.EventType())
	}
	return out
}

type MockOrderSource struct{ mock.Mock }

func (m *MockOrderSource) GetOrder(ctx context.Context, id kernel.UUID) (*order.Snapshot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Snapshot), args.Error(1)
}

type MockReputationSource struct{ mock.Mock }

func (m *MockReputationSource) GetReputationScore(ctx context.Context, carrierID string) (float64, bool, error) {
	args := m.Called(ctx, carrierID)
	return args.Get(0).(float64), args.Bool(1), args.Error(2)
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
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

type MockNotificationSender struct{ mock.Mock }

func (m *MockNotificationSender) SendOffer(ctx context.Context, n ports.OfferNotification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *MockNotificationSender) SendReminder(ctx context.Context, n ports.ReminderNotification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *MockNotificationSender) SendConfirmation(ctx context.Context, n ports.ConfirmationNotification) error {
	return m.Called(ctx, n).Error(0)
}

type MockEventPublisher struct{ mock.Mock }

func (m *MockEventPublisher) Publish(ctx context.Context, e chain.DomainEvent) error {
	return m.Called(ctx, e).Error(0)
}

type MockEscalationSubmitter struct{ mock.Mock }

func (m *MockEscalationSubmitter) Handle(
	ctx context.Context,
	cmd commands.SubmitEscalationCommand,
) (commands.SubmitEscalationResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(commands.SubmitEscalationResult), args.Error(1)
}

// countingMetrics records calls by name.
type countingMetrics struct {
	mu     sync.Mutex
	counts map[string]int
	stale  int
}

func newCountingMetrics() *countingMetrics { return &countingMetrics{counts: map[string]int{}} }

func (m *countingMetrics) inc(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[name]++
}

func (m *countingMetrics) count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[name]
}

func (m *countingMetrics) OfferSent()                   { m.inc("offer_sent") }
func (m *countingMetrics) ReminderSent()                { m.inc("reminder_sent") }
func (m *countingMetrics) AttemptClosed(outcome string) { m.inc("attempt_" + outcome) }
func (m *countingMetrics) ChainCompleted(via bool) {
	if via {
		m.inc("completed_via_escalation")
		return
	}
	m.inc("completed")
}
func (m *countingMetrics) ChainEscalated(string) { m.inc("escalated") }
func (m *countingMetrics) ChainCancelled()       { m.inc("cancelled") }
func (m *countingMetrics) EscalationDelivery(ok bool) {
	if ok {
		m.inc("delivery_ok")
		return
	}
	m.inc("delivery_failed")
}
func (m *countingMetrics) NotificationFailed(kind string) { m.inc("notification_failed_" + kind) }
func (m *countingMetrics) MonitorScan(time.Duration, int) { m.inc("scan") }
func (m *countingMetrics) StaleEscalations(n int)         { m.mu.Lock(); m.stale = n; m.mu.Unlock() }

func newOrder(t *testing.T, org kernel.UUID, pickupIn time.Duration) *order.Snapshot {
	t.Helper()
	origin, err := kernel.NewAddress("69003", "Lyon", "Auvergne-Rhone-Alpes", "FR")
	require.NoError(t, err)
	destination, err := kernel.NewAddress("75011", "Paris", "Ile-de-France", "FR")
	require.NoError(t, err)
	cargo, err := order.NewCargo("pallet", []string{"tail-lift"}, 800, "")
	require.NoError(t, err)
	pickup, err := order.NewTimeWindow(epoch.Add(pickupIn), epoch.Add(pickupIn+2*time.Hour))
	require.NoError(t, err)

	o, err := order.NewSnapshot(kernel.NewUUID(), org, "PO-1042", origin, destination, cargo, pickup, order.TimeWindow{})
	require.NoError(t, err)
	return o
}

func newLane(t *testing.T, org kernel.UUID, carriers ...string) *routeprofile.RouteProfile {
	t.Helper()
	slots := make([]routeprofile.CarrierSlot, 0, len(carriers))
	for i, id := range carriers {
		s, err := routeprofile.NewCarrierSlot(id, i+1, 0, 30*time.Minute, routeprofile.Contact{Email: id + "@example.com"})
		require.NoError(t, err)
		slots = append(slots, s)
	}
	p, err := routeprofile.NewRouteProfile(kernel.NewUUID(), org, "Lyon - Paris",
		routeprofile.NewPlaceRule([]string{"69"}, "", "", "FR"),
		routeprofile.NewPlaceRule(nil, "Paris", "", "FR"),
		[]string{"pallet"}, nil, slots)
	require.NoError(t, err)
	return p
}

// newStartedChain stores an in-progress chain offering to carriers in order.
func newStartedChain(t *testing.T, s *store, carriers ...string) *chain.Chain {
	t.Helper()
	candidates := make([]chain.Candidate, 0, len(carriers))
	for i, id := range carriers {
		candidates = append(candidates, chain.Candidate{
			CarrierID: id, Rank: i + 1, DeclaredPosition: i + 1,
			ResponseDeadline: 30 * time.Minute, ReputationScore: 70, CombinedScore: 70,
		})
	}
	c, err := chain.NewChain(kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(), "PO-7", nil, candidates, nil, epoch)
	require.NoError(t, err)
	require.NoError(t, c.Start(epoch))
	c.PullEvents()
	s.put(t, c)
	return c
}

// newEscalatedChain stores a chain escalated before it ever started.
func newEscalatedChain(t *testing.T, s *store, orderID kernel.UUID, at time.Time) *chain.Chain {
	t.Helper()
	c, err := chain.NewChain(kernel.NewUUID(), orderID, kernel.NewUUID(), "PO-9", nil, nil, nil, at)
	require.NoError(t, err)
	require.NoError(t, c.Escalate(chain.ReasonNoRouteProfile, at))
	c.PullEvents()
	s.put(t, c)
	return c
}
