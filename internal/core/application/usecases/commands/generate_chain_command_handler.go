package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"freightdispatch/internal/core/domain/model/chain"
	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/core/domain/model/order"
	"freightdispatch/internal/core/domain/model/routeprofile"
	"freightdispatch/internal/core/domain/services"
	"freightdispatch/internal/core/ports"
	"freightdispatch/internal/pkg/clock"
	"freightdispatch/internal/pkg/errs"

	"golang.org/x/sync/errgroup"
)

const reputationLookups = 4

type GenerateChainResult struct {
	ChainID        kernel.UUID
	Status         chain.Status
	RouteProfileID *kernel.UUID
	MatchScore     int
	Attempts       int
	Skipped        int
}

// GenerateChainCommandHandler builds the chain of an order: route matching,
// reputation lookup, ranking and persistence. An order that matches no lane
// gets a chain without attempts that is escalated at once.
//
// Generation for one order is serialized by the order lock, and a new chain
// is refused while the order's latest chain still blocks it.
type GenerateChainCommandHandler struct {
	uowFactory  UoWFactory
	locker      ports.Locker
	clock       clock.Clock
	orders      ports.OrderSource
	reputations ports.ReputationSource
	dispatcher  EventDispatcher
	matcher     services.RouteMatcher
	ranker      services.CandidateRanker
	timeout     time.Duration
	logger      *slog.Logger
}

func NewGenerateChainCommandHandler(
	uowFactory UoWFactory,
	locker ports.Locker,
	clk clock.Clock,
	orders ports.OrderSource,
	reputations ports.ReputationSource,
	dispatcher EventDispatcher,
	timeout time.Duration,
	logger *slog.Logger,
) GenerateChainCommandHandler {
	if timeout <= 0 {
		timeout = DefaultSideEffectTimeout
	}
	return GenerateChainCommandHandler{
		uowFactory:  uowFactory,
		locker:      locker,
		clock:       clk,
		orders:      orders,
		reputations: reputations,
		dispatcher:  dispatcher,
		matcher:     services.NewRouteMatcher(),
		ranker:      services.NewCandidateRanker(),
		timeout:     timeout,
		logger:      logger.With("component", "chain-generator"),
	}
}

func (h GenerateChainCommandHandler) Handle(ctx context.Context, command GenerateChainCommand) (GenerateChainResult, error) {
	if err := command.Validate(); err != nil {
		return GenerateChainResult{}, err
	}

	o, err := h.orders.GetOrder(ctx, command.OrderID())
	if err != nil {
		return GenerateChainResult{}, err
	}

	unlock, err := h.locker.Lock(ctx, OrderLockKey(o.ID()))
	if err != nil {
		return GenerateChainResult{}, fmt.Errorf("lock order %s: %w", o.ID(), err)
	}
	defer unlock()

	uow := h.uowFactory.Create()

	profile, score, err := h.selectProfile(ctx, uow.RouteProfileRepository(), o, command.RouteProfileID())
	if err != nil {
		return GenerateChainResult{}, err
	}

	var ranking services.Ranking
	if profile != nil {
		ranking, err = h.ranker.Rank(profile.Slots(), h.lookupReputations(ctx, profile.Slots()))
		if err != nil {
			return GenerateChainResult{}, err
		}
	}

	if err := uow.Begin(ctx); err != nil {
		return GenerateChainResult{}, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	chains := uow.ChainRepository()
	latest, err := chains.GetLatestByOrderID(ctx, o.ID())
	switch {
	case err == nil && latest.BlocksNewChain():
		return GenerateChainResult{}, fmt.Errorf("%w: chain %s is %s", ErrChainAlreadyActive, latest.ID(), latest.Status())
	case err != nil && !errors.Is(err, errs.ErrObjectNotFound):
		return GenerateChainResult{}, err
	}

	now := h.clock.Now()
	var profileID *kernel.UUID
	if profile != nil {
		id := profile.ID()
		profileID = &id
	}

	c, err := chain.NewChain(kernel.NewUUID(), o.ID(), o.OrganizationID(), o.Reference(), profileID,
		ranking.Eligible, ranking.Skipped, now)
	if err != nil {
		return GenerateChainResult{}, err
	}
	if profile == nil {
		if err := c.Escalate(chain.ReasonNoRouteProfile, now); err != nil {
			return GenerateChainResult{}, err
		}
	}

	if err := chains.Add(ctx, c); err != nil {
		return GenerateChainResult{}, err
	}
	if err := uow.Commit(ctx); err != nil {
		return GenerateChainResult{}, err
	}

	h.logger.InfoContext(ctx, "dispatch chain generated",
		"chain_id", c.ID().String(),
		"order_id", o.ID().String(),
		"status", c.Status().String(),
		"eligible", len(ranking.Eligible),
		"skipped", len(ranking.Skipped),
	)
	h.dispatcher.Dispatch(ctx, c.PullEvents())

	return GenerateChainResult{
		ChainID:        c.ID(),
		Status:         c.Status(),
		RouteProfileID: profileID,
		MatchScore:     score,
		Attempts:       len(ranking.Eligible),
		Skipped:        len(ranking.Skipped),
	}, nil
}

// selectProfile returns nil without error when no lane matches.
func (h GenerateChainCommandHandler) selectProfile(
	ctx context.Context,
	repo ports.RouteProfileRepository,
	o *order.Snapshot,
	requested *kernel.UUID,
) (*routeprofile.RouteProfile, int, error) {
	if requested != nil {
		p, err := repo.Get(ctx, *requested)
		if err != nil {
			return nil, 0, err
		}
		if !p.OrganizationID().IsEqual(o.OrganizationID()) {
			return nil, 0, errs.NewObjectNotFoundError("routeProfileId", requested.String())
		}
		if !p.IsActive() {
			return nil, 0, errs.NewValueIsInvalidErrorWithCause("routeProfileId",
				fmt.Errorf("route profile %s is inactive", p.ID()))
		}
		match, err := h.matcher.Match(o, []*routeprofile.RouteProfile{p})
		if err != nil {
			return nil, 0, err
		}
		score := 0
		if len(match) > 0 {
			score = match[0].Score
		}
		return p, score, nil
	}

	profiles, err := repo.ListActiveByOrganization(ctx, o.OrganizationID())
	if err != nil {
		return nil, 0, err
	}
	best, ok, err := h.matcher.Best(o, profiles)
	if err != nil || !ok {
		return nil, 0, err
	}
	return best.Profile, best.Score, nil
}

// lookupReputations fetches scores concurrently. A failed lookup is logged
// and the carrier keeps the default score.
func (h GenerateChainCommandHandler) lookupReputations(
	ctx context.Context,
	slots []routeprofile.CarrierSlot,
) map[string]float64 {
	var (
		mu     sync.Mutex
		scores = make(map[string]float64, len(slots))
		g      errgroup.Group
	)
	g.SetLimit(reputationLookups)

	for _, s := range slots {
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(ctx, h.timeout)
			defer cancel()

			score, known, err := h.reputations.GetReputationScore(ctx, s.CarrierID())
			if err != nil {
				h.logger.WarnContext(ctx, "reputation lookup failed, using default",
					"carrier_id", s.CarrierID(), "error", err)
				return nil
			}
			if known {
				mu.Lock()
				scores[s.CarrierID()] = score
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return scores
}
