package commands

import (
	"context"
	"fmt"
	"log/slog"

	"freightdispatch/internal/core/domain/model/routeprofile"
)

// ImportRouteProfilesCommandHandler stores lane definitions loaded from a
// file. Profiles are upserted by id in one transaction: either the whole
// file is applied or nothing.
type ImportRouteProfilesCommandHandler struct {
	uowFactory RouteProfileUoWFactory
	logger     *slog.Logger
}

func NewImportRouteProfilesCommandHandler(uowFactory RouteProfileUoWFactory, logger *slog.Logger) ImportRouteProfilesCommandHandler {
	return ImportRouteProfilesCommandHandler{
		uowFactory: uowFactory,
		logger:     logger.With("component", "lane-import"),
	}
}

func (h ImportRouteProfilesCommandHandler) Handle(ctx context.Context, profiles []*routeprofile.RouteProfile) (int, error) {
	for i, p := range profiles {
		if err := p.Validate(); err != nil {
			return 0, fmt.Errorf("profile %d: %w", i, err)
		}
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.RouteProfileRepository()
	for _, p := range profiles {
		if err := repo.Save(ctx, p); err != nil {
			return 0, fmt.Errorf("save profile %s: %w", p.ID(), err)
		}
	}
	if err := uow.Commit(ctx); err != nil {
		return 0, err
	}

	h.logger.InfoContext(ctx, "route profiles imported", "count", len(profiles))
	return len(profiles), nil
}
