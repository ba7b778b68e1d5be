package http

import (
	"context"
	"net/http"
	"time"

	"freightdispatch/internal/core/application/usecases/commands"
	"freightdispatch/internal/core/application/usecases/queries"
	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/generated/servers"
	"freightdispatch/internal/pkg/clock"
	"freightdispatch/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"
)

// Handlers the server delegates to. The use case handlers satisfy them.
type (
	ChainGenerator interface {
		Handle(ctx context.Context, command commands.GenerateChainCommand) (commands.GenerateChainResult, error)
	}
	DispatchStarter interface {
		Handle(ctx context.Context, command commands.StartDispatchCommand) (commands.DispatchProgress, error)
	}
	Responder interface {
		Handle(ctx context.Context, command commands.RespondCommand) (commands.DispatchProgress, error)
	}
	ChainCanceller interface {
		Handle(ctx context.Context, command commands.CancelChainCommand) (commands.DispatchProgress, error)
	}
	EscalationRetrier interface {
		Handle(ctx context.Context, command commands.SubmitEscalationCommand) (commands.SubmitEscalationResult, error)
	}
	EscalationCallbackHandler interface {
		Handle(ctx context.Context, command commands.EscalationCallbackCommand) (commands.EscalationCallbackResult, error)
	}
	RouteDetector interface {
		Handle(ctx context.Context, query queries.DetectRouteQuery) ([]queries.RouteMatchResponse, error)
	}
	DispatchStatusReader interface {
		Handle(ctx context.Context, query queries.GetDispatchStatusQuery) (queries.DispatchStatusResponse, error)
	}
	EscalationStatusReader interface {
		Handle(ctx context.Context, query queries.GetEscalationStatusQuery) (queries.EscalationStatusResponse, error)
	}
	RouteProfileLister interface {
		Handle(ctx context.Context, query queries.ListRouteProfilesQuery) ([]queries.RouteProfileResponse, error)
	}
)

// Handlers groups the use cases exposed over HTTP.
type Handlers struct {
	GenerateChain      ChainGenerator
	StartDispatch      DispatchStarter
	Respond            Responder
	CancelChain        ChainCanceller
	RetryEscalation    EscalationRetrier
	EscalationCallback EscalationCallbackHandler
	DetectRoute        RouteDetector
	DispatchStatus     DispatchStatusReader
	EscalationStatus   EscalationStatusReader
	ListRouteProfiles  RouteProfileLister
}

// Server implements servers.ServerInterface on top of the dispatch use cases.
type Server struct {
	handlers Handlers
	clock    clock.Clock
}

var _ servers.ServerInterface = (*Server)(nil)

func NewServer(handlers Handlers, clk clock.Clock) *Server {
	return &Server{handlers: handlers, clock: clk}
}

// DetectRoute handles GET /api/v1/orders/{orderId}/route-matches.
func (s *Server) DetectRoute(ctx echo.Context, orderId servers.OrderId) error {
	id, err := toKernelUUID("orderId", orderId)
	if err != nil {
		return writeError(ctx, err)
	}
	query, err := queries.NewDetectRouteQuery(id)
	if err != nil {
		return writeError(ctx, err)
	}

	matches, err := s.handlers.DetectRoute.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeError(ctx, err)
	}

	response := make([]servers.RouteMatch, len(matches))
	for i, m := range matches {
		response[i] = servers.RouteMatch{
			RouteProfileId:   m.RouteProfileID.Bytes(),
			Name:             m.Name,
			Score:            m.Score,
			OriginScore:      m.OriginScore,
			DestinationScore: m.DestinationScore,
			CargoScore:       m.CargoScore,
			ConstraintScore:  m.ConstraintScore,
			Carriers:         m.Carriers,
		}
	}
	return ctx.JSON(http.StatusOK, response)
}

// GenerateChain handles POST /api/v1/orders/{orderId}/dispatch-chains.
func (s *Server) GenerateChain(ctx echo.Context, orderId servers.OrderId) error {
	id, err := toKernelUUID("orderId", orderId)
	if err != nil {
		return writeError(ctx, err)
	}

	var body servers.GenerateChainJSONRequestBody
	if ctx.Request().ContentLength != 0 {
		if err := ctx.Bind(&body); err != nil {
			return badRequest(ctx, "Invalid request body")
		}
	}

	var routeProfileID *kernel.UUID
	if body.RouteProfileId != nil {
		rp, err := toKernelUUID("routeProfileId", *body.RouteProfileId)
		if err != nil {
			return writeError(ctx, err)
		}
		routeProfileID = &rp
	}

	cmd, err := commands.NewGenerateChainCommand(id, routeProfileID)
	if err != nil {
		return writeError(ctx, err)
	}
	result, err := s.handlers.GenerateChain.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return writeError(ctx, err)
	}

	response := servers.GeneratedChain{
		ChainId:    result.ChainID.Bytes(),
		Status:     result.Status.String(),
		MatchScore: result.MatchScore,
		Attempts:   result.Attempts,
		Skipped:    result.Skipped,
	}
	if result.RouteProfileID != nil {
		rp := openapi_types.UUID(result.RouteProfileID.Bytes())
		response.RouteProfileId = &rp
	}
	return ctx.JSON(http.StatusCreated, response)
}

// GetDispatchStatus handles GET /api/v1/orders/{orderId}/dispatch.
func (s *Server) GetDispatchStatus(ctx echo.Context, orderId servers.OrderId) error {
	id, err := toKernelUUID("orderId", orderId)
	if err != nil {
		return writeError(ctx, err)
	}
	query, err := queries.NewGetDispatchStatusQuery(id)
	if err != nil {
		return writeError(ctx, err)
	}

	status, err := s.handlers.DispatchStatus.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, dispatchStatusResponse(status, s.clock.Now()))
}

// StartDispatch handles POST /api/v1/dispatch-chains/{chainId}/start.
func (s *Server) StartDispatch(ctx echo.Context, chainId servers.ChainId) error {
	id, err := toKernelUUID("chainId", chainId)
	if err != nil {
		return writeError(ctx, err)
	}
	cmd, err := commands.NewStartDispatchCommand(id)
	if err != nil {
		return writeError(ctx, err)
	}

	progress, err := s.handlers.StartDispatch.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return writeError(ctx, err, progress.Status.String())
	}
	return ctx.JSON(http.StatusOK, progressResponse(progress))
}

// Respond handles POST /api/v1/dispatch-chains/{chainId}/responses.
func (s *Server) Respond(ctx echo.Context, chainId servers.ChainId) error {
	id, err := toKernelUUID("chainId", chainId)
	if err != nil {
		return writeError(ctx, err)
	}

	var body servers.RespondJSONRequestBody
	if err := ctx.Bind(&body); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	var cmd commands.RespondCommand
	if body.Accepted {
		var price *decimal.Decimal
		if body.Price != nil {
			p, err := decimal.NewFromString(*body.Price)
			if err != nil {
				return writeError(ctx, errs.NewValueIsInvalidErrorWithCause("price", err))
			}
			price = &p
		}
		cmd, err = commands.NewAcceptCommand(id, body.CarrierId, price)
	} else {
		cmd, err = commands.NewRefuseCommand(id, body.CarrierId, deref(body.Reason))
	}
	if err != nil {
		return writeError(ctx, err)
	}

	progress, err := s.handlers.Respond.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, progressResponse(progress))
}

// CancelChain handles POST /api/v1/dispatch-chains/{chainId}/cancel.
func (s *Server) CancelChain(ctx echo.Context, chainId servers.ChainId) error {
	id, err := toKernelUUID("chainId", chainId)
	if err != nil {
		return writeError(ctx, err)
	}

	var body servers.CancelChainJSONRequestBody
	if err := ctx.Bind(&body); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	cmd, err := commands.NewCancelChainCommand(id, body.Reason)
	if err != nil {
		return writeError(ctx, err)
	}
	progress, err := s.handlers.CancelChain.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, progressResponse(progress))
}

// GetEscalationStatus handles GET /api/v1/dispatch-chains/{chainId}/escalation.
func (s *Server) GetEscalationStatus(ctx echo.Context, chainId servers.ChainId) error {
	id, err := toKernelUUID("chainId", chainId)
	if err != nil {
		return writeError(ctx, err)
	}
	query, err := queries.NewGetEscalationStatusQuery(id)
	if err != nil {
		return writeError(ctx, err)
	}

	status, err := s.handlers.EscalationStatus.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, servers.EscalationStatus{
		ChainId:           status.ChainID.Bytes(),
		ExternalRequestId: optional(status.ExternalRequestID),
		LocalStatus:       status.LocalStatus,
		DeliveryAttempts:  status.DeliveryAttempts,
		NextDeliveryAt:    status.NextDeliveryAt,
		RemoteStatus:      optional(status.RemoteStatus),
		CarrierId:         optional(status.CarrierID),
		UpdatedAt:         status.UpdatedAt,
	})
}

// RetryEscalation handles POST /api/v1/dispatch-chains/{chainId}/escalation/retry.
func (s *Server) RetryEscalation(ctx echo.Context, chainId servers.ChainId) error {
	id, err := toKernelUUID("chainId", chainId)
	if err != nil {
		return writeError(ctx, err)
	}
	cmd, err := commands.NewSubmitEscalationCommand(id)
	if err != nil {
		return writeError(ctx, err)
	}

	result, err := s.handlers.RetryEscalation.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, servers.EscalationDelivery{
		Skipped:           result.Skipped,
		Delivered:         result.Delivered,
		ExternalRequestId: optional(result.ExternalRequestID),
		DeliveryAttempts:  result.DeliveryAttempts,
		NextDeliveryAt:    result.NextDeliveryAt,
	})
}

// HandleEscalationCallback handles POST /api/v1/escalations/callback. Late
// and repeated callbacks are acknowledged with applied=false.
func (s *Server) HandleEscalationCallback(ctx echo.Context) error {
	var body servers.HandleEscalationCallbackJSONRequestBody
	if err := ctx.Bind(&body); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	orderID, err := toKernelUUID("orderId", body.OrderId)
	if err != nil {
		return writeError(ctx, err)
	}
	cmd, err := commands.NewEscalationCallbackCommand(
		body.ExternalRequestId, orderID, string(body.Outcome), deref(body.Carrier), deref(body.Reason),
	)
	if err != nil {
		return writeError(ctx, err)
	}

	result, err := s.handlers.EscalationCallback.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return writeError(ctx, err)
	}

	response := servers.CallbackResult{Applied: result.Applied}
	if result.ChainID.Validate() == nil {
		chainID := openapi_types.UUID(result.ChainID.Bytes())
		status := result.Status.String()
		response.ChainId = &chainID
		response.Status = &status
	}
	return ctx.JSON(http.StatusOK, response)
}

// ListRouteProfiles handles GET /api/v1/route-profiles.
func (s *Server) ListRouteProfiles(ctx echo.Context, params servers.ListRouteProfilesParams) error {
	var organizationID *kernel.UUID
	if params.OrganizationId != nil {
		id, err := toKernelUUID("organizationId", *params.OrganizationId)
		if err != nil {
			return writeError(ctx, err)
		}
		organizationID = &id
	}
	activeOnly := params.ActiveOnly != nil && *params.ActiveOnly

	query, err := queries.NewListRouteProfilesQuery(organizationID, activeOnly)
	if err != nil {
		return writeError(ctx, err)
	}
	profiles, err := s.handlers.ListRouteProfiles.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeError(ctx, err)
	}

	response := make([]servers.RouteProfile, len(profiles))
	for i, p := range profiles {
		response[i] = servers.RouteProfile{
			Id:                  p.ID.Bytes(),
			OrganizationId:      p.OrganizationID.Bytes(),
			Name:                p.Name,
			Active:              p.Active,
			Origin:              placeRuleResponse(p.Origin),
			Destination:         placeRuleResponse(p.Destination),
			CargoTypes:          optionalSlice(p.CargoTypes),
			RequiredConstraints: optionalSlice(p.RequiredConstraints),
			Carriers:            p.Carriers,
		}
	}
	return ctx.JSON(http.StatusOK, response)
}

func dispatchStatusResponse(s queries.DispatchStatusResponse, now time.Time) servers.DispatchStatus {
	response := servers.DispatchStatus{
		ChainId:        s.ChainID.Bytes(),
		OrderId:        s.OrderID.Bytes(),
		OrderReference: optional(s.OrderReference),
		Status:         s.Status,
		Actionable:     s.IsActionable(now),
		CurrentAttempt: s.CurrentAttempt,
		CarrierId:      optional(s.AssignedCarrierID),
		CancelReason:   optional(s.CancelReason),
		CreatedAt:      s.CreatedAt,
		StartedAt:      s.StartedAt,
		CompletedAt:    s.CompletedAt,
		CancelledAt:    s.CancelledAt,
		Attempts:       make([]servers.Attempt, len(s.Attempts)),
	}
	if s.RouteProfileID != nil {
		rp := openapi_types.UUID(s.RouteProfileID.Bytes())
		response.RouteProfileId = &rp
	}

	for i, a := range s.Attempts {
		attempt := servers.Attempt{
			Index:          a.Index,
			CarrierId:      a.CarrierID,
			Rank:           a.Rank,
			CombinedScore:  float32(a.CombinedScore),
			Status:         a.Status,
			SkipReason:     optional(a.SkipReason),
			SentAt:         a.SentAt,
			ExpiresAt:      a.ExpiresAt,
			ReminderSentAt: a.ReminderSentAt,
			RespondedAt:    a.RespondedAt,
			RefusalReason:  optional(a.RefusalReason),
		}
		if a.ProposedPrice != nil {
			price := a.ProposedPrice.String()
			attempt.ProposedPrice = &price
		}
		response.Attempts[i] = attempt
	}

	if e := s.Escalation; e != nil {
		response.Escalation = &servers.Escalation{
			ExternalRequestId: optional(e.ExternalRequestID),
			Status:            e.Status,
			Reason:            optional(e.Reason),
			Urgency:           optional(e.Urgency),
			CarrierId:         optional(e.AssignedCarrierID),
			FailureReason:     optional(e.FailureReason),
			DeliveryAttempts:  e.DeliveryAttempts,
			LastDeliveryError: optional(e.LastDeliveryError),
			NextDeliveryAt:    e.NextDeliveryAt,
			CreatedAt:         e.CreatedAt,
			SubmittedAt:       e.SubmittedAt,
			ResolvedAt:        e.ResolvedAt,
		}
	}
	return response
}

func progressResponse(p commands.DispatchProgress) servers.DispatchProgress {
	return servers.DispatchProgress{
		Status:         p.Status.String(),
		CurrentAttempt: p.CurrentAttempt,
		CarrierId:      optional(p.CarrierID),
		Escalated:      p.Escalated,
	}
}

func placeRuleResponse(r queries.PlaceRuleResponse) servers.PlaceRule {
	return servers.PlaceRule{
		PostalPrefixes: optionalSlice(r.PostalPrefixes),
		City:           optional(r.City),
		Region:         optional(r.Region),
		Country:        optional(r.Country),
	}
}

func toKernelUUID(param string, id openapi_types.UUID) (kernel.UUID, error) {
	out, err := kernel.UUIDFromBytes(id[:])
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause(param, err)
	}
	return out, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalSlice(s []string) *[]string {
	if len(s) == 0 {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
