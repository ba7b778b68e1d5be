package queries

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"freightdispatch/internal/core/domain/model/chain"
	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GetDispatchStatusQueryHandler reads chain state straight from the tables
// behind the chain repository, without loading the aggregate.
type GetDispatchStatusQueryHandler struct {
	db *gorm.DB
}

func NewGetDispatchStatusQueryHandler(db *gorm.DB) GetDispatchStatusQueryHandler {
	return GetDispatchStatusQueryHandler{db: db}
}

// Handle returns errs.ErrObjectNotFound when the order has no chain.
func (h GetDispatchStatusQueryHandler) Handle(
	ctx context.Context,
	query GetDispatchStatusQuery,
) (DispatchStatusResponse, error) {
	if err := query.Validate(); err != nil {
		return DispatchStatusResponse{}, err
	}

	db := h.db.WithContext(ctx)

	var (
		resp           DispatchStatusResponse
		id, orderID    uuid.UUID
		routeProfileID uuid.NullUUID
		currentIndex   int
	)
	err := db.Raw(`
		SELECT
			id,
			order_id,
			order_reference,
			route_profile_id,
			status,
			current_index,
			assigned_carrier_id,
			cancel_reason,
			created_at,
			started_at,
			completed_at,
			cancelled_at
		FROM dispatch_chains
		WHERE order_id = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, query.OrderID().Bytes()).Row().Scan(
		&id,
		&orderID,
		&resp.OrderReference,
		&routeProfileID,
		&resp.Status,
		&currentIndex,
		&resp.AssignedCarrierID,
		&resp.CancelReason,
		&resp.CreatedAt,
		&resp.StartedAt,
		&resp.CompletedAt,
		&resp.CancelledAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DispatchStatusResponse{}, errs.NewObjectNotFoundError("dispatchChain", query.OrderID().String())
		}
		return DispatchStatusResponse{}, err
	}

	if resp.ChainID, err = kernel.UUIDFromBytes(id[:]); err != nil {
		return DispatchStatusResponse{}, err
	}
	if resp.OrderID, err = kernel.UUIDFromBytes(orderID[:]); err != nil {
		return DispatchStatusResponse{}, err
	}
	if routeProfileID.Valid {
		rp, err := kernel.UUIDFromBytes(routeProfileID.UUID[:])
		if err != nil {
			return DispatchStatusResponse{}, err
		}
		resp.RouteProfileID = &rp
	}
	if resp.Status == chain.InProgress.String() {
		resp.CurrentAttempt = &currentIndex
	}

	if resp.Attempts, err = h.attempts(db, id); err != nil {
		return DispatchStatusResponse{}, err
	}
	if resp.Escalation, err = h.escalation(db, id); err != nil {
		return DispatchStatusResponse{}, err
	}
	return resp, nil
}

func (h GetDispatchStatusQueryHandler) attempts(db *gorm.DB, chainID uuid.UUID) ([]AttemptResponse, error) {
	rows, err := db.Raw(`
		SELECT
			idx,
			carrier_id,
			rank,
			combined_score,
			status,
			skip_reason,
			sent_at,
			expires_at,
			reminder_sent_at,
			responded_at,
			refusal_reason,
			proposed_price
		FROM dispatch_attempts
		WHERE chain_id = ?
		ORDER BY idx
	`, chainID).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attempts := make([]AttemptResponse, 0)
	for rows.Next() {
		var (
			a     AttemptResponse
			price decimal.NullDecimal
		)
		if err := rows.Scan(
			&a.Index,
			&a.CarrierID,
			&a.Rank,
			&a.CombinedScore,
			&a.Status,
			&a.SkipReason,
			&a.SentAt,
			&a.ExpiresAt,
			&a.ReminderSentAt,
			&a.RespondedAt,
			&a.RefusalReason,
			&price,
		); err != nil {
			return nil, err
		}
		if price.Valid {
			a.ProposedPrice = &price.Decimal
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return attempts, nil
}

func (h GetDispatchStatusQueryHandler) escalation(db *gorm.DB, chainID uuid.UUID) (*EscalationResponse, error) {
	var e EscalationResponse
	err := db.Raw(`
		SELECT
			external_request_id,
			status,
			reason,
			urgency,
			assigned_carrier_id,
			failure_reason,
			delivery_attempts,
			last_delivery_error,
			next_delivery_at,
			created_at,
			submitted_at,
			resolved_at
		FROM chain_escalations
		WHERE chain_id = ?
	`, chainID).Row().Scan(
		&e.ExternalRequestID,
		&e.Status,
		&e.Reason,
		&e.Urgency,
		&e.AssignedCarrierID,
		&e.FailureReason,
		&e.DeliveryAttempts,
		&e.LastDeliveryError,
		&e.NextDeliveryAt,
		&e.CreatedAt,
		&e.SubmittedAt,
		&e.ResolvedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// IsActionable reports whether a carrier can still answer the chain.
func (r DispatchStatusResponse) IsActionable(now time.Time) bool {
	if r.CurrentAttempt == nil || *r.CurrentAttempt >= len(r.Attempts) {
		return false
	}
	a := r.Attempts[*r.CurrentAttempt]
	return a.Status == chain.AttemptSent.String() && a.ExpiresAt != nil && !now.After(*a.ExpiresAt)
}
