// Package chainrepo persists dispatch chains. A chain is stored as one row in
// dispatch_chains, one row per attempt in dispatch_attempts and an optional
// row in chain_escalations.
package chainrepo

import (
	"errors"
	"time"

	"freightdispatch/internal/core/domain/model/chain"
	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/core/domain/model/routeprofile"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ChainDTO struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OrderID           uuid.UUID  `gorm:"type:uuid;index"`
	OrganizationID    uuid.UUID  `gorm:"type:uuid;index"`
	OrderReference    string     `gorm:"size:128"`
	RouteProfileID    *uuid.UUID `gorm:"type:uuid"`
	Status            string     `gorm:"size:16;index"`
	CurrentIndex      int
	AssignedCarrierID string `gorm:"size:128"`
	CancelReason      string
	CreatedAt         time.Time `gorm:"autoCreateTime:false;index"`
	StartedAt         *time.Time
	CompletedAt       *time.Time
	CancelledAt       *time.Time
	Version           int

	Attempts   []AttemptDTO   `gorm:"foreignKey:ChainID;constraint:OnDelete:CASCADE"`
	Escalation *EscalationDTO `gorm:"foreignKey:ChainID;constraint:OnDelete:CASCADE"`
}

func (ChainDTO) TableName() string {
	return "dispatch_chains"
}

type AttemptDTO struct {
	ChainID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	Idx                     int       `gorm:"primaryKey;autoIncrement:false"`
	CarrierID               string    `gorm:"size:128"`
	Rank                    int
	DeclaredPosition        int
	CombinedScore           float64
	ReputationScore         float64
	ResponseDeadlineSeconds int64
	Contact                 ContactDTO `gorm:"embedded;embeddedPrefix:contact_"`
	Status                  string     `gorm:"size:16"`
	SkipReason              string
	SentAt                  *time.Time
	ExpiresAt               *time.Time
	ReminderSentAt          *time.Time
	RespondedAt             *time.Time
	RefusalReason           string
	ProposedPrice           decimal.NullDecimal `gorm:"type:numeric(14,2)"`
}

func (AttemptDTO) TableName() string {
	return "dispatch_attempts"
}

type ContactDTO struct {
	Name  string
	Email string
	Phone string
}

type EscalationDTO struct {
	ChainID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	ExternalRequestID string    `gorm:"size:128;index"`
	Status            string    `gorm:"size:16"`
	Reason            string
	Urgency           string `gorm:"size:16"`
	AssignedCarrierID string `gorm:"size:128"`
	FailureReason     string
	DeliveryAttempts  int
	LastDeliveryError string
	NextDeliveryAt    *time.Time `gorm:"index"`
	CreatedAt         time.Time  `gorm:"autoCreateTime:false"`
	SubmittedAt       *time.Time
	ResolvedAt        *time.Time
}

func (EscalationDTO) TableName() string {
	return "chain_escalations"
}

func fromDomain(c *chain.Chain) ChainDTO {
	s := c.State()

	dto := ChainDTO{
		ID:                s.ID.Bytes(),
		OrderID:           s.OrderID.Bytes(),
		OrganizationID:    s.OrganizationID.Bytes(),
		OrderReference:    s.OrderReference,
		Status:            s.Status.String(),
		CurrentIndex:      s.CurrentIndex,
		AssignedCarrierID: s.AssignedCarrierID,
		CancelReason:      s.CancelReason,
		CreatedAt:         s.CreatedAt,
		StartedAt:         s.StartedAt,
		CompletedAt:       s.CompletedAt,
		CancelledAt:       s.CancelledAt,
		Version:           s.Version,
		Attempts:          make([]AttemptDTO, 0, len(s.Attempts)),
	}
	if s.RouteProfileID != nil {
		raw := s.RouteProfileID.Bytes()
		dto.RouteProfileID = &raw
	}

	for _, a := range s.Attempts {
		ad := AttemptDTO{
			ChainID:                 dto.ID,
			Idx:                     a.Index,
			CarrierID:               a.CarrierID,
			Rank:                    a.Rank,
			DeclaredPosition:        a.DeclaredPosition,
			CombinedScore:           a.CombinedScore,
			ReputationScore:         a.ReputationScore,
			ResponseDeadlineSeconds: int64(a.ResponseDeadline / time.Second),
			Contact:                 ContactDTO{Name: a.Contact.Name, Email: a.Contact.Email, Phone: a.Contact.Phone},
			Status:                  a.Status.String(),
			SkipReason:              a.SkipReason,
			SentAt:                  a.SentAt,
			ExpiresAt:               a.ExpiresAt,
			ReminderSentAt:          a.ReminderSentAt,
			RespondedAt:             a.RespondedAt,
			RefusalReason:           a.RefusalReason,
		}
		if a.ProposedPrice != nil {
			ad.ProposedPrice = decimal.NewNullDecimal(*a.ProposedPrice)
		}
		dto.Attempts = append(dto.Attempts, ad)
	}

	if e := s.Escalation; e != nil {
		dto.Escalation = &EscalationDTO{
			ChainID:           dto.ID,
			ExternalRequestID: e.ExternalRequestID,
			Status:            e.Status.String(),
			Reason:            e.Reason,
			Urgency:           string(e.Urgency),
			AssignedCarrierID: e.AssignedCarrierID,
			FailureReason:     e.FailureReason,
			DeliveryAttempts:  e.DeliveryAttempts,
			LastDeliveryError: e.LastDeliveryError,
			NextDeliveryAt:    e.NextDeliveryAt,
			CreatedAt:         e.CreatedAt,
			SubmittedAt:       e.SubmittedAt,
			ResolvedAt:        e.ResolvedAt,
		}
	}

	return dto
}

func toDomain(dto ChainDTO) (*chain.Chain, error) {
	id, idErr := kernel.UUIDFromBytes(dto.ID[:])
	orderID, orderErr := kernel.UUIDFromBytes(dto.OrderID[:])
	orgID, orgErr := kernel.UUIDFromBytes(dto.OrganizationID[:])
	status, statusErr := chain.ParseStatus(dto.Status)
	if err := errors.Join(idErr, orderErr, orgErr, statusErr); err != nil {
		return nil, err
	}

	var routeProfileID *kernel.UUID
	if dto.RouteProfileID != nil {
		rpID, err := kernel.UUIDFromBytes((*dto.RouteProfileID)[:])
		if err != nil {
			return nil, err
		}
		routeProfileID = &rpID
	}

	attempts := make([]chain.AttemptState, 0, len(dto.Attempts))
	for _, a := range dto.Attempts {
		st, err := chain.ParseAttemptStatus(a.Status)
		if err != nil {
			return nil, err
		}
		as := chain.AttemptState{
			Index:            a.Idx,
			CarrierID:        a.CarrierID,
			Rank:             a.Rank,
			DeclaredPosition: a.DeclaredPosition,
			CombinedScore:    a.CombinedScore,
			ReputationScore:  a.ReputationScore,
			ResponseDeadline: time.Duration(a.ResponseDeadlineSeconds) * time.Second,
			Contact:          routeprofile.Contact{Name: a.Contact.Name, Email: a.Contact.Email, Phone: a.Contact.Phone},
			Status:           st,
			SkipReason:       a.SkipReason,
			SentAt:           a.SentAt,
			ExpiresAt:        a.ExpiresAt,
			ReminderSentAt:   a.ReminderSentAt,
			RespondedAt:      a.RespondedAt,
			RefusalReason:    a.RefusalReason,
		}
		if a.ProposedPrice.Valid {
			p := a.ProposedPrice.Decimal
			as.ProposedPrice = &p
		}
		attempts = append(attempts, as)
	}

	var escalation *chain.EscalationState
	if e := dto.Escalation; e != nil {
		st, err := chain.ParseEscalationStatus(e.Status)
		if err != nil {
			return nil, err
		}
		escalation = &chain.EscalationState{
			ExternalRequestID: e.ExternalRequestID,
			Status:            st,
			Reason:            e.Reason,
			Urgency:           chain.Urgency(e.Urgency),
			AssignedCarrierID: e.AssignedCarrierID,
			FailureReason:     e.FailureReason,
			DeliveryAttempts:  e.DeliveryAttempts,
			LastDeliveryError: e.LastDeliveryError,
			NextDeliveryAt:    e.NextDeliveryAt,
			CreatedAt:         e.CreatedAt,
			SubmittedAt:       e.SubmittedAt,
			ResolvedAt:        e.ResolvedAt,
		}
	}

	return chain.RestoreChain(chain.State{
		ID:                id,
		OrderID:           orderID,
		OrganizationID:    orgID,
		OrderReference:    dto.OrderReference,
		RouteProfileID:    routeProfileID,
		Status:            status,
		Attempts:          attempts,
		CurrentIndex:      dto.CurrentIndex,
		Escalation:        escalation,
		AssignedCarrierID: dto.AssignedCarrierID,
		CancelReason:      dto.CancelReason,
		CreatedAt:         dto.CreatedAt,
		StartedAt:         dto.StartedAt,
		CompletedAt:       dto.CompletedAt,
		CancelledAt:       dto.CancelledAt,
		Version:           dto.Version,
	})
}
