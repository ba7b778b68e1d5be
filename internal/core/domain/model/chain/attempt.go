package chain

import (
	"time"

	"freightdispatch/internal/core/domain/model/routeprofile"

	"github.com/shopspring/decimal"
)

// Attempt is one carrier's turn within a chain. Attempts are owned by the
// chain and only change through its transitions; the getters hand out
// copies.
type Attempt struct {
	index            int
	carrierID        string
	rank             int
	declaredPosition int
	combinedScore    float64
	reputationScore  float64
	responseDeadline time.Duration
	contact          routeprofile.Contact
	status           AttemptStatus
	skipReason       string

	sentAt         *time.Time
	expiresAt      *time.Time
	reminderSentAt *time.Time
	respondedAt    *time.Time
	refusalReason  string
	proposedPrice  *decimal.Decimal
}

// AttemptState is the persisted form of an Attempt.
type AttemptState struct {
	Index            int
	CarrierID        string
	Rank             int
	DeclaredPosition int
	CombinedScore    float64
	ReputationScore  float64
	ResponseDeadline time.Duration
	Contact          routeprofile.Contact
	Status           AttemptStatus
	SkipReason       string
	SentAt           *time.Time
	ExpiresAt        *time.Time
	ReminderSentAt   *time.Time
	RespondedAt      *time.Time
	RefusalReason    string
	ProposedPrice    *decimal.Decimal
}

func newAttempt(index int, c Candidate) Attempt {
	return Attempt{
		index:            index,
		carrierID:        c.CarrierID,
		rank:             c.Rank,
		declaredPosition: c.DeclaredPosition,
		combinedScore:    c.CombinedScore,
		reputationScore:  c.ReputationScore,
		responseDeadline: c.ResponseDeadline,
		contact:          c.Contact,
		status:           AttemptPending,
		skipReason:       c.SkipReason,
	}
}

func restoreAttempt(s AttemptState) Attempt {
	return Attempt{
		index:            s.Index,
		carrierID:        s.CarrierID,
		rank:             s.Rank,
		declaredPosition: s.DeclaredPosition,
		combinedScore:    s.CombinedScore,
		reputationScore:  s.ReputationScore,
		responseDeadline: s.ResponseDeadline,
		contact:          s.Contact,
		status:           s.Status,
		skipReason:       s.SkipReason,
		sentAt:           s.SentAt,
		expiresAt:        s.ExpiresAt,
		reminderSentAt:   s.ReminderSentAt,
		respondedAt:      s.RespondedAt,
		refusalReason:    s.RefusalReason,
		proposedPrice:    s.ProposedPrice,
	}
}

// State returns the persisted form.
func (a Attempt) State() AttemptState {
	return AttemptState{
		Index:            a.index,
		CarrierID:        a.carrierID,
		Rank:             a.rank,
		DeclaredPosition: a.declaredPosition,
		CombinedScore:    a.combinedScore,
		ReputationScore:  a.reputationScore,
		ResponseDeadline: a.responseDeadline,
		Contact:          a.contact,
		Status:           a.status,
		SkipReason:       a.skipReason,
		SentAt:           a.sentAt,
		ExpiresAt:        a.expiresAt,
		ReminderSentAt:   a.reminderSentAt,
		RespondedAt:      a.respondedAt,
		RefusalReason:    a.refusalReason,
		ProposedPrice:    a.proposedPrice,
	}
}

func (a Attempt) Index() int                      { return a.index }
func (a Attempt) CarrierID() string               { return a.carrierID }
func (a Attempt) Rank() int                       { return a.rank }
func (a Attempt) DeclaredPosition() int           { return a.declaredPosition }
func (a Attempt) CombinedScore() float64          { return a.combinedScore }
func (a Attempt) ReputationScore() float64        { return a.reputationScore }
func (a Attempt) ResponseDeadline() time.Duration { return a.responseDeadline }
func (a Attempt) Contact() routeprofile.Contact   { return a.contact }
func (a Attempt) Status() AttemptStatus           { return a.status }
func (a Attempt) SkipReason() string              { return a.skipReason }
func (a Attempt) SentAt() *time.Time              { return a.sentAt }
func (a Attempt) ExpiresAt() *time.Time           { return a.expiresAt }
func (a Attempt) ReminderSentAt() *time.Time      { return a.reminderSentAt }
func (a Attempt) RespondedAt() *time.Time         { return a.respondedAt }
func (a Attempt) RefusalReason() string           { return a.refusalReason }
func (a Attempt) ProposedPrice() *decimal.Decimal { return a.proposedPrice }

// ReminderAt is the midpoint between sentAt and expiresAt. ok is false for
// attempts that were never sent.
func (a Attempt) ReminderAt() (at time.Time, ok bool) {
	if a.sentAt == nil || a.expiresAt == nil {
		return time.Time{}, false
	}
	return a.sentAt.Add(a.expiresAt.Sub(*a.sentAt) / 2), true
}

// IsReminderDue: sent, no reminder yet, midpoint reached, deadline not passed.
func (a Attempt) IsReminderDue(now time.Time) bool {
	at, ok := a.ReminderAt()
	if !ok || a.status != AttemptSent || a.reminderSentAt != nil {
		return false
	}
	return !now.Before(at) && !now.After(*a.expiresAt)
}

// IsExpired reports whether a sent attempt is strictly past its deadline.
func (a Attempt) IsExpired(now time.Time) bool {
	return a.status == AttemptSent && a.expiresAt != nil && now.After(*a.expiresAt)
}

func (a *Attempt) send(now time.Time) error {
	next, err := a.status.Send()
	if err != nil {
		return err
	}
	expires := now.Add(a.responseDeadline)
	a.status = next
	a.sentAt = &now
	a.expiresAt = &expires
	return nil
}

func (a *Attempt) close(outcome AttemptStatus, now time.Time) error {
	next, err := a.status.Close(outcome)
	if err != nil {
		return err
	}
	a.status = next
	a.respondedAt = &now
	return nil
}

func (a *Attempt) withdraw(now time.Time) error {
	next, err := a.status.Withdraw()
	if err != nil {
		return err
	}
	a.status = next
	a.respondedAt = &now
	return nil
}

func (a *Attempt) skip(reason string) error {
	next, err := a.status.Skip()
	if err != nil {
		return err
	}
	a.status = next
	a.skipReason = reason
	return nil
}
