package services

import (
	"time"

	"freightdispatch/internal/core/domain/model/chain"
)

const (
	DefaultUrgentWithin  = 6 * time.Hour
	DefaultExpressWithin = 24 * time.Hour
)

// UrgencyClassifier maps the time left until pickup to an escalation
// urgency. Boundaries are inclusive and an overdue pickup is urgent.
type UrgencyClassifier struct {
	urgentWithin  time.Duration
	expressWithin time.Duration
}

func NewUrgencyClassifier() UrgencyClassifier {
	return UrgencyClassifier{urgentWithin: DefaultUrgentWithin, expressWithin: DefaultExpressWithin}
}

func (u UrgencyClassifier) Classify(untilPickup time.Duration) chain.Urgency {
	switch {
	case untilPickup <= u.urgentWithin:
		return chain.UrgencyUrgent
	case untilPickup <= u.expressWithin:
		return chain.UrgencyExpress
	default:
		return chain.UrgencyStandard
	}
}
