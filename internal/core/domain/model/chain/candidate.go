package chain

import (
	"time"

	"freightdispatch/internal/core/domain/model/routeprofile"
)

// Candidate is a carrier as placed by the candidate ranker. Eligible
// candidates become pending attempts in Rank order; the others are recorded
// as skipped.
type Candidate struct {
	CarrierID        string
	Rank             int
	DeclaredPosition int
	PositionScore    float64
	ReputationScore  float64
	CombinedScore    float64
	ResponseDeadline time.Duration
	Contact          routeprofile.Contact
	SkipReason       string
}
