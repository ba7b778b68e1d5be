package routeprofile

import (
	"errors"
	"strings"
	"time"

	"freightdispatch/internal/pkg/errs"
	"freightdispatch/internal/pkg/guard"
)

const (
	MinScore = 0.0
	MaxScore = 100.0
)

var ErrCarrierSlotIsNotConstructed = errors.New("CarrierSlot must be created via NewCarrierSlot constructor")

// Contact is where offers and reminders for a carrier are delivered.
type Contact struct {
	Name  string
	Email string
	Phone string
}

// CarrierSlot is one preferred carrier of a lane.
//
// Business rules:
//   - carrierID is required; carrier ids come from the carrier directory and
//     are opaque strings here
//   - position is non-negative, lower is better; positions need not be
//     contiguous, only their relative order matters
//   - minimumScore is the reputation floor in [0, 100]; 0 disables it
//   - responseDeadline is how long the carrier has to answer an offer and
//     must be positive
type CarrierSlot struct {
	carrierID        string
	position         int
	minimumScore     float64
	responseDeadline time.Duration
	contact          Contact

	guard guard.ConstructorGuard
}

func NewCarrierSlot(
	carrierID string,
	position int,
	minimumScore float64,
	responseDeadline time.Duration,
	contact Contact,
) (CarrierSlot, error) {
	carrierID = strings.TrimSpace(carrierID)

	var problems []error
	if carrierID == "" {
		problems = append(problems, errs.NewValueIsRequiredError("carrierId"))
	}
	if position < 0 {
		problems = append(problems, errs.NewValueIsOutOfRangeError("position", position, 0, "unbounded"))
	}
	if minimumScore < MinScore || minimumScore > MaxScore {
		problems = append(problems, errs.NewValueIsOutOfRangeError("minimumScore", minimumScore, MinScore, MaxScore))
	}
	if responseDeadline <= 0 {
		problems = append(problems, errs.NewValueIsRequiredError("responseDeadline"))
	}
	if err := errors.Join(problems...); err != nil {
		return CarrierSlot{}, err
	}

	return CarrierSlot{
		carrierID:        carrierID,
		position:         position,
		minimumScore:     minimumScore,
		responseDeadline: responseDeadline,
		contact:          contact,
		guard:            guard.NewConstructorGuard(),
	}, nil
}

func (s CarrierSlot) Validate() error {
	return s.guard.Validate(ErrCarrierSlotIsNotConstructed)
}

func (s CarrierSlot) CarrierID() string               { return s.carrierID }
func (s CarrierSlot) Position() int                   { return s.position }
func (s CarrierSlot) MinimumScore() float64           { return s.minimumScore }
func (s CarrierSlot) ResponseDeadline() time.Duration { return s.responseDeadline }
func (s CarrierSlot) Contact() Contact                { return s.contact }
