package order

import (
	"fmt"
	"time"

	"freightdispatch/internal/pkg/errs"
)

// TimeWindow is a closed interval. A zero To means the window is open ended.
type TimeWindow struct {
	from time.Time
	to   time.Time
}

func NewTimeWindow(from, to time.Time) (TimeWindow, error) {
	if from.IsZero() {
		return TimeWindow{}, errs.NewValueIsRequiredError("window start")
	}
	if !to.IsZero() && to.Before(from) {
		return TimeWindow{}, errs.NewValueIsInvalidErrorWithCause(
			"window",
			fmt.Errorf("end %s is before start %s", to.Format(time.RFC3339), from.Format(time.RFC3339)),
		)
	}
	return TimeWindow{from: from.UTC(), to: to.UTC()}, nil
}

func (w TimeWindow) From() time.Time { return w.from }
func (w TimeWindow) To() time.Time   { return w.to }

func (w TimeWindow) IsZero() bool { return w.from.IsZero() }
