package commands

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultRetryInitial    = time.Minute
	DefaultRetryMax        = 30 * time.Minute
	DefaultRetryMultiplier = 2.0
)

// RetrySchedule spaces out escalation deliveries exponentially without
// jitter and without ever giving up.
type RetrySchedule struct {
	initial    time.Duration
	max        time.Duration
	multiplier float64
}

func NewRetrySchedule(initial, maxInterval time.Duration, multiplier float64) RetrySchedule {
	if initial <= 0 {
		initial = DefaultRetryInitial
	}
	if maxInterval < initial {
		maxInterval = initial
	}
	if multiplier < 1 {
		multiplier = DefaultRetryMultiplier
	}
	return RetrySchedule{initial: initial, max: maxInterval, multiplier: multiplier}
}

func DefaultRetrySchedule() RetrySchedule {
	return NewRetrySchedule(DefaultRetryInitial, DefaultRetryMax, DefaultRetryMultiplier)
}

// Delay returns the wait after the n-th failed delivery (n starts at 1).
func (s RetrySchedule) Delay(failures int) time.Duration {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.initial
	b.MaxInterval = s.max
	b.Multiplier = s.multiplier
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	d := b.NextBackOff()
	for i := 1; i < failures; i++ {
		d = b.NextBackOff()
	}
	return d
}
