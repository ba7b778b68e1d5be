package ports

import "time"

// DispatchMetrics records operational counters of the dispatch engine.
type DispatchMetrics interface {
	OfferSent()
	ReminderSent()
	AttemptClosed(outcome string)
	ChainCompleted(viaEscalation bool)
	ChainEscalated(reason string)
	ChainCancelled()
	EscalationDelivery(ok bool)
	NotificationFailed(kind string)
	MonitorScan(duration time.Duration, chains int)
	StaleEscalations(n int)
}
