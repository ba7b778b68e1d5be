package metrics

import "time"

// Nop discards every measurement.
type Nop struct{}

func (Nop) OfferSent()                     {}
func (Nop) ReminderSent()                  {}
func (Nop) AttemptClosed(string)           {}
func (Nop) ChainCompleted(bool)            {}
func (Nop) ChainEscalated(string)          {}
func (Nop) ChainCancelled()                {}
func (Nop) EscalationDelivery(bool)        {}
func (Nop) NotificationFailed(string)      {}
func (Nop) MonitorScan(time.Duration, int) {}
func (Nop) StaleEscalations(int)           {}
