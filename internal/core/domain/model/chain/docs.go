// Package chain implements the dispatch chain: the per-order process that
// offers a transport order to ranked carriers one at a time and hands it to
// an external matching service when nobody takes it.
//
// The package includes:
//   - Chain: the aggregate root and its state machine
//   - Attempt: one carrier's turn, with its own status
//   - Escalation: the record of the hand-off to the matching service
//   - DomainEvent implementations recorded by every transition
//
// Transitions never perform side effects. They record events, and the
// application layer delivers notifications and outbound calls after the
// chain has been committed.
package chain
