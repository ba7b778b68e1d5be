// Package services provides the domain services of the dispatch engine:
// stateless policies that work across aggregates.
//
// The package includes:
//   - RouteMatcher: scores route profiles against an order and excludes the
//     ones whose declared corridor the order is not on
//   - CandidateRanker: turns a lane's carrier slots and carrier reputations
//     into the final visiting order of a chain
//   - UrgencyClassifier: maps the time left until pickup to an escalation
//     urgency
package services
