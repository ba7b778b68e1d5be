// Package order holds the read-only view of a transport order that the
// dispatch engine works from.
//
// Orders are owned by the order management service; this package never
// changes them. A Snapshot is fetched through the order source port when a
// route is detected, a chain is generated or an escalation is submitted.
//
// The package includes:
//   - Snapshot: identity, organization, origin and destination addresses,
//     cargo and the pickup and delivery windows
//   - Cargo: cargo type plus the constraints a lane may require
//     (for example "adr", "tail-lift", "temperature-controlled")
//   - TimeWindow: a closed [From, To] interval
package order
