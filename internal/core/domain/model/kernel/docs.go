// Package kernel provides the shared value objects of the dispatch domain.
//
// The package includes:
//   - UUID: identifier for chains, orders, organizations and route profiles
//   - Address: a pickup or delivery place described by postal code, city,
//     region and country, compared in normalized form
//
// Values are immutable and safe for concurrent use.
package kernel
