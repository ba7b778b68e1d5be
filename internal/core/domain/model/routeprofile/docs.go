// Package routeprofile models lanes: configured corridors between an origin
// and a destination together with the carriers an organization prefers to
// offer that corridor to.
//
// The package includes:
//   - RouteProfile: the aggregate root (identity, organization, match rules,
//     cargo rules, activity flag and the carrier slots)
//   - PlaceRule: the origin or destination criteria of a lane
//   - CarrierSlot: one preferred carrier with its declared position,
//     eligibility floor and response deadline
//
// Route profiles are maintained through configuration (see the lanes
// importer) and are read-only to the dispatch engine.
package routeprofile
