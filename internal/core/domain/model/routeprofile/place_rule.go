package routeprofile

import (
	"slices"
	"strings"

	"freightdispatch/internal/core/domain/model/kernel"
)

// Specificity scores of the place criteria. The most specific declared
// criterion is the one that scores.
const (
	PostalPrefixScore = 50
	CityScore         = 40
	RegionScore       = 20
	CountryScore      = 10
)

// PlaceRule is the set of criteria one side of a lane declares. Every
// declared criterion must be satisfied for the rule to match; undeclared
// criteria are ignored. The zero PlaceRule declares nothing and matches any
// address with a score of zero.
type PlaceRule struct {
	postalPrefixes []string
	city           string
	region         string
	country        string
}

// NewPlaceRule normalizes the criteria the same way kernel.Address does so
// that matching is a plain comparison.
func NewPlaceRule(postalPrefixes []string, city, region, country string) PlaceRule {
	prefixes := make([]string, 0, len(postalPrefixes))
	for _, p := range postalPrefixes {
		p = kernel.NormalizePostalCode(p)
		if p != "" && !slices.Contains(prefixes, p) {
			prefixes = append(prefixes, p)
		}
	}

	return PlaceRule{
		postalPrefixes: prefixes,
		city:           strings.ToLower(strings.Join(strings.Fields(city), " ")),
		region:         strings.ToLower(strings.Join(strings.Fields(region), " ")),
		country:        kernel.NormalizeCountry(country),
	}
}

func (r PlaceRule) PostalPrefixes() []string { return slices.Clone(r.postalPrefixes) }
func (r PlaceRule) City() string             { return r.city }
func (r PlaceRule) Region() string           { return r.region }
func (r PlaceRule) Country() string          { return r.country }

// IsDeclared reports whether at least one criterion is set.
func (r PlaceRule) IsDeclared() bool {
	return len(r.postalPrefixes) > 0 || r.city != "" || r.region != "" || r.country != ""
}

// Match checks every declared criterion against the address. ok is false as
// soon as one declared criterion fails. score is the weight of the most
// specific declared criterion, or zero when nothing is declared.
func (r PlaceRule) Match(a kernel.Address) (score int, ok bool) {
	if len(r.postalPrefixes) > 0 {
		if !slices.ContainsFunc(r.postalPrefixes, a.HasPostalPrefix) {
			return 0, false
		}
		score = max(score, PostalPrefixScore)
	}
	if r.city != "" {
		if !a.InCity(r.city) {
			return 0, false
		}
		score = max(score, CityScore)
	}
	if r.region != "" {
		if !a.InRegion(r.region) {
			return 0, false
		}
		score = max(score, RegionScore)
	}
	if r.country != "" {
		if !a.InCountry(r.country) {
			return 0, false
		}
		score = max(score, CountryScore)
	}
	return score, true
}
