package kernel

import (
	"fmt"
	"strings"

	"freightdispatch/internal/pkg/errs"
)

// ErrAddressIsNotConstructed is returned when validating a zero Address.
var ErrAddressIsNotConstructed = errs.NewValueIsRequiredError("Address must be created via NewAddress")

// Address is a pickup or delivery place as far as lane matching is concerned:
// postal code, city, region and ISO country code. Street level detail stays
// with the order record.
//
// All components are stored normalized so that comparisons are exact:
//   - postal code: upper case, spaces and dashes removed
//   - city, region: trimmed, lower case
//   - country: trimmed, upper case
//
// Country is mandatory; the other components may be empty when the order
// source does not know them.
type Address struct { //nolint:recvcheck //using for validation
	postalCode string
	city       string
	region     string
	country    string

	isConstructed bool
}

// NewAddress builds a normalized Address. Only country is required.
//
// Example:
//
//	pickup, err := kernel.NewAddress("75 011", "Paris", "Ile-de-France", "fr")
//	// pickup.PostalCode() == "75011", pickup.Country() == "FR"
func NewAddress(postalCode, city, region, country string) (Address, error) {
	a := Address{
		postalCode:    NormalizePostalCode(postalCode),
		city:          normalizeName(city),
		region:        normalizeName(region),
		country:       NormalizeCountry(country),
		isConstructed: true,
	}

	if a.country == "" {
		return Address{}, errs.NewValueIsRequiredError("country")
	}
	if len(a.country) != 2 {
		return Address{}, errs.NewValueIsInvalidErrorWithCause(
			"country",
			fmt.Errorf("%q is not an ISO 3166-1 alpha-2 code", a.country),
		)
	}

	return a, nil
}

// Validate reports whether the Address was built by NewAddress.
func (a Address) Validate() error {
	if !a.isConstructed {
		return ErrAddressIsNotConstructed
	}
	return nil
}

func (a Address) PostalCode() string { return a.postalCode }
func (a Address) City() string       { return a.city }
func (a Address) Region() string     { return a.region }
func (a Address) Country() string    { return a.country }

// String renders "postal city, region, country" skipping empty parts.
func (a Address) String() string {
	parts := make([]string, 0, 3)
	if head := strings.TrimSpace(a.postalCode + " " + a.city); head != "" {
		parts = append(parts, head)
	}
	if a.region != "" {
		parts = append(parts, a.region)
	}
	parts = append(parts, a.country)
	return strings.Join(parts, ", ")
}

// IsEqual compares all normalized components.
func (a Address) IsEqual(other Address) bool {
	return a.postalCode == other.postalCode &&
		a.city == other.city &&
		a.region == other.region &&
		a.country == other.country
}

// HasPostalPrefix reports whether the postal code starts with prefix after
// both are normalized. An empty postal code never matches.
func (a Address) HasPostalPrefix(prefix string) bool {
	prefix = NormalizePostalCode(prefix)
	return a.postalCode != "" && prefix != "" && strings.HasPrefix(a.postalCode, prefix)
}

// InCity, InRegion and InCountry compare against a raw, un-normalized name.
func (a Address) InCity(city string) bool {
	return a.city != "" && a.city == normalizeName(city)
}

func (a Address) InRegion(region string) bool {
	return a.region != "" && a.region == normalizeName(region)
}

func (a Address) InCountry(country string) bool {
	return a.country == NormalizeCountry(country)
}

// NormalizePostalCode upper-cases and strips spaces and dashes.
func NormalizePostalCode(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "-", "").Replace(s)
}

// NormalizeCountry trims and upper-cases an ISO country code.
func NormalizeCountry(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
