package kernel_test

import (
	"testing"

	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAddress(t *testing.T) {
	t.Run("normalizes components", func(t *testing.T) {
		a, err := kernel.NewAddress(" 75 011 ", "  Paris ", "Ile-de-France", "fr")

		require.NoError(t, err)
		require.NoError(t, a.Validate())
		assert.Equal(t, "75011", a.PostalCode())
		assert.Equal(t, "paris", a.City())
		assert.Equal(t, "ile-de-france", a.Region())
		assert.Equal(t, "FR", a.Country())
	})

	t.Run("country is required", func(t *testing.T) {
		_, err := kernel.NewAddress("75011", "Paris", "", " ")

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("country must be a two letter code", func(t *testing.T) {
		_, err := kernel.NewAddress("75011", "Paris", "", "FRA")

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("zero value is not constructed", func(t *testing.T) {
		var a kernel.Address

		assert.Equal(t, kernel.ErrAddressIsNotConstructed, a.Validate())
	})
}

func TestAddress_Matching(t *testing.T) {
	a, err := kernel.NewAddress("69007", "Lyon", "Auvergne-Rhone-Alpes", "FR")
	require.NoError(t, err)

	testCases := []struct {
		name string
		got  bool
		want bool
	}{
		{"postal prefix matches", a.HasPostalPrefix("69"), true},
		{"postal prefix with spaces matches", a.HasPostalPrefix("69 0"), true},
		{"other postal prefix", a.HasPostalPrefix("75"), false},
		{"empty postal prefix never matches", a.HasPostalPrefix(""), false},
		{"city is case insensitive", a.InCity("LYON"), true},
		{"other city", a.InCity("Paris"), false},
		{"region", a.InRegion("auvergne-rhone-alpes"), true},
		{"country", a.InCountry("fr"), true},
		{"other country", a.InCountry("DE"), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.got)
		})
	}
}

func TestAddress_UnknownComponentsNeverMatch(t *testing.T) {
	a, err := kernel.NewAddress("", "", "", "DE")
	require.NoError(t, err)

	assert.False(t, a.HasPostalPrefix("10"))
	assert.False(t, a.InCity(""))
	assert.False(t, a.InRegion(""))
	assert.Equal(t, "DE", a.String())
}

func TestAddress_IsEqual(t *testing.T) {
	a, _ := kernel.NewAddress("10115", "Berlin", "", "DE")
	b, _ := kernel.NewAddress("10 115", "berlin", "", "de")
	c, _ := kernel.NewAddress("10117", "Berlin", "", "DE")

	assert.True(t, a.IsEqual(b))
	assert.False(t, a.IsEqual(c))
	assert.Equal(t, "10115 berlin, DE", a.String())
}
