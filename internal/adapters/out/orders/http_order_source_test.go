package orders_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"freightdispatch/internal/adapters/out/orders"
	"freightdispatch/internal/core/domain/model/kernel"
	"freightdispatch/internal/core/ports"
	"freightdispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.OrderSource = (*orders.HTTPOrderSource)(nil)

func newSource(t *testing.T, h http.HandlerFunc) *orders.HTTPOrderSource {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return orders.NewHTTPOrderSource(orders.Config{BaseURL: srv.URL, Timeout: time.Second})
}

const orderJSON = `{
	"id": %q,
	"organizationId": %q,
	"reference": "PO-1042",
	"origin": {"postalCode": "69003", "city": "Lyon", "country": "fr"},
	"destination": {"postalCode": "75011", "city": "Paris", "country": "FR"},
	"cargo": {"type": "Pallet", "constraints": ["tail-lift"], "weightKg": 800},
	"pickupWindow": {"from": "2026-03-02T14:00:00Z", "to": "2026-03-02T16:00:00Z"}
}`

func TestHTTPOrderSource_GetOrder(t *testing.T) {
	orderID := kernel.NewUUID()
	orgID := kernel.NewUUID()

	src := newSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders/"+orderID.String(), r.URL.Path)
		_, _ = fmt.Fprintf(w, orderJSON, orderID, orgID)
	})

	o, err := src.GetOrder(t.Context(), orderID)
	require.NoError(t, err)

	assert.True(t, o.ID().IsEqual(orderID))
	assert.True(t, o.OrganizationID().IsEqual(orgID))
	assert.Equal(t, "PO-1042", o.Reference())
	assert.Equal(t, "FR", o.Origin().Country())
	assert.Equal(t, "69003", o.Origin().PostalCode())
	assert.Equal(t, "pallet", o.Cargo().Type())
	assert.True(t, o.Cargo().HasConstraint("tail-lift"))
	assert.True(t, o.PickupWindow().From().Equal(time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)))
	assert.True(t, o.DeliveryWindow().IsZero())
}

func TestHTTPOrderSource_NotFound(t *testing.T) {
	src := newSource(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := src.GetOrder(t.Context(), kernel.NewUUID())
	assert.ErrorIs(t, err, errs.ErrObjectNotFound)
}

func TestHTTPOrderSource_InvalidPayload(t *testing.T) {
	orderID := kernel.NewUUID()

	t.Run("missing pickup window", func(t *testing.T) {
		src := newSource(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = fmt.Fprintf(w, `{"id": %q, "organizationId": %q, "origin": {"country": "FR"}, "destination": {"country": "FR"}}`,
				orderID, kernel.NewUUID())
		})
		_, err := src.GetOrder(t.Context(), orderID)
		assert.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("different order returned", func(t *testing.T) {
		src := newSource(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = fmt.Fprintf(w, orderJSON, kernel.NewUUID(), kernel.NewUUID())
		})
		_, err := src.GetOrder(t.Context(), orderID)
		assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}
