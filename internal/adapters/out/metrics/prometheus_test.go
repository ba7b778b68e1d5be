package metrics_test

import (
	"testing"
	"time"

	"freightdispatch/internal/adapters/out/metrics"
	"freightdispatch/internal/core/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ports.DispatchMetrics = (*metrics.Prometheus)(nil)
	_ ports.DispatchMetrics = metrics.Nop{}
)

func TestPrometheus_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.NewPrometheus(reg)
	require.NoError(t, err)

	m.OfferSent()
	m.OfferSent()
	m.AttemptClosed("refused")
	m.AttemptClosed("timed_out")
	m.AttemptClosed("refused")
	m.ChainCompleted(true)
	m.ChainEscalated("candidates exhausted")
	m.EscalationDelivery(false)
	m.EscalationDelivery(true)
	m.NotificationFailed("offer")
	m.StaleEscalations(3)
	m.MonitorScan(150*time.Millisecond, 12)

	count, err := testutil.GatherAndCount(reg, "freightdispatch_offers_sent_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range mfs {
		for _, metric := range mf.GetMetric() {
			key := mf.GetName()
			for _, l := range metric.GetLabel() {
				key += "|" + l.GetValue()
			}
			switch {
			case metric.Counter != nil:
				values[key] = metric.GetCounter().GetValue()
			case metric.Gauge != nil:
				values[key] = metric.GetGauge().GetValue()
			}
		}
	}

	assert.Equal(t, 2.0, values["freightdispatch_offers_sent_total"])
	assert.Equal(t, 2.0, values["freightdispatch_attempts_closed_total|refused"])
	assert.Equal(t, 1.0, values["freightdispatch_attempts_closed_total|timed_out"])
	assert.Equal(t, 1.0, values["freightdispatch_chains_completed_total|true"])
	assert.Equal(t, 1.0, values["freightdispatch_escalation_deliveries_total|failed"])
	assert.Equal(t, 1.0, values["freightdispatch_escalation_deliveries_total|submitted"])
	assert.Equal(t, 3.0, values["freightdispatch_stale_escalations"])
	assert.Equal(t, 12.0, values["freightdispatch_monitor_chains_in_progress"])
}

func TestPrometheus_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := metrics.NewPrometheus(reg)
	require.NoError(t, err)
	second, err := metrics.NewPrometheus(reg)
	require.NoError(t, err)

	first.ChainCancelled()
	second.ChainCancelled()

	count, err := testutil.GatherAndCount(reg, "freightdispatch_chains_cancelled_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == "freightdispatch_chains_cancelled_total" {
			assert.Equal(t, 2.0, mf.GetMetric()[0].GetCounter().GetValue())
		}
	}
}
