package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	require.NotNil(t, reg)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs, "runtime collectors registered")
}

func TestRegistry_RecordRequest_StatusCodes(t *testing.T) {
	tests := []struct {
		status   int
		expected string
	}{
		{100, "1xx"},
		{200, "2xx"},
		{301, "3xx"},
		{404, "4xx"},
		{503, "5xx"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			reg := NewRegistry()
			reg.RecordRequest("GET", "/metrics", tt.status, 0.01)

			assert.Equal(t, 1.0, testutil.ToFloat64(reg.httpRequestsTotal.WithLabelValues("GET", "/metrics", tt.expected)))
		})
	}
}

func TestRegistry_InFlight(t *testing.T) {
	reg := NewRegistry()

	reg.InFlightInc()
	reg.InFlightInc()
	reg.InFlightDec()

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.httpRequestsInFlight))
}

func TestRegistry_RecordBacktest(t *testing.T) {
	reg := NewRegistry()

	reg.RecordBacktest(StatusSuccess, 0.2)
	reg.RecordBacktest(StatusSuccess, 0.3)
	reg.RecordBacktest(StatusFailed, 0.1)

	assert.Equal(t, 2.0, testutil.ToFloat64(reg.backtestsTotal.WithLabelValues(StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.backtestsTotal.WithLabelValues(StatusFailed)))
	assert.Equal(t, 1, testutil.CollectAndCount(reg.backtestDuration))
}

func TestRegistry_BacktestStarted(t *testing.T) {
	reg := NewRegistry()

	done1 := reg.BacktestStarted()
	done2 := reg.BacktestStarted()
	assert.Equal(t, 2.0, testutil.ToFloat64(reg.backtestsActive))

	done1()
	done2()
	assert.Equal(t, 0.0, testutil.ToFloat64(reg.backtestsActive))
}

func TestRegistry_TradesAndPredictions(t *testing.T) {
	reg := NewRegistry()

	reg.RecordTrade("buy")
	reg.RecordTrade("sell")
	reg.RecordTrade("buy")
	reg.RecordPrediction(1)
	reg.RecordPrediction(0)
	reg.RecordPrediction(1)
	reg.RecordPrediction(1)

	assert.Equal(t, 2.0, testutil.ToFloat64(reg.tradesTotal.WithLabelValues("buy")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.tradesTotal.WithLabelValues("sell")))
	assert.Equal(t, 3.0, testutil.ToFloat64(reg.predictionsTotal.WithLabelValues("1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.predictionsTotal.WithLabelValues("0")))
}

func TestRegistry_Gauges(t *testing.T) {
	reg := NewRegistry()

	reg.SetTickers(12)
	reg.SetFinalValue("AAPL", 10450.5)

	assert.Equal(t, 12.0, testutil.ToFloat64(reg.tickersLoaded))
	assert.Equal(t, 10450.5, testutil.ToFloat64(reg.finalValue.WithLabelValues("AAPL")))
}

func TestRegistry_Handler(t *testing.T) {
	reg := NewRegistry()
	reg.RecordTrade("buy")

	srv := httptest.NewServer(reg.Handler(DefaultRoute))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `quantbench_trades_total{action="buy"} 1`))
}

// Ensure the registry implements prometheus.Gatherer interface
func TestRegistry_ImplementsGatherer(t *testing.T) {
	reg := NewRegistry()
	var _ prometheus.Gatherer = reg
}
