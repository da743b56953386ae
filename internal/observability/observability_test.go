package observability_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"skillscope/dashboard/internal/diag"
	"skillscope/dashboard/internal/model"
	"skillscope/dashboard/internal/observability"
)

// ── Logger ─────────────────────────────────────────────────────────────────

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := observability.NewLogger("info", "json", &buf)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("shown", "component", "monitor")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"component":"monitor"`)
}

func TestNewLogger_TextDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := observability.NewLogger("DEBUG", "text", &buf)
	require.NoError(t, err)

	logger.Debug("visible")
	assert.Contains(t, buf.String(), "msg=visible")
}

func TestNewLogger_Invalid(t *testing.T) {
	_, err := observability.NewLogger("loud", "json", nil)
	assert.Error(t, err)

	_, err = observability.NewLogger("info", "xml", nil)
	assert.Error(t, err)
}

// ── Metrics ────────────────────────────────────────────────────────────────

func TestInitMetrics_ServesDashboardMetrics(t *testing.T) {
	handler, shutdown, err := observability.InitMetrics()
	require.NoError(t, err)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = shutdown(ctx)
	}()

	inst, err := observability.NewInstruments(otel.Meter(observability.MeterName))
	require.NoError(t, err)
	inst.ObserveStatus(model.ServiceStatus{Status: model.Ready, UsersCount: 5, JobsCount: 12})
	inst.Report(context.Background(), diag.Record{Operation: "recommend", Kind: "network_unreachable"})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, "dashboard_failures")
	assert.Contains(t, body, `kind="network_unreachable"`)
	assert.Contains(t, body, "dashboard_service_ready")
	assert.Contains(t, body, "dashboard_jobs")
}

func TestInstruments_Values(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	inst, err := observability.NewInstruments(provider.Meter(observability.MeterName))
	require.NoError(t, err)

	inst.ObserveStatus(model.ServiceStatus{Status: model.Ready, UsersCount: 5, JobsCount: 12})
	inst.ObserveStatus(model.NotConnected())
	inst.Report(context.Background(), diag.Record{Operation: "status", Kind: "network_unreachable"})
	inst.Report(context.Background(), diag.Record{Operation: "status", Kind: "network_unreachable"})

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	values := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					values[m.Name] += dp.Value
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					values[m.Name] = dp.Value
				}
			}
		}
	}

	assert.Equal(t, int64(2), values["dashboard_failures"])
	assert.Equal(t, int64(2), values["dashboard_status_checks"])
	assert.Equal(t, int64(0), values["dashboard_service_ready"])
	assert.Equal(t, int64(0), values["dashboard_jobs"])
}
