package observability

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"skillscope/dashboard/internal/diag"
	"skillscope/dashboard/internal/model"
)

// MeterName scopes every dashboard instrument.
const MeterName = "skillscope/dashboard"

// InitMetrics initializes the OpenTelemetry metrics provider with a Prometheus exporter.
// It returns the handler for /metrics and a shutdown function to call on exit.
func InitMetrics() (http.Handler, func(context.Context) error, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)

	otel.SetMeterProvider(provider)

	return promhttp.Handler(), provider.Shutdown, nil
}

// Instruments records dashboard activity. It doubles as a diag.Reporter that
// counts failures by operation and kind.
type Instruments struct {
	failures metric.Int64Counter
	checks   metric.Int64Counter

	ready atomic.Int64
	users atomic.Int64
	jobs  atomic.Int64
}

// NewInstruments creates the dashboard's instruments on meter.
func NewInstruments(meter metric.Meter) (*Instruments, error) {
	inst := &Instruments{}

	var err error
	inst.failures, err = meter.Int64Counter("dashboard_failures",
		metric.WithDescription("Failed recommender operations by operation and kind"))
	if err != nil {
		return nil, fmt.Errorf("create failures counter: %w", err)
	}
	inst.checks, err = meter.Int64Counter("dashboard_status_checks",
		metric.WithDescription("Stored status checks by readiness"))
	if err != nil {
		return nil, fmt.Errorf("create status checks counter: %w", err)
	}

	gauges := []struct {
		name, desc string
		v          *atomic.Int64
	}{
		{"dashboard_service_ready", "1 when the recommender reports ready", &inst.ready},
		{"dashboard_users", "Users reported by the last status check", &inst.users},
		{"dashboard_jobs", "Jobs reported by the last status check", &inst.jobs},
	}
	for _, g := range gauges {
		v := g.v
		_, err := meter.Int64ObservableGauge(g.name,
			metric.WithDescription(g.desc),
			metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
				o.Observe(v.Load())
				return nil
			}))
		if err != nil {
			return nil, fmt.Errorf("create %s gauge: %w", g.name, err)
		}
	}
	return inst, nil
}

// Report counts a failure.
func (i *Instruments) Report(ctx context.Context, rec diag.Record) {
	i.failures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", rec.Operation),
		attribute.String("kind", rec.Kind),
	))
}

// ObserveStatus records a stored status check.
func (i *Instruments) ObserveStatus(st model.ServiceStatus) {
	i.checks.Add(context.Background(), 1, metric.WithAttributes(attribute.String("status", string(st.Status))))
	if st.Ready() {
		i.ready.Store(1)
	} else {
		i.ready.Store(0)
	}
	i.users.Store(int64(st.UsersCount))
	i.jobs.Store(int64(st.JobsCount))
}
