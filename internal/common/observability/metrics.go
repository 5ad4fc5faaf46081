package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability owns the OpenTelemetry meter and tracer providers of one process.
type Observability struct {
	meterProvider  *metric.MeterProvider
	meter          otelmetric.Meter
	tracing        *tracing
	resolutions    otelmetric.Int64Counter
	resolutionTime otelmetric.Float64Histogram
	jobCounter     otelmetric.Int64Counter
	jobDuration    otelmetric.Float64Histogram
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	resolutions, _ := meter.Int64Counter(
		"intent.resolutions",
		otelmetric.WithDescription("Number of intent resolutions"),
	)

	resolutionTime, _ := meter.Float64Histogram(
		"intent.resolution.duration",
		otelmetric.WithDescription("Intent resolution duration"),
		otelmetric.WithUnit("ms"),
	)

	jobCounter, _ := meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)

	jobDuration, _ := meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider:  provider,
		meter:          meter,
		resolutions:    resolutions,
		resolutionTime: resolutionTime,
		jobCounter:     jobCounter,
		jobDuration:    jobDuration,
	}
}

// RecordResolution counts one finished resolution and its duration.
func (o *Observability) RecordResolution(ctx context.Context, duration time.Duration, finalState string, fallbackUsed bool) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("final_state", finalState),
		attribute.Bool("fallback_used", fallbackUsed),
	)
	if o.resolutions != nil {
		o.resolutions.Add(ctx, 1, attrs)
	}
	if o.resolutionTime != nil {
		o.resolutionTime.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType string) {
	if o != nil && o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
		))
	}
}

func (o *Observability) RecordJobDuration(ctx context.Context, duration time.Duration, taskType string) {
	if o != nil && o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
		))
	}
}

func (o *Observability) Shutdown() {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.tracing != nil {
		o.tracing.shutdown(ctx)
	}
	if o.meterProvider != nil {
		o.meterProvider.Shutdown(ctx)
	}
}
