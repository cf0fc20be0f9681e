package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cagnotte/config"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// MetricsProvider manages OpenTelemetry metrics for the cagnotte service.
// A nil provider is valid and records nothing.
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	mu            sync.RWMutex

	// Metric instruments
	potsCreatedCounter           metric.Int64Counter
	contributionsCounter         metric.Int64Counter
	resolutionsCounter           metric.Int64Counter
	resolutionConflictsCounter   metric.Int64Counter
	accessDeniedCounter          metric.Int64Counter
	natsMessagesPublishedCounter metric.Int64Counter
	eventsEmittedCounter         metric.Int64Counter
	operationDurationHist        metric.Float64Histogram
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		log.Debug("Metrics provider already initialized")
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		// Schemaless so the merge never conflicts with the SDK's default schema URL
		resource.NewSchemaless(
			attribute.String("service.name", mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter sdkmetric.Exporter
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTelOTLPEndpoint).Info("Using OTLP metric exporter")

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		mp.initialized = true
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	return mp.initializeWithReader(res, sdkmetric.NewPeriodicReader(
		exporter,
		sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
	))
}

// InitializeWithReader wires the provider to an explicit reader, which lets
// tests collect metrics from a ManualReader
func (mp *MetricsProvider) InitializeWithReader(reader sdkmetric.Reader) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.initializeWithReader(resource.Default(), reader)
}

func (mp *MetricsProvider) initializeWithReader(res *resource.Resource, reader sdkmetric.Reader) error {
	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)

	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter("cagnotte")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	log.Info("Metrics provider initialized successfully")
	return nil
}

// createInstruments creates all metric instruments
func (mp *MetricsProvider) createInstruments() error {
	var err error

	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
	}{
		{&mp.potsCreatedCounter, PotsCreatedTotal, "Total number of pots created"},
		{&mp.contributionsCounter, ContributionsTotal, "Total number of recorded contributions"},
		{&mp.resolutionsCounter, ResolutionsTotal, "Total number of resolved pots"},
		{&mp.resolutionConflictsCounter, ResolutionConflictsTotal, "Resolutions that lost a concurrent update"},
		{&mp.accessDeniedCounter, AccessDeniedTotal, "Requests refused by the access policy"},
		{&mp.natsMessagesPublishedCounter, NATSMessagesPublishedTotal, "Total number of events published to NATS"},
		{&mp.eventsEmittedCounter, EventsEmittedTotal, "Total number of events delivered on the local bus"},
	}
	for _, c := range counters {
		*c.target, err = mp.meter.Int64Counter(c.name,
			metric.WithDescription(c.description),
			metric.WithUnit("1"),
		)
		if err != nil {
			return fmt.Errorf("failed to create %s counter: %w", c.name, err)
		}
	}

	mp.operationDurationHist, err = mp.meter.Float64Histogram(
		OperationDuration,
		metric.WithDescription("Duration of lifecycle operations in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500),
	)
	if err != nil {
		return fmt.Errorf("failed to create operation duration histogram: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the metrics provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	if mp == nil {
		return nil
	}
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordPotCreated records a new pot
func (mp *MetricsProvider) RecordPotCreated() {
	if !mp.isEnabled() {
		return
	}
	mp.potsCreatedCounter.Add(context.Background(), 1)
}

// RecordContribution records a contribution
func (mp *MetricsProvider) RecordContribution() {
	if !mp.isEnabled() {
		return
	}
	mp.contributionsCounter.Add(context.Background(), 1)
}

// RecordResolution records a resolved pot by mode
func (mp *MetricsProvider) RecordResolution(mode string) {
	if !mp.isEnabled() {
		return
	}
	mp.resolutionsCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelMode, mode)),
	)
}

// RecordResolutionConflict records a resolution that lost a race
func (mp *MetricsProvider) RecordResolutionConflict(mode string) {
	if !mp.isEnabled() {
		return
	}
	mp.resolutionConflictsCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelMode, mode)),
	)
}

// RecordAccessDenied records a request refused by the access policy
func (mp *MetricsProvider) RecordAccessDenied(operation string) {
	if !mp.isEnabled() {
		return
	}
	mp.accessDeniedCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelOperation, operation)),
	)
}

// RecordNATSMessagePublished records a NATS message being published
func (mp *MetricsProvider) RecordNATSMessagePublished(eventType string) {
	if !mp.isEnabled() {
		return
	}
	mp.natsMessagesPublishedCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelEventType, eventType)),
	)
}

// RecordEventEmitted records an event delivered on the local bus
func (mp *MetricsProvider) RecordEventEmitted(eventType string) {
	if !mp.isEnabled() {
		return
	}
	mp.eventsEmittedCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelEventType, eventType)),
	)
}

// RecordOperation records the duration of one lifecycle operation
func (mp *MetricsProvider) RecordOperation(operation, outcome string, duration time.Duration) {
	if !mp.isEnabled() {
		return
	}
	mp.operationDurationHist.Record(context.Background(), float64(duration.Microseconds())/1000,
		metric.WithAttributes(
			attribute.String(LabelOperation, operation),
			attribute.String(LabelOutcome, outcome),
		),
	)
}

// isEnabled checks if metrics are enabled and instruments exist
func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.meter != nil
}

// Global metrics provider instance
var (
	globalMetrics *MetricsProvider
	metricsOnce   sync.Once
)

// InitializeGlobalMetrics initializes the global metrics provider
func InitializeGlobalMetrics(ctx context.Context, cfg *config.Config) error {
	var err error
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsProvider(cfg)
		err = globalMetrics.Initialize(ctx)
	})
	return err
}

// GetMetrics returns the global metrics provider
func GetMetrics() *MetricsProvider {
	return globalMetrics
}

// ShutdownGlobalMetrics shuts down the global metrics provider
func ShutdownGlobalMetrics(ctx context.Context) error {
	return globalMetrics.Shutdown(ctx)
}
