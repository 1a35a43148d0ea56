package container

import (
	"context"
	"fmt"
	"net/http"

	"github.com/SunnyMondal53778/pastport-history/internal/config"
	"github.com/SunnyMondal53778/pastport-history/internal/factory"
	"github.com/SunnyMondal53778/pastport-history/internal/logger"
	"github.com/SunnyMondal53778/pastport-history/internal/metrics"
	"github.com/SunnyMondal53778/pastport-history/internal/observer"
	"github.com/SunnyMondal53778/pastport-history/internal/provider"
	"github.com/SunnyMondal53778/pastport-history/internal/service"
	"github.com/SunnyMondal53778/pastport-history/internal/storage"
	"github.com/SunnyMondal53778/pastport-history/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	provider        provider.Provider
	sink            storage.DiagnosticsSink
	events          *observer.EventPublisher
	metricsObserver *observer.MetricsObserver
	monumentService service.MonumentService
	handler         http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	metrics.Register()
	components := factory.NewComponentFactory(cfg)

	p, err := components.ProviderFactory.CreateProvider(factory.ProviderType(cfg.Provider))
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}

	sink, err := components.SinkFactory.CreateSink(ctx, factory.SinkType(cfg.Diagnostics.Sink))
	if err != nil {
		return nil, fmt.Errorf("failed to create diagnostics sink: %w", err)
	}

	events := observer.NewEventPublisher()
	metricsObserver := observer.NewMetricsObserver()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metricsObserver)
	events.Subscribe(observer.NewDiagnosticsObserver(sink, cfg.UpstreamTimeout))

	monumentService := service.NewMonumentService(p, events, service.Options{
		DedupInFlight: cfg.DedupInFlight,
		Model:         cfg.Model,
	})
	handler := transport.NewHandler(monumentService, cfg)

	return &Container{
		provider:        p,
		sink:            sink,
		events:          events,
		metricsObserver: metricsObserver,
		monumentService: monumentService,
		handler:         handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Provider returns the configured vision model provider
func (c *Container) Provider() provider.Provider {
	return c.provider
}

// Stats returns running totals from the metrics observer
func (c *Container) Stats() map[string]interface{} {
	return c.metricsObserver.GetMetrics()
}

// Close drains pending events and releases the diagnostics sink
func (c *Container) Close() error {
	c.events.Wait()
	return c.sink.Close()
}
