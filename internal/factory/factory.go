package factory

import (
	"context"
	"fmt"

	"github.com/SunnyMondal53778/pastport-history/internal/config"
	"github.com/SunnyMondal53778/pastport-history/internal/provider"
	"github.com/SunnyMondal53778/pastport-history/internal/storage"
)

// ProviderType represents the available vision model backends
type ProviderType string

const (
	// GatewayProvider for the OpenAI-compatible AI gateway
	GatewayProvider ProviderType = "gateway"
	// StubProvider for deterministic offline answers
	StubProvider ProviderType = "stub"
)

// SinkType represents different diagnostics backends
type SinkType string

const (
	// LogSink writes diagnostics to the structured log
	LogSink SinkType = "log"
	// AzureSink for Azure blob storage
	AzureSink SinkType = "azure"
	// S3Sink for Amazon S3 or a compatible object store
	S3Sink SinkType = "s3"
	// KafkaSink for a Kafka topic
	KafkaSink SinkType = "kafka"
)

// ProviderFactory creates vision model providers
type ProviderFactory interface {
	CreateProvider(providerType ProviderType) (provider.Provider, error)
}

// SinkFactory creates diagnostics sinks
type SinkFactory interface {
	CreateSink(ctx context.Context, sinkType SinkType) (storage.DiagnosticsSink, error)
}

// providerFactory implements ProviderFactory
type providerFactory struct {
	cfg *config.Config
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(cfg *config.Config) ProviderFactory {
	return &providerFactory{cfg: cfg}
}

// CreateProvider creates a provider based on the specified type
func (f *providerFactory) CreateProvider(providerType ProviderType) (provider.Provider, error) {
	switch providerType {
	case GatewayProvider:
		return provider.NewChatClient(f.cfg.GatewayURL, f.cfg.APIKey, f.cfg.Model, f.cfg.UpstreamTimeout), nil
	case StubProvider:
		return provider.NewStubClient(), nil
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}

// sinkFactory implements SinkFactory
type sinkFactory struct {
	cfg config.DiagnosticsConfig
}

// NewSinkFactory creates a new sink factory
func NewSinkFactory(cfg config.DiagnosticsConfig) SinkFactory {
	return &sinkFactory{cfg: cfg}
}

// CreateSink creates a diagnostics sink based on the specified type
func (f *sinkFactory) CreateSink(ctx context.Context, sinkType SinkType) (storage.DiagnosticsSink, error) {
	switch sinkType {
	case LogSink, "":
		return storage.NewLogSink(nil), nil
	case AzureSink:
		if f.cfg.AzureAccountName == "" || f.cfg.AzureAccountKey == "" {
			return nil, fmt.Errorf("azure sink requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
		return storage.NewAzureBlobSink(f.cfg.AzureAccountName, f.cfg.AzureAccountKey, f.cfg.AzureContainer)
	case S3Sink:
		if f.cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3 sink requires S3_DIAGNOSTICS_BUCKET")
		}
		return storage.NewS3Sink(ctx, f.cfg.S3Bucket, f.cfg.S3Prefix)
	case KafkaSink:
		if len(f.cfg.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("kafka sink requires KAFKA_BROKERS")
		}
		return storage.NewKafkaSink(f.cfg.KafkaBrokers, f.cfg.KafkaTopic), nil
	default:
		return nil, fmt.Errorf("unsupported sink type: %s", sinkType)
	}
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	ProviderFactory ProviderFactory
	SinkFactory     SinkFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		ProviderFactory: NewProviderFactory(cfg),
		SinkFactory:     NewSinkFactory(cfg.Diagnostics),
	}
}
