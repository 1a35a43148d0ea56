package observer

import (
	"context"
	"sync"
	"time"

	"github.com/SunnyMondal53778/pastport-history/internal/logger"
	"github.com/SunnyMondal53778/pastport-history/internal/metrics"
	"github.com/SunnyMondal53778/pastport-history/internal/normalizer"
	"github.com/SunnyMondal53778/pastport-history/internal/storage"
	"github.com/SunnyMondal53778/pastport-history/pkg/models"
	"github.com/SunnyMondal53778/pastport-history/pkg/validation"

	"github.com/sirupsen/logrus"
)

// AnalysisEvent describes one step of a monument identification
type AnalysisEvent struct {
	EventType      EventType                  `json:"event_type"`
	Timestamp      time.Time                  `json:"timestamp"`
	RequestID      string                     `json:"request_id,omitempty"`
	Provider       string                     `json:"provider,omitempty"`
	Model          string                     `json:"model,omitempty"`
	Image          validation.ImageInfo       `json:"image"`
	ProcessingTime time.Duration              `json:"processing_time"`
	Success        bool                       `json:"success"`
	ErrorKind      string                     `json:"error_kind,omitempty"`
	ErrorMessage   string                     `json:"error_message,omitempty"`
	UpstreamStatus int                        `json:"upstream_status,omitempty"`
	Monument       *models.MonumentRecord     `json:"monument,omitempty"`
	Rejection      *normalizer.NormalizeError `json:"-"`
}

// EventType represents the type of analysis event
type EventType string

const (
	// AnalysisStarted when a request passed validation and canonicalization
	AnalysisStarted EventType = "analysis_started"
	// AnalysisCompleted when a record was returned to the client
	AnalysisCompleted EventType = "analysis_completed"
	// AnalysisFailed when any error was returned to the client
	AnalysisFailed EventType = "analysis_failed"
	// UpstreamShared when a request joined an identical in-flight call
	UpstreamShared EventType = "upstream_shared"
	// PayloadRejected when model output failed normalization
	PayloadRejected EventType = "payload_rejected"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event AnalysisEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event AnalysisEvent)
	// Wait blocks until every notification sent so far has been handled
	Wait()
}

const rawLogLimit = 500

// LoggingObserver logs analysis events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(l *logrus.Logger) Observer {
	if l == nil {
		l = logger.Logger
	}
	return &LoggingObserver{
		logger: l,
	}
}

// OnEvent handles analysis events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"request_id":      event.RequestID,
		"provider":        event.Provider,
		"fingerprint":     event.Image.Fingerprint,
		"processing_time": event.ProcessingTime,
		"success":         event.Success,
	}

	if event.ErrorKind != "" {
		fields["error_kind"] = event.ErrorKind
		fields["error"] = event.ErrorMessage
	}
	if event.UpstreamStatus != 0 {
		fields["upstream_status"] = event.UpstreamStatus
	}
	if event.Monument != nil {
		fields["monument"] = event.Monument.Name
		fields["danger_rating"] = event.Monument.DangerRating
		fields["danger_level"] = event.Monument.DangerLevel()
		fields["shows_safety_note"] = event.Monument.ShowsSafetyNote()
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case AnalysisStarted:
		entry.WithFields(logrus.Fields{
			"image_mime":  event.Image.MIMEType,
			"image_bytes": event.Image.SizeBytes,
			"width":       event.Image.Width,
			"height":      event.Image.Height,
		}).Info("Analyzing monument image")
	case AnalysisCompleted:
		entry.Info("Monument analysis completed")
	case AnalysisFailed:
		switch event.ErrorKind {
		case "client_input":
			entry.Warn("Monument analysis rejected")
		case "configuration":
			entry.WithField("hint", "set AI_GATEWAY_API_KEY or LOVABLE_API_KEY").Error("Monument analysis failed")
		default:
			entry.Error("Monument analysis failed")
		}
	case UpstreamShared:
		entry.Debug("Joined in-flight upstream call")
	case PayloadRejected:
		if event.Rejection != nil {
			entry = entry.WithFields(logrus.Fields{
				"issues": event.Rejection.Issues,
				"raw":    logger.Truncate(event.Rejection.Raw, rawLogLimit),
			})
		}
		entry.Error("Failed to parse AI response as a monument record")
	default:
		entry.Info("Analysis event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver feeds analysis events into Prometheus and keeps running totals
type MetricsObserver struct {
	mu                  sync.RWMutex
	totalAnalyses       int64
	successfulAnalyses  int64
	failedAnalyses      int64
	sharedCalls         int64
	totalProcessingTime time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	metrics.Register()
	return &MetricsObserver{}
}

// OnEvent handles analysis events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case AnalysisStarted:
		o.totalAnalyses++
	case AnalysisCompleted:
		o.successfulAnalyses++
		o.totalProcessingTime += event.ProcessingTime
		metrics.RequestsTotal.WithLabelValues("success").Inc()
		if event.Monument != nil {
			metrics.DangerRatingTotal.WithLabelValues(event.Monument.DangerLevel()).Inc()
		}
	case AnalysisFailed:
		o.failedAnalyses++
		metrics.RequestsTotal.WithLabelValues(event.ErrorKind).Inc()
	case UpstreamShared:
		o.sharedCalls++
		metrics.SharedCallsTotal.Inc()
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgProcessingTime := time.Duration(0)
	if o.successfulAnalyses > 0 {
		avgProcessingTime = o.totalProcessingTime / time.Duration(o.successfulAnalyses)
	}

	return map[string]interface{}{
		"total_analyses":        o.totalAnalyses,
		"successful_analyses":   o.successfulAnalyses,
		"failed_analyses":       o.failedAnalyses,
		"shared_calls":          o.sharedCalls,
		"total_processing_time": o.totalProcessingTime,
		"avg_processing_time":   avgProcessingTime,
	}
}

// DiagnosticsObserver hands rejected model output to a sink in full
type DiagnosticsObserver struct {
	sink    storage.DiagnosticsSink
	timeout time.Duration
}

// NewDiagnosticsObserver creates an observer writing to sink
func NewDiagnosticsObserver(sink storage.DiagnosticsSink, timeout time.Duration) *DiagnosticsObserver {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &DiagnosticsObserver{sink: sink, timeout: timeout}
}

// OnEvent captures PayloadRejected events. The request may already be over,
// so the write runs on a detached context.
func (o *DiagnosticsObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	if event.EventType != PayloadRejected || event.Rejection == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.timeout)
	defer cancel()

	rec := storage.NewDiagnosticRecord(event.Provider, event.Model, event.Rejection, event.Image)
	rec.RequestID = event.RequestID

	if err := o.sink.Capture(ctx, rec); err != nil {
		metrics.DiagnosticsErrorsTotal.WithLabelValues(o.sink.Name()).Inc()
		logger.WithError(err).WithFields(logrus.Fields{
			"sink":          o.sink.Name(),
			"diagnostic_id": rec.ID,
			"request_id":    rec.RequestID,
		}).Error("Failed to capture diagnostic record")
	}
}

// GetObserverName returns the observer name
func (o *DiagnosticsObserver) GetObserverName() string {
	return "diagnostics_observer"
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	pending   sync.WaitGroup
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event
func (p *EventPublisher) NotifyObservers(ctx context.Context, event AnalysisEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	// Notify observers concurrently
	for _, observer := range observers {
		p.pending.Add(1)
		go func(obs Observer) {
			defer p.pending.Done()
			defer func() {
				if r := recover(); r != nil {
					// Log panic but don't crash the application
					logger.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}

// Wait blocks until in-flight notifications finish
func (p *EventPublisher) Wait() {
	p.pending.Wait()
}
