package service

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/SunnyMondal53778/pastport-history/internal/errors"
	"github.com/SunnyMondal53778/pastport-history/internal/metrics"
	"github.com/SunnyMondal53778/pastport-history/internal/normalizer"
	"github.com/SunnyMondal53778/pastport-history/internal/observer"
	"github.com/SunnyMondal53778/pastport-history/internal/provider"
	"github.com/SunnyMondal53778/pastport-history/pkg/models"
	"github.com/SunnyMondal53778/pastport-history/pkg/validation"
)

// MonumentService identifies the monument in a single photo
type MonumentService interface {
	AnalyzeMonument(ctx context.Context, request models.AnalysisRequest) (*models.MonumentRecord, error)
	// Ready reports whether the configured provider can make calls
	Ready() bool
}

// Options tunes a monument service
type Options struct {
	// DedupInFlight shares one upstream call between identical concurrent requests
	DedupInFlight bool
	// Model is recorded on events and diagnostics
	Model string
}

type monumentService struct {
	provider provider.Provider
	events   observer.Subject
	inflight *callGroup
	model    string
}

// NewMonumentService creates a new monument service
func NewMonumentService(p provider.Provider, events observer.Subject, opts Options) MonumentService {
	s := &monumentService{
		provider: p,
		events:   events,
		model:    opts.Model,
	}
	if opts.DedupInFlight {
		s.inflight = newCallGroup()
	}
	return s
}

func (s *monumentService) Ready() bool {
	return s.provider.Configured()
}

// AnalyzeMonument validates the image, makes one upstream call and
// normalizes the answer. Every error is an *errors.AppError.
func (s *monumentService) AnalyzeMonument(ctx context.Context, request models.AnalysisRequest) (*models.MonumentRecord, error) {
	start := time.Now()
	event := observer.AnalysisEvent{
		RequestID: RequestIDFrom(ctx),
		Provider:  s.provider.Name(),
		Model:     s.model,
	}

	image, err := validation.CanonicalizeImage(request.ImageBase64)
	if err != nil {
		return nil, s.fail(ctx, event, start, err)
	}
	event.Image = image.Info

	if !s.provider.Configured() {
		return nil, s.fail(ctx, event, start, apperrors.NewConfigurationError(provider.ErrMissingAPIKey))
	}

	started := event
	started.EventType = observer.AnalysisStarted
	s.publish(ctx, started)

	record, joined, err := s.call(ctx, image, event)
	if joined {
		shared := event
		shared.EventType = observer.UpstreamShared
		s.publish(ctx, shared)
	}
	if err != nil {
		if _, ok := apperrors.As(err); !ok {
			err = apperrors.NewUpstreamFailureError(0, err)
		}
		return nil, s.fail(ctx, event, start, err)
	}

	completed := event
	completed.EventType = observer.AnalysisCompleted
	completed.Success = true
	completed.ProcessingTime = time.Since(start)
	completed.Monument = record
	s.publish(ctx, completed)

	return record, nil
}

// call runs the upstream request and normalizes its answer, shared with
// identical in-flight requests when de-duplication is on.
func (s *monumentService) call(ctx context.Context, image *validation.CanonicalImage, event observer.AnalysisEvent) (*models.MonumentRecord, bool, error) {
	if s.inflight == nil {
		record, err := s.analyzeOnce(ctx, image.DataURI, event)
		return record, false, err
	}
	return s.inflight.Do(ctx, image.Info.Fingerprint, func(sharedCtx context.Context) (*models.MonumentRecord, error) {
		return s.analyzeOnce(sharedCtx, image.DataURI, event)
	})
}

// analyzeOnce makes one upstream call. A rejected payload is published here
// so a shared call reports it exactly once, whichever waiters remain.
func (s *monumentService) analyzeOnce(ctx context.Context, dataURI string, event observer.AnalysisEvent) (*models.MonumentRecord, error) {
	content, err := s.timedCall(ctx, dataURI)
	if err != nil {
		return nil, err
	}

	record, err := normalizer.Normalize(content)
	if err != nil {
		var nerr *normalizer.NormalizeError
		if errors.As(err, &nerr) {
			rejected := event
			rejected.EventType = observer.PayloadRejected
			rejected.Rejection = nerr
			s.publish(ctx, rejected)
		}
		return nil, apperrors.NewMalformedPayloadError(err)
	}
	return record, nil
}

func (s *monumentService) timedCall(ctx context.Context, dataURI string) (string, error) {
	metrics.UpstreamInFlight.Inc()
	defer metrics.UpstreamInFlight.Dec()

	start := time.Now()
	content, err := s.provider.Analyze(ctx, dataURI)

	outcome := "success"
	if err != nil {
		outcome = string(apperrors.KindOf(err))
	}
	metrics.UpstreamDurationSeconds.WithLabelValues(s.provider.Name(), outcome).Observe(time.Since(start).Seconds())

	return content, err
}

func (s *monumentService) fail(ctx context.Context, event observer.AnalysisEvent, start time.Time, err error) error {
	event.EventType = observer.AnalysisFailed
	event.ProcessingTime = time.Since(start)
	event.ErrorKind = string(apperrors.KindOf(err))
	event.ErrorMessage = err.Error()
	if appErr, ok := apperrors.As(err); ok {
		event.UpstreamStatus = appErr.UpstreamStatus
	}
	s.publish(ctx, event)
	return err
}

func (s *monumentService) publish(ctx context.Context, event observer.AnalysisEvent) {
	if s.events == nil {
		return
	}
	s.events.NotifyObservers(ctx, event)
}
