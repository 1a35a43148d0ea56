package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SunnyMondal53778/pastport-history/internal/logger"
	"github.com/SunnyMondal53778/pastport-history/internal/normalizer"
	"github.com/SunnyMondal53778/pastport-history/pkg/validation"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DiagnosticRecord captures model output that failed normalization
type DiagnosticRecord struct {
	ID        string                       `json:"id"`
	RequestID string                       `json:"request_id,omitempty"`
	Timestamp time.Time                    `json:"timestamp"`
	Provider  string                       `json:"provider"`
	Model     string                       `json:"model,omitempty"`
	Issues    []normalizer.ValidationIssue `json:"issues"`
	Raw       string                       `json:"raw"`
	Image     validation.ImageInfo         `json:"image"`
}

// NewDiagnosticRecord stamps a record with a fresh ID and the current time
func NewDiagnosticRecord(provider, model string, nerr *normalizer.NormalizeError, image validation.ImageInfo) DiagnosticRecord {
	rec := DiagnosticRecord{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Provider:  provider,
		Model:     model,
		Image:     image,
	}
	if nerr != nil {
		rec.Issues = nerr.Issues
		rec.Raw = nerr.Raw
	}
	return rec
}

// ObjectKey is the blob/object name a record is stored under
func (r DiagnosticRecord) ObjectKey(prefix string) string {
	return fmt.Sprintf("%s%s/%s.json", prefix, r.Timestamp.Format("2006/01/02"), r.ID)
}

// DiagnosticsSink stores full raw model output for later inspection
type DiagnosticsSink interface {
	Capture(ctx context.Context, rec DiagnosticRecord) error
	Name() string
	Close() error
}

// LogSink writes records to the structured log. It is the default sink.
type LogSink struct {
	logger *logrus.Logger
}

func NewLogSink(l *logrus.Logger) *LogSink {
	if l == nil {
		l = logger.Logger
	}
	return &LogSink{logger: l}
}

func (s *LogSink) Capture(ctx context.Context, rec DiagnosticRecord) error {
	s.logger.WithFields(logrus.Fields{
		"diagnostic_id": rec.ID,
		"request_id":    rec.RequestID,
		"provider":      rec.Provider,
		"issues":        rec.Issues,
		"raw":           rec.Raw,
		"image_mime":    rec.Image.MIMEType,
		"image_bytes":   rec.Image.SizeBytes,
		"fingerprint":   rec.Image.Fingerprint,
	}).Warn("Captured unparseable model output")
	return nil
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Close() error { return nil }

func encodeRecord(rec DiagnosticRecord) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode diagnostic record: %w", err)
	}
	return data, nil
}
