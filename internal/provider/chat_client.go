package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/SunnyMondal53778/pastport-history/internal/errors"
	"github.com/SunnyMondal53778/pastport-history/internal/logger"
	"github.com/SunnyMondal53778/pastport-history/internal/prompt"

	"github.com/sirupsen/logrus"
)

const (
	// maxEnvelopeBytes caps how much of an upstream response is read
	maxEnvelopeBytes = 10 << 20

	upstreamLogLimit = 500
)

// ErrMissingAPIKey is the cause attached to configuration errors
var ErrMissingAPIKey = fmt.Errorf("AI gateway API key is not configured")

type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type textPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type imageURL struct {
	URL string `json:"url"`
}

type imagePart struct {
	Type     string   `json:"type"`
	ImageURL imageURL `json:"image_url"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ChatClient calls an OpenAI-compatible chat completions endpoint
type ChatClient struct {
	endpoint string
	apiKey   string
	model    string
	timeout  time.Duration
	client   *http.Client
}

// NewChatClient creates a gateway client. An empty apiKey yields an
// unconfigured client whose calls fail with a configuration error.
func NewChatClient(endpoint, apiKey, model string, timeout time.Duration) *ChatClient {
	return &ChatClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		timeout:  timeout,
		client:   newHTTPClient(),
	}
}

// WithHTTPClient swaps the underlying HTTP client
func (c *ChatClient) WithHTTPClient(client *http.Client) *ChatClient {
	c.client = client
	return c
}

func (c *ChatClient) Name() string {
	return "gateway"
}

func (c *ChatClient) Configured() bool {
	return c.apiKey != ""
}

// Analyze makes exactly one upstream call. No retries.
func (c *ChatClient) Analyze(ctx context.Context, imageDataURI string) (string, error) {
	if !c.Configured() {
		return "", apperrors.NewConfigurationError(ErrMissingAPIKey)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(c.buildRequest(imageDataURI))
	if err != nil {
		return "", apperrors.NewInternalError("failed to encode upstream request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", apperrors.NewUpstreamFailureError(0, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", apperrors.NewUpstreamFailureError(0, fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxEnvelopeBytes))
	if err != nil {
		return "", apperrors.NewUpstreamFailureError(resp.StatusCode, fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.WithFields(logrus.Fields{
			"provider":        c.Name(),
			"upstream_status": resp.StatusCode,
			"upstream_body":   logger.Truncate(string(payload), upstreamLogLimit),
		}).Error("AI gateway error")
		return "", mapStatus(resp.StatusCode)
	}

	var envelope chatResponse
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return "", apperrors.NewUpstreamFailureError(resp.StatusCode, fmt.Errorf("failed to parse response: %w", err))
	}

	if len(envelope.Choices) == 0 {
		return "", apperrors.NewEmptyResponseError(fmt.Errorf("no choices in response"))
	}

	content, err := extractContent(envelope.Choices[0].Message.Content)
	if err != nil {
		return "", apperrors.NewUpstreamFailureError(resp.StatusCode, err)
	}
	if strings.TrimSpace(content) == "" {
		return "", apperrors.NewEmptyResponseError(fmt.Errorf("no content in response"))
	}

	return content, nil
}

func (c *ChatClient) buildRequest(imageDataURI string) chatRequest {
	return chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: prompt.System},
			{
				Role: "user",
				Content: []any{
					textPart{Type: "text", Text: prompt.User},
					imagePart{Type: "image_url", ImageURL: imageURL{URL: imageDataURI}},
				},
			},
		},
	}
}

func mapStatus(status int) error {
	cause := fmt.Errorf("upstream returned status: %d", status)
	switch status {
	case http.StatusTooManyRequests:
		return apperrors.NewRateLimitedError(cause)
	case http.StatusPaymentRequired:
		return apperrors.NewQuotaExhaustedError(cause)
	default:
		return apperrors.NewUpstreamFailureError(status, cause)
	}
}

// extractContent accepts a plain string or an array of content parts,
// concatenating the text parts in order.
func extractContent(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s, nil
	}

	var parts []textPart
	if err := json.Unmarshal(trimmed, &parts); err != nil {
		return "", fmt.Errorf("unsupported message content: %w", err)
	}

	var sb strings.Builder
	for _, part := range parts {
		if part.Type == "text" || part.Type == "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}
