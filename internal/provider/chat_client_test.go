package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/SunnyMondal53778/pastport-history/internal/errors"
	"github.com/SunnyMondal53778/pastport-history/internal/prompt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testImage = "data:image/png;base64,iVBORw0KGgo="

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func envelope(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": content}}},
	})
	return string(b)
}

func TestChatClientSendsPromptAndImage(t *testing.T) {
	var got chatRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var raw struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string          `json:"role"`
				Content json.RawMessage `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		got.Model = raw.Model
		require.Len(t, raw.Messages, 2)

		var system string
		require.NoError(t, json.Unmarshal(raw.Messages[0].Content, &system))
		assert.Equal(t, "system", raw.Messages[0].Role)
		assert.Equal(t, prompt.System, system)

		var parts []map[string]any
		require.NoError(t, json.Unmarshal(raw.Messages[1].Content, &parts))
		require.Len(t, parts, 2)
		assert.Equal(t, "text", parts[0]["type"])
		assert.Equal(t, prompt.User, parts[0]["text"])
		assert.Equal(t, "image_url", parts[1]["type"])
		assert.Equal(t, testImage, parts[1]["image_url"].(map[string]any)["url"])

		_, _ = io.WriteString(w, envelope(`{"name":"x"}`))
	}))
	defer srv.Close()

	c := NewChatClient(srv.URL, "secret", "google/gemini-2.5-flash", time.Second)
	content, err := c.Analyze(context.Background(), testImage)

	require.NoError(t, err)
	assert.Equal(t, `{"name":"x"}`, content)
	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "google/gemini-2.5-flash", got.Model)
}

func TestChatClientStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		kind   apperrors.ErrorKind
		code   int
	}{
		{http.StatusTooManyRequests, apperrors.KindRateLimited, http.StatusTooManyRequests},
		{http.StatusPaymentRequired, apperrors.KindQuotaExhausted, http.StatusPaymentRequired},
		{http.StatusInternalServerError, apperrors.KindUpstreamFailure, http.StatusInternalServerError},
		{http.StatusBadRequest, apperrors.KindUpstreamFailure, http.StatusInternalServerError},
		{http.StatusUnauthorized, apperrors.KindUpstreamFailure, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv, calls := newTestServer(t, tt.status, `{"error":"nope"}`)
			c := NewChatClient(srv.URL, "key", "m", time.Second)

			_, err := c.Analyze(context.Background(), testImage)

			require.Error(t, err)
			assert.Equal(t, tt.kind, apperrors.KindOf(err))
			assert.Equal(t, tt.code, apperrors.GetStatusCode(err))
			assert.Equal(t, int32(1), atomic.LoadInt32(calls))

			appErr, _ := apperrors.As(err)
			assert.Equal(t, tt.status, appErr.UpstreamStatus)
		})
	}
}

func TestChatClientEmptyContent(t *testing.T) {
	bodies := map[string]string{
		"no choices":  `{"choices":[]}`,
		"null":        `{"choices":[{"message":{"content":null}}]}`,
		"blank":       envelope("   \n"),
		"missing":     `{"choices":[{"message":{}}]}`,
		"empty parts": `{"choices":[{"message":{"content":[]}}]}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv, _ := newTestServer(t, http.StatusOK, body)
			c := NewChatClient(srv.URL, "key", "m", time.Second)

			_, err := c.Analyze(context.Background(), testImage)
			assert.Equal(t, apperrors.KindEmptyResponse, apperrors.KindOf(err))
		})
	}
}

func TestChatClientContentParts(t *testing.T) {
	body := `{"choices":[{"message":{"content":[{"type":"text","text":"{\"name\":"},{"type":"text","text":"\"Colosseum\"}"}]}}]}`
	srv, _ := newTestServer(t, http.StatusOK, body)
	c := NewChatClient(srv.URL, "key", "m", time.Second)

	content, err := c.Analyze(context.Background(), testImage)

	require.NoError(t, err)
	assert.Equal(t, `{"name":"Colosseum"}`, content)
}

func TestChatClientUndecodableEnvelope(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, "<html>gateway</html>")
	c := NewChatClient(srv.URL, "key", "m", time.Second)

	_, err := c.Analyze(context.Background(), testImage)
	assert.Equal(t, apperrors.KindUpstreamFailure, apperrors.KindOf(err))
}

func TestChatClientMissingKey(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK, envelope("{}"))
	c := NewChatClient(srv.URL, "", "m", time.Second)

	assert.False(t, c.Configured())
	_, err := c.Analyze(context.Background(), testImage)

	assert.Equal(t, apperrors.KindConfiguration, apperrors.KindOf(err))
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Zero(t, atomic.LoadInt32(calls))
}

func TestChatClientTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewChatClient(srv.URL, "key", "m", 50*time.Millisecond)
	_, err := c.Analyze(context.Background(), testImage)

	assert.Equal(t, apperrors.KindUpstreamFailure, apperrors.KindOf(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestChatClientCallerCancellation(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	c := NewChatClient(srv.URL, "key", "m", time.Minute)
	_, err := c.Analyze(ctx, testImage)

	assert.Equal(t, apperrors.KindUpstreamFailure, apperrors.KindOf(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStubClientIsDeterministic(t *testing.T) {
	c := NewStubClient()
	assert.True(t, c.Configured())

	a, err := c.Analyze(context.Background(), testImage)
	require.NoError(t, err)
	b, err := c.Analyze(context.Background(), testImage)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "```json"))
}
