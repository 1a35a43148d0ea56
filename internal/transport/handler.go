package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/SunnyMondal53778/pastport-history/internal/config"
	apperrors "github.com/SunnyMondal53778/pastport-history/internal/errors"
	"github.com/SunnyMondal53778/pastport-history/internal/logger"
	"github.com/SunnyMondal53778/pastport-history/internal/service"
	"github.com/SunnyMondal53778/pastport-history/pkg/models"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// ErrorCodeHeader carries the error kind of a failed request
const ErrorCodeHeader = "X-Error-Code"

const metricsPath = "/metrics"

func NewHandler(svc service.MonumentService, cfg *config.Config) http.Handler {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(
		requestID(),
		cors(),
		requestLogger(),
		// promhttp compresses its own output
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{metricsPath})),
		gin.CustomRecovery(recoverPanic),
		requestSizeLimiter(cfg.MaxRequestBodySize),
	)

	r.GET("/health", healthCheck(svc))
	r.GET(metricsPath, gin.WrapH(promhttp.Handler()))

	analyze := analyzeMonument(svc, cfg)
	r.POST("/analyze-monument", analyze)
	r.POST("/functions/v1/analyze-monument", analyze)

	r.NoRoute(func(c *gin.Context) {
		respondError(c, apperrors.NewRouteError(http.StatusNotFound, apperrors.MsgNotFound))
	})
	r.NoMethod(func(c *gin.Context) {
		respondError(c, apperrors.NewRouteError(http.StatusMethodNotAllowed, apperrors.MsgMethodNotAllowed))
	})

	return r
}

func analyzeMonument(svc service.MonumentService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()
		ctx = service.WithRequestID(ctx, c.GetString(requestIDKey))

		req, err := decodeRequest(c.Request.Body)
		if err != nil {
			respondError(c, err)
			return
		}

		record, err := svc.AnalyzeMonument(ctx, req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.AnalysisResponse{Monument: record})
	}
}

// decodeRequest reads the whole body so an oversized upload is reported as
// such rather than as broken JSON.
func decodeRequest(body io.Reader) (models.AnalysisRequest, error) {
	var req models.AnalysisRequest

	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, apperrors.NewPayloadTooLargeError(err)
		}
		return req, apperrors.NewClientInputError(apperrors.MsgInvalidBody, err)
	}

	if err := json.Unmarshal(data, &req); err != nil {
		return req, apperrors.NewClientInputError(apperrors.MsgInvalidBody, err)
	}
	return req, nil
}

func healthCheck(svc service.MonumentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "available"
		if !svc.Ready() {
			status = "unconfigured"
		}
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  status,
			Version: Version,
			Time:    time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func respondError(c *gin.Context, err error) {
	code := apperrors.GetStatusCode(err)
	kind := apperrors.KindOf(err)

	entry := logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"error_kind":  kind,
		"request_id":  c.GetString(requestIDKey),
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	})
	if appErr, ok := apperrors.As(err); ok {
		entry = entry.WithField("provider_error", appErr.IsProviderError())
	}
	if code < http.StatusInternalServerError {
		entry.Warn("Request failed")
	} else {
		entry.Error("Request failed")
	}

	c.Header(ErrorCodeHeader, string(kind))
	c.AbortWithStatusJSON(code, models.ErrorResponse{Error: apperrors.ClientMessage(err)})
}

func recoverPanic(c *gin.Context, recovered any) {
	logger.WithFields(logrus.Fields{
		"panic":      recovered,
		"request_id": c.GetString(requestIDKey),
		"path":       c.Request.URL.Path,
	}).Error("Recovered from panic")

	c.Header(ErrorCodeHeader, string(apperrors.KindInternal))
	c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{Error: apperrors.MsgInternal})
}
