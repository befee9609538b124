package transport

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"strconv"
	"time"

	"go-image-compressor/internal/config"
	apperrors "go-image-compressor/internal/errors"
	"go-image-compressor/internal/logger"
	"go-image-compressor/internal/preview"
	"go-image-compressor/internal/service"
	"go-image-compressor/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Response headers of the image endpoints
const (
	HeaderRunID      = "X-Compression-Run-Id"
	HeaderAlgorithm  = "X-Compression-Algorithm"
	HeaderParameter  = "X-Compression-Parameter"
	HeaderEfficiency = "X-Compression-Efficiency"
	HeaderAccuracy   = "X-Compression-Accuracy"
	HeaderMSE        = "X-Compression-Mse"
	HeaderPSNR       = "X-Compression-Psnr"
)

// NewHandler builds the HTTP surface. metrics serves /metrics when non-nil.
func NewHandler(svc service.CompressionService, cfg *config.Config, metrics http.Handler) http.Handler {
	r := gin.New()

	// Add middleware
	r.Use(
		gin.Recovery(),
		requestLogger(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck)
	r.POST("/compress", compressImage(svc, cfg))
	r.POST("/compress/image", compressImageBinary(svc, cfg))
	r.POST("/component", isolateComponent(svc, cfg))
	r.POST("/component/image", isolateComponentBinary(svc, cfg))
	r.GET("/results/:id", getResult(svc))
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	return r
}

func compressImage(svc service.CompressionService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, ok := runCompression(c, svc, cfg)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, out.Response)
	}
}

func compressImageBinary(svc service.CompressionService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, ok := runCompression(c, svc, cfg)
		if !ok {
			return
		}

		stats := out.Response.Stats
		c.Header(HeaderRunID, out.Response.RunID)
		c.Header(HeaderAlgorithm, stats.Algorithm)
		c.Header(HeaderParameter, strconv.Itoa(stats.Parameter))
		c.Header(HeaderEfficiency, formatFloat(stats.Efficiency))
		c.Header(HeaderAccuracy, formatFloat(stats.Accuracy))
		c.Header(HeaderMSE, formatFloat(stats.MSE))
		if stats.PSNR != nil {
			c.Header(HeaderPSNR, formatFloat(*stats.PSNR))
		}
		respondPNG(c, out.Image)
	}
}

func runCompression(c *gin.Context, svc service.CompressionService, cfg *config.Config) (*service.CompressionOutcome, bool) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
	defer cancel()

	var req models.CompressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request format", err)
		return nil, false
	}

	out, err := svc.Compress(ctx, req)
	if err != nil {
		respondError(c, determineStatusCode(err), "compression failed", err)
		return nil, false
	}

	stats := out.Response.Stats
	logger.WithRun(out.Response.RunID, stats.Algorithm, stats.Parameter).WithFields(logrus.Fields{
		"url":        req.URL,
		"dims":       strconv.Itoa(stats.Rows) + "x" + strconv.Itoa(stats.Cols),
		"efficiency": stats.Efficiency,
		"accuracy":   stats.Accuracy,
		"elapsed_ms": int64(out.Response.ProcessingTimeSec * 1000),
	}).Info("Image compression completed successfully")
	return out, true
}

func isolateComponent(svc service.CompressionService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, ok := runIsolation(c, svc, cfg)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, out.Response)
	}
}

func isolateComponentBinary(svc service.CompressionService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, ok := runIsolation(c, svc, cfg)
		if !ok {
			return
		}
		c.Header(HeaderRunID, out.Response.RunID)
		c.Header(HeaderAlgorithm, "svd")
		c.Header(HeaderParameter, strconv.Itoa(out.Response.Rank))
		respondPNG(c, out.Image)
	}
}

func runIsolation(c *gin.Context, svc service.CompressionService, cfg *config.Config) (*service.ComponentOutcome, bool) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
	defer cancel()

	var req models.ComponentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request format", err)
		return nil, false
	}

	out, err := svc.IsolateComponent(ctx, req)
	if err != nil {
		respondError(c, determineStatusCode(err), "component isolation failed", err)
		return nil, false
	}
	return out, true
}

func getResult(svc service.CompressionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := svc.GetResult(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, determineStatusCode(err), "result lookup failed", err)
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "available",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Service:   "image-compressor",
		Version:   Version,
	})
}

// Middleware and helper functions
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
		}).Debug("Request handled")
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err.Err), "request processing failed", err.Err)
		}
	}
}

func determineStatusCode(err error) int {
	// Context errors take precedence, they may be wrapped by app errors
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}

	return apperrors.GetStatusCode(err)
}

func respondError(c *gin.Context, code int, message string, err error) {
	// Log the error with context
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	resp := models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: message + ": " + err.Error(),
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		resp.Message = message + ": " + appErr.Message
		resp.Details = appErr.Details
		if appErr.Cause != nil && resp.Details == "" {
			resp.Details = appErr.Cause.Error()
		}
	}
	c.AbortWithStatusJSON(code, resp)
}

// respondPNG writes img as PNG; preview=true enlarges tiny images
func respondPNG(c *gin.Context, img image.Image) {
	if c.Query("preview") == "true" {
		img = preview.ForDisplay(img)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to encode image", err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
