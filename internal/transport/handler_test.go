package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-image-compressor/internal/config"
	apperrors "go-image-compressor/internal/errors"
	"go-image-compressor/internal/repository"
	"go-image-compressor/internal/service"
	"go-image-compressor/pkg/models"

	"github.com/gin-gonic/gin"
)

type stubService struct {
	compress  func(context.Context, models.CompressRequest) (*service.CompressionOutcome, error)
	component func(context.Context, models.ComponentRequest) (*service.ComponentOutcome, error)
	results   map[string]*repository.ResultRecord
}

func (s *stubService) Compress(ctx context.Context, req models.CompressRequest) (*service.CompressionOutcome, error) {
	return s.compress(ctx, req)
}

func (s *stubService) IsolateComponent(ctx context.Context, req models.ComponentRequest) (*service.ComponentOutcome, error) {
	return s.component(ctx, req)
}

func (s *stubService) GetResult(_ context.Context, runID string) (*repository.ResultRecord, error) {
	if rec, ok := s.results[runID]; ok {
		return rec, nil
	}
	return nil, apperrors.NewNotFoundError("result not found", repository.ErrResultNotFound)
}

func (s *stubService) ValidateImageURL(string) error {
	return nil
}

func grayImage(size int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 16), B: 40, A: 255})
		}
	}
	return img
}

func successfulCompress(ctx context.Context, req models.CompressRequest) (*service.CompressionOutcome, error) {
	psnr := 31.5
	return &service.CompressionOutcome{
		Response: &models.CompressResponse{
			RunID:     "run-1",
			ImageURL:  req.URL,
			Timestamp: time.Now(),
			Stats: models.CompressionStats{
				Algorithm:  "dct",
				Parameter:  10,
				Rows:       8,
				Cols:       8,
				Efficiency: 15.625,
				Accuracy:   48.4375,
				MSE:        46.25,
				PSNR:       &psnr,
			},
		},
		Image: grayImage(8),
	}, nil
}

func testHandler(svc service.CompressionService) http.Handler {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		RequestTimeout:     2 * time.Second,
		MaxRequestBodySize: 1024,
	}
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "image_compressor_runs_total 1\n")
	})
	return NewHandler(svc, cfg, metrics)
}

func post(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	h := testHandler(&stubService{})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp models.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != "available" || resp.Version != Version {
		t.Errorf("Unexpected health response: %+v", resp)
	}
}

func TestCompressImage(t *testing.T) {
	var got models.CompressRequest
	svc := &stubService{compress: func(ctx context.Context, req models.CompressRequest) (*service.CompressionOutcome, error) {
		got = req
		if _, ok := ctx.Deadline(); !ok {
			t.Error("Expected request context to carry a deadline")
		}
		return successfulCompress(ctx, req)
	}}
	h := testHandler(svc)

	w := post(h, "/compress", `{"url":"https://example.com/a.png","algorithm":"dct","parameter":10,"retention":"antidiagonal"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if got.Parameter == nil || *got.Parameter != 10 || got.Retention != "antidiagonal" {
		t.Errorf("Request not forwarded intact: %+v", got)
	}

	var resp models.CompressResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.RunID != "run-1" || resp.Stats.Efficiency != 15.625 {
		t.Errorf("Unexpected response: %+v", resp)
	}
}

func TestCompressImageBinary(t *testing.T) {
	h := testHandler(&stubService{compress: successfulCompress})

	tests := []struct {
		name  string
		path  string
		width int
	}{
		{"raw", "/compress/image", 8},
		{"preview", "/compress/image?preview=true", 512},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(h, tt.path, `{"url":"https://example.com/a.png"}`)
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
			}
			if ct := w.Header().Get("Content-Type"); ct != "image/png" {
				t.Errorf("Expected image/png, got %q", ct)
			}
			headers := map[string]string{
				HeaderRunID:      "run-1",
				HeaderAlgorithm:  "dct",
				HeaderParameter:  "10",
				HeaderEfficiency: "15.625",
				HeaderPSNR:       "31.5",
			}
			for k, v := range headers {
				if got := w.Header().Get(k); got != v {
					t.Errorf("Header %s = %q, expected %q", k, got, v)
				}
			}

			img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
			if err != nil {
				t.Fatalf("Body is not a PNG: %v", err)
			}
			if img.Bounds().Dx() != tt.width {
				t.Errorf("Expected width %d, got %d", tt.width, img.Bounds().Dx())
			}
		})
	}
}

func TestCompressImage_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"malformed json", `{"url":`, nil, http.StatusBadRequest},
		{"missing url", `{"algorithm":"svd"}`, nil, http.StatusBadRequest},
		{"oversized body", `{"url":"` + strings.Repeat("a", 2048) + `"}`, nil, http.StatusBadRequest},
		{"invalid parameter", `{"url":"https://example.com/a.png"}`, apperrors.NewInvalidParameterError("rank out of range", nil), http.StatusBadRequest},
		{"dimension mismatch", `{"url":"https://example.com/a.png"}`, apperrors.NewDimensionMismatchError("channel shapes differ", nil), http.StatusUnprocessableEntity},
		{"not found", `{"url":"https://example.com/a.png"}`, apperrors.NewNotFoundError("image not found", nil), http.StatusNotFound},
		{"network", `{"url":"https://example.com/a.png"}`, apperrors.NewNetworkError("fetch failed", nil), http.StatusBadGateway},
		{"deadline", `{"url":"https://example.com/a.png"}`, fmt.Errorf("fetch: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"unexpected", `{"url":"https://example.com/a.png"}`, fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			svc := &stubService{compress: func(context.Context, models.CompressRequest) (*service.CompressionOutcome, error) {
				called = true
				return nil, tt.err
			}}
			w := post(testHandler(svc), "/compress", tt.body)

			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			if tt.err == nil && called {
				t.Error("Service should not be called for a rejected request")
			}

			var resp models.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if resp.Error != http.StatusText(tt.status) {
				t.Errorf("Expected error %q, got %q", http.StatusText(tt.status), resp.Error)
			}
		})
	}
}

func TestErrorResponse_Details(t *testing.T) {
	svc := &stubService{compress: func(context.Context, models.CompressRequest) (*service.CompressionOutcome, error) {
		return nil, apperrors.NewInvalidParameterError("rank out of range", nil).WithDetails("rank %d exceeds %d", 9, 7)
	}}
	w := post(testHandler(svc), "/compress", `{"url":"https://example.com/a.png"}`)

	var resp models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if resp.Message != "compression failed: rank out of range" {
		t.Errorf("Unexpected message %q", resp.Message)
	}
	if resp.Details != "rank 9 exceeds 7" {
		t.Errorf("Unexpected details %q", resp.Details)
	}
}

func TestIsolateComponent(t *testing.T) {
	svc := &stubService{component: func(_ context.Context, req models.ComponentRequest) (*service.ComponentOutcome, error) {
		if req.Rank == 9 {
			return nil, apperrors.NewInvalidParameterError("rank out of range", nil)
		}
		return &service.ComponentOutcome{
			Response: &models.ComponentResponse{RunID: "run-2", Rank: req.Rank, Rows: 8, Cols: 8, Values: []float64{3, 2, 1}},
			Image:    grayImage(8),
		}, nil
	}}
	h := testHandler(svc)

	w := post(h, "/component", `{"url":"https://example.com/a.png","rank":1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp models.ComponentResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Rank != 1 || len(resp.Values) != 3 {
		t.Errorf("Unexpected response: %+v", resp)
	}

	w = post(h, "/component/image", `{"url":"https://example.com/a.png","rank":1}`)
	if w.Code != http.StatusOK || w.Header().Get(HeaderParameter) != "1" {
		t.Errorf("Unexpected image response: %d %v", w.Code, w.Header())
	}

	w = post(h, "/component", `{"url":"https://example.com/a.png","rank":9}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestGetResult(t *testing.T) {
	svc := &stubService{results: map[string]*repository.ResultRecord{
		"run-1": {RunID: "run-1", ImageURL: "https://example.com/a.png", Stats: models.CompressionStats{Algorithm: "svd", Parameter: 2}},
	}}
	h := testHandler(svc)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/results/run-1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var rec repository.ResultRecord
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("Failed to decode record: %v", err)
	}
	if rec.Stats.Parameter != 2 {
		t.Errorf("Unexpected record: %+v", rec)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/results/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	w := httptest.NewRecorder()
	testHandler(&stubService{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "image_compressor_runs_total") {
		t.Errorf("Unexpected metrics response: %d %s", w.Code, w.Body.String())
	}
}

func TestDetermineStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperrors.NewValidationError("bad", nil), http.StatusBadRequest},
		{apperrors.NewTimeoutError("slow", nil), http.StatusGatewayTimeout},
		{apperrors.NewNetworkError("fetch failed", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{context.Canceled, http.StatusRequestTimeout},
		{fmt.Errorf("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := determineStatusCode(tt.err); got != tt.want {
			t.Errorf("determineStatusCode(%v) = %d, expected %d", tt.err, got, tt.want)
		}
	}
}
