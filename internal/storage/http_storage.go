package storage

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"time"

	apperrors "go-image-compressor/internal/errors"
)

const fetchAttempts = 3

// HTTPImageFetcher implements ImageFetcher with bounded retries
type HTTPImageFetcher struct {
	client  *http.Client
	backoff time.Duration
}

// NewHTTPImageFetcher creates an HTTP image fetcher. timeout bounds every
// attempt; non-positive values select 30s.
func NewHTTPImageFetcher(timeout time.Duration) *HTTPImageFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	// Connection pooling sized for one image per request
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		MaxResponseHeaderBytes: 4096,
	}

	return &HTTPImageFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,

			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		backoff: time.Second,
	}
}

// WithBackoff sets the base delay between attempts; attempt n waits n*d
func (h *HTTPImageFetcher) WithBackoff(d time.Duration) *HTTPImageFetcher {
	h.backoff = d
	return h
}

func (h *HTTPImageFetcher) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid URL", err)
	}

	req.Header.Set("Accept", "image/png, image/jpeg, image/gif, */*")
	req.Header.Set("User-Agent", "Go-Image-Compressor/1.0")

	// Only transient failures are retried
	var resp *http.Response
	var lastErr error
	var lastStatus int

	for attempt := 0; attempt < fetchAttempts; attempt++ {
		resp, err = h.client.Do(req)
		if err != nil {
			lastErr = err
			resp = nil
		} else if resp.StatusCode == http.StatusOK {
			break
		} else {
			lastStatus = resp.StatusCode
			resp.Body.Close()
			resp = nil

			if lastStatus >= 400 && lastStatus < 500 {
				lastErr = fmt.Errorf("client error: status code %d", lastStatus)
				break
			}
			lastErr = fmt.Errorf("server error: status code %d", lastStatus)
		}

		if ctx.Err() != nil {
			break
		}
		if attempt < fetchAttempts-1 {
			select {
			case <-ctx.Done():
			case <-time.After(time.Duration(attempt+1) * h.backoff):
			}
		}
	}

	if resp == nil {
		return nil, fetchError(ctx, lastStatus, lastErr)
	}
	defer resp.Body.Close()

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("failed to decode image", err)
	}
	return img, nil
}

func fetchError(ctx context.Context, status int, cause error) error {
	if cause == nil {
		cause = errors.New("unknown error")
	}
	var netErr interface{ Timeout() bool }
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded),
		errors.As(cause, &netErr) && netErr.Timeout():
		return apperrors.NewTimeoutError("image fetch timed out", cause)
	case status == http.StatusNotFound:
		return apperrors.NewNotFoundError("image not found", cause)
	}
	return apperrors.NewNetworkError(fmt.Sprintf("failed to fetch image after %d attempts", fetchAttempts), cause)
}
