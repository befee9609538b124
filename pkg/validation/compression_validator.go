package validation

import (
	"go-image-compressor/internal/compressor"
	apperrors "go-image-compressor/internal/errors"
	"go-image-compressor/internal/strategy"
	"go-image-compressor/pkg/models"
)

// CompressionValidator checks compression requests before any image is
// fetched. Rank bounds depend on the image and are checked by the pipeline.
type CompressionValidator struct {
	urls             *URLValidator
	defaultAlgorithm compressor.Algorithm
}

// NewCompressionValidator creates a validator; a nil URL validator uses the defaults
func NewCompressionValidator(urls *URLValidator) *CompressionValidator {
	if urls == nil {
		urls = NewURLValidator()
	}
	return &CompressionValidator{urls: urls, defaultAlgorithm: compressor.AlgorithmDCT}
}

// WithDefaultAlgorithm sets the algorithm assumed for requests that name none
func (v *CompressionValidator) WithDefaultAlgorithm(alg compressor.Algorithm) *CompressionValidator {
	v.defaultAlgorithm = alg
	return v
}

// ValidateCompressRequest validates the URL and every compression option present
func (v *CompressionValidator) ValidateCompressRequest(req *models.CompressRequest) error {
	if req == nil {
		return apperrors.NewValidationError("request body is required", nil)
	}
	if err := v.urls.ValidateImageURL(req.URL); err != nil {
		return err
	}

	alg := v.defaultAlgorithm
	if req.Algorithm != "" {
		parsed, err := compressor.ParseAlgorithm(req.Algorithm)
		if err != nil {
			return err
		}
		alg = parsed
	}

	if req.Parameter != nil {
		p := *req.Parameter
		if p < 0 {
			return apperrors.NewInvalidParameterError("parameter must be non-negative", nil).
				WithDetails("got %d", p)
		}
		if alg == compressor.AlgorithmDCT && p > compressor.MaxKValue {
			return apperrors.NewInvalidParameterError("kValue out of range", nil).
				WithDetails("got %d, want 0..%d", p, compressor.MaxKValue)
		}
	}

	if alg == compressor.AlgorithmSVD && (req.Retention != "" || req.Remainder != "") {
		return apperrors.NewInvalidParameterError("retention and remainder apply to dct only", nil)
	}
	if _, err := strategy.ParseRetention(req.Retention); err != nil {
		return err
	}
	if _, err := compressor.ParseRemainderPolicy(req.Remainder); err != nil {
		return err
	}
	return nil
}

// ValidateComponentRequest validates an SVD component request
func (v *CompressionValidator) ValidateComponentRequest(req *models.ComponentRequest) error {
	if req == nil {
		return apperrors.NewValidationError("request body is required", nil)
	}
	if err := v.urls.ValidateImageURL(req.URL); err != nil {
		return err
	}
	if req.Rank < 0 {
		return apperrors.NewInvalidParameterError("rank must be non-negative", nil).
			WithDetails("got %d", req.Rank)
	}
	return nil
}
