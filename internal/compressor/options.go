package compressor

import (
	"strings"

	"go-image-compressor/internal/channel"
	apperrors "go-image-compressor/internal/errors"
	"go-image-compressor/internal/strategy"
)

// Algorithm selects a compression technique
type Algorithm string

const (
	// AlgorithmSVD is low-rank approximation by singular value decomposition
	AlgorithmSVD Algorithm = "svd"
	// AlgorithmDCT is block-wise cosine transform coefficient truncation
	AlgorithmDCT Algorithm = "dct"
)

// ParseAlgorithm resolves an algorithm name, case-insensitively
func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(name))) {
	case AlgorithmSVD:
		return AlgorithmSVD, nil
	case AlgorithmDCT:
		return AlgorithmDCT, nil
	default:
		return "", apperrors.NewInvalidParameterError("unsupported algorithm", nil).
			WithDetails("%q, want svd or dct", name)
	}
}

// RemainderPolicy controls rows and columns beyond the largest multiple of
// the DCT block size.
type RemainderPolicy string

const (
	// RemainderPassThrough copies remainder samples from the input unchanged
	RemainderPassThrough RemainderPolicy = "passthrough"
	// RemainderZero sets remainder samples to zero
	RemainderZero RemainderPolicy = "zero"
	// RemainderReject fails with an invalid input error unless both
	// dimensions are multiples of the block size
	RemainderReject RemainderPolicy = "reject"
)

// ParseRemainderPolicy resolves a policy name. The empty name selects passthrough.
func ParseRemainderPolicy(name string) (RemainderPolicy, error) {
	switch RemainderPolicy(strings.ToLower(strings.TrimSpace(name))) {
	case "", RemainderPassThrough:
		return RemainderPassThrough, nil
	case RemainderZero:
		return RemainderZero, nil
	case RemainderReject:
		return RemainderReject, nil
	default:
		return "", apperrors.NewInvalidParameterError("unsupported remainder policy", nil).
			WithDetails("%q, want passthrough, zero or reject", name)
	}
}

// Config selects the compressor and its fidelity parameter for one run
type Config struct {
	Algorithm Algorithm `json:"algorithm"`

	// Parameter is the SVD rank (0-indexed) or the DCT kValue
	Parameter int `json:"parameter"`

	// DCT-only options
	Retention string          `json:"retention,omitempty"`
	Remainder RemainderPolicy `json:"remainder,omitempty"`

	// ChannelCount must be 3; zero means 3
	ChannelCount int `json:"channel_count,omitempty"`
}

// DefaultConfig returns DCT with ten zigzag coefficients per block
func DefaultConfig() Config {
	return Config{
		Algorithm:    AlgorithmDCT,
		Parameter:    10,
		Retention:    strategy.ZigzagName,
		Remainder:    RemainderPassThrough,
		ChannelCount: channel.Count,
	}
}

// SVDConfig returns a config for an SVD approximation of the given rank
func SVDConfig(rank int) Config {
	cfg := DefaultConfig()
	cfg.Algorithm = AlgorithmSVD
	cfg.Parameter = rank
	return cfg
}

// DCTConfig returns a config retaining kValue zigzag coefficients per block
func DCTConfig(kValue int) Config {
	cfg := DefaultConfig()
	cfg.Parameter = kValue
	return cfg
}

// WithRetention selects the DCT retention strategy by name
func (c Config) WithRetention(name string) Config {
	c.Retention = name
	return c
}

// WithRemainder selects the DCT remainder policy
func (c Config) WithRemainder(policy RemainderPolicy) Config {
	c.Remainder = policy
	return c
}

// validateShape checks the fixed channel count
func (c Config) validateShape() error {
	if c.ChannelCount != 0 && c.ChannelCount != channel.Count {
		return apperrors.NewInvalidParameterError("unsupported channel count", nil).
			WithDetails("got %d, want %d", c.ChannelCount, channel.Count)
	}
	return nil
}

// ForConfig builds the compressor a config selects. pool may be nil, in
// which case DCT blocks are processed on the calling goroutine.
func ForConfig(cfg Config, pool *WorkerPool) (Compressor, error) {
	if err := cfg.validateShape(); err != nil {
		return nil, err
	}
	alg, err := ParseAlgorithm(string(cfg.Algorithm))
	if err != nil {
		return nil, err
	}
	switch alg {
	case AlgorithmSVD:
		return NewSVDCompressor(), nil
	default:
		retention, err := strategy.ParseRetention(cfg.Retention)
		if err != nil {
			return nil, err
		}
		remainder, err := ParseRemainderPolicy(string(cfg.Remainder))
		if err != nil {
			return nil, err
		}
		return NewDCTCompressor(retention, remainder, pool), nil
	}
}
