package models

import (
	"math"
	"time"
)

// CompressionStats are the metrics of one run
type CompressionStats struct {
	Algorithm  string  `json:"algorithm"`
	Parameter  int     `json:"parameter"`
	Rows       int     `json:"rows"`
	Cols       int     `json:"cols"`
	Efficiency float64 `json:"efficiency"`
	Accuracy   float64 `json:"accuracy"`
	MSE        float64 `json:"mse"`

	// PSNR is omitted when the reconstruction is exact
	PSNR *float64 `json:"psnr_db,omitempty"`
}

// ChannelStats are the metrics of one reconstructed channel
type ChannelStats struct {
	Index      int     `json:"index"`
	Efficiency float64 `json:"efficiency"`
	Accuracy   float64 `json:"accuracy"`
}

// CompressResponse represents the response of a compression run
type CompressResponse struct {
	RunID             string           `json:"run_id"`
	ImageURL          string           `json:"image_url,omitempty"`
	Timestamp         time.Time        `json:"timestamp"`
	ProcessingTimeSec float64          `json:"processing_time_sec"`
	Stats             CompressionStats `json:"stats"`
	Channels          []ChannelStats   `json:"channels"`
	Location          string           `json:"location,omitempty"`
}

// ComponentResponse describes an isolated SVD term. Values holds the
// singular value of that term for each channel.
type ComponentResponse struct {
	RunID    string    `json:"run_id"`
	ImageURL string    `json:"image_url,omitempty"`
	Rank     int       `json:"rank"`
	Rows     int       `json:"rows"`
	Cols     int       `json:"cols"`
	Values   []float64 `json:"singular_values"`
	Location string    `json:"location,omitempty"`
}

// Finite returns a pointer to v, or nil when v is NaN or infinite
func Finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}
