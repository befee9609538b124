package models

// CompressRequest asks for one compression run over an image fetched by URL.
// Unset fields fall back to the server defaults.
type CompressRequest struct {
	URL       string `json:"url" binding:"required"`
	Algorithm string `json:"algorithm,omitempty"`
	Parameter *int   `json:"parameter,omitempty"`

	// DCT-only options
	Retention string `json:"retention,omitempty"`
	Remainder string `json:"remainder,omitempty"`

	// Store writes the reconstruction to the configured image store
	Store bool `json:"store,omitempty"`
}

// ComponentRequest asks for a single rank-one SVD term of an image
type ComponentRequest struct {
	URL   string `json:"url" binding:"required"`
	Rank  int    `json:"rank"`
	Store bool   `json:"store,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
	Version   string `json:"version"`
}
