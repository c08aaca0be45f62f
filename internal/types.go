package internal

import "time"

// TranslationRequest is the body of POST /translate.
type TranslationRequest struct {
	Text string `json:"text"`
}

// TranslationResponse is returned by POST /translate on success.
type TranslationResponse struct {
	Translation string `json:"translation"`
}

// HealthResponse is returned by GET /.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ErrorResponse carries every non-2xx answer of the service.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// RequestRecord is one served translation as kept in the request log.
type RequestRecord struct {
	ID          string    `json:"id"`
	SourceText  string    `json:"source_text"`
	Translation string    `json:"translation"`
	Model       string    `json:"model"`
	CacheHit    bool      `json:"cache_hit"`
	LatencyMs   int       `json:"latency_ms"`
	Error       string    `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
