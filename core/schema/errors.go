package schema

// APIError is the transport-level error body.
type APIError struct {
	Code    any    `json:"code,omitempty"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

type ErrorResponse struct {
	Error *APIError `json:"error,omitempty"`
}

// SchedulersResponse lists the scheduler names a request may use.
type SchedulersResponse struct {
	Default    string   `json:"default"`
	Schedulers []string `json:"schedulers"`
}

// HealthResponse reports the diffusion runtime state.
type HealthResponse struct {
	Status    string            `json:"status"`
	Model     string            `json:"model"`
	Scheduler string            `json:"scheduler,omitempty"`
	Memory    map[string]uint64 `json:"memory,omitempty"`
}
