package dto

// GenerationRequest is the body of POST /generate-landing-page.
type GenerationRequest struct {
	Prompt string `json:"prompt" yaml:"prompt" required:"true"` // free-text description of the page (required, non-blank)
}

// GenerationResult is returned by the relay on success.
type GenerationResult struct {
	HTMLContent string `json:"html_content" yaml:"html_content"` // generated markup, possibly empty
}

// ErrorResponse is returned by the relay for every failure.
type ErrorResponse struct {
	Detail string `json:"detail" yaml:"detail"` // human-readable description of the failure
	Kind   string `json:"kind" yaml:"kind"`     // failure kind (invalid_request, upstream_transport, upstream_contract, decode, unexpected)
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status string `json:"status" yaml:"status"`
}
