package models

// ErrorResponse is the uniform error body returned by every handler.
// swagger:model
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
