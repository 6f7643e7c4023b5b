// Package llm provides internal representations of the generative language
// API requests and responses exchanged for each question.
package llm

import "fmt"

// ErrorResponse is the JSON error body returned by wellchat's own HTTP API.
type ErrorResponse struct {
	Error string `json:"error"`
}

// APIError is a non-2xx reply from the generation API.
type APIError struct {
	StatusCode int    `json:"code"`
	Status     string `json:"status"` // e.g. "INVALID_ARGUMENT"
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("generation API returned %d", e.StatusCode)
	}

	return fmt.Sprintf("generation API returned %d %s: %s", e.StatusCode, e.Status, e.Message)
}

// APIErrorEnvelope is the shape Google APIs use for error bodies.
type APIErrorEnvelope struct {
	Error *APIError `json:"error"`
}
