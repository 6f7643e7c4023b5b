package gemini

import (
	"time"

	"github.com/papercomputeco/wellchat/pkg/llm"
)

const (
	// DefaultBaseURL is the public generative language API endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	// DefaultModel is the model questions are sent to.
	DefaultModel = "gemini-1.5-flash-latest"

	// DefaultTimeout bounds a single generateContent call.
	DefaultTimeout = 5 * time.Minute
)

// Config is the generation client configuration.
type Config struct {
	// BaseURL of the API (e.g., "https://generativelanguage.googleapis.com")
	BaseURL string

	// Model name (e.g., "gemini-1.5-flash-latest")
	Model string

	// APIKey is sent in the x-goog-api-key header. Required.
	APIKey string

	// Timeout for one call. Zero means DefaultTimeout.
	Timeout time.Duration

	// GenerationConfig is optional and only sent when some field is set.
	GenerationConfig *llm.GenerationConfig
}
