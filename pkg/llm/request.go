package llm

// GenerateContentRequest is the body of a models/{model}:generateContent call.
type GenerateContentRequest struct {
	Contents []Content `json:"contents"` // Single user content: no history is sent

	// Generation options
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// NewQuestionRequest builds a single-shot request holding only the question text.
func NewQuestionRequest(question string, config *GenerationConfig) *GenerateContentRequest {
	req := &GenerateContentRequest{
		Contents: []Content{TextContent(question)},
	}
	if !config.IsZero() {
		req.GenerationConfig = config
	}
	return req
}
