package llm

import "errors"

// ErrNoCandidates is returned when a response has no text at
// candidates[0].content.parts[0].text.
var ErrNoCandidates = errors.New("response has no candidate text")

// GenerateContentResponse is the body returned by generateContent.
type GenerateContentResponse struct {
	Candidates    []Candidate    `json:"candidates"`
	UsageMetadata *UsageMetadata `json:"usageMetadata,omitempty"`
	ModelVersion  string         `json:"modelVersion,omitempty"`
}

// Candidate is one generated alternative.
type Candidate struct {
	Content      *Content `json:"content,omitempty"`
	FinishReason string   `json:"finishReason,omitempty"` // "STOP", "MAX_TOKENS", "SAFETY", ...
	Index        int      `json:"index"`
}

// UsageMetadata reports token counts for a call.
type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount,omitempty"`     // Tokens in prompt
	CandidatesTokenCount int `json:"candidatesTokenCount,omitempty"` // Generated tokens
	TotalTokenCount      int `json:"totalTokenCount,omitempty"`
}

// Text returns the text of the first part of the first candidate.
func (r *GenerateContentResponse) Text() (string, error) {
	if r == nil || len(r.Candidates) == 0 {
		return "", ErrNoCandidates
	}
	content := r.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 || content.Parts[0].Text == nil {
		return "", ErrNoCandidates
	}
	return *content.Parts[0].Text, nil
}
