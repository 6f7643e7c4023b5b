package llm

// Role values used by the generateContent API.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Content is one message of a generateContent exchange.
type Content struct {
	Role  string `json:"role,omitempty"` // "user" or "model"; the API infers "user" when empty
	Parts []Part `json:"parts"`
}

// Part is a single piece of a Content. Only text parts are used; Text is nil
// for other kinds (function calls, inline data) and for an explicit null.
type Part struct {
	Text *string `json:"text,omitempty"`
}

// TextPart returns a Part holding text.
func TextPart(text string) Part {
	return Part{Text: &text}
}

// TextContent wraps text in a single-part Content.
func TextContent(text string) Content {
	return Content{Parts: []Part{TextPart(text)}}
}
