package conversation

// Role says who a Turn belongs to.
type Role string

const (
	RoleQuestion Role = "question"
	RoleAnswer   Role = "answer"
)

const (
	// PendingContent is the placeholder text of an Answer awaiting its result.
	PendingContent = "Loading..."

	// FailureContent replaces the placeholder when generation fails for any reason.
	FailureContent = "Error generating response. Please try again."
)

// Turn is one Question or Answer in a conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Pending bool   `json:"pending,omitempty"` // true only for the placeholder Answer
}

func questionTurn(text string) Turn {
	return Turn{Role: RoleQuestion, Content: text}
}

func pendingAnswer() Turn {
	return Turn{Role: RoleAnswer, Content: PendingContent, Pending: true}
}

func answerTurn(text string) Turn {
	return Turn{Role: RoleAnswer, Content: text}
}
