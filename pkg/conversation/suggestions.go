package conversation

// DefaultSuggestions are offered while a conversation is still empty.
var DefaultSuggestions = []string{
	"What should I look for when evaluating my mental health?",
	"Is it better to manage stress on my own or seek professional help?",
	"How do I know if I am making real progress in my mental health journey?",
	"What are the key differences between therapy, medication, and lifestyle changes?",
	"What are the necessary steps to prioritize and maintain good mental health?",
}
