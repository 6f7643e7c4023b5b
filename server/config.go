package server

// Config is the chat server configuration.
type Config struct {
	// Address to listen on (e.g., ":8080")
	ListenAddr string

	// Suggestions offered by new sessions. Nil means the conversation defaults.
	Suggestions []string
}
