package conversation

import "context"

// Generator maps a question to an answer. Implementations must honor ctx
// cancellation.
type Generator interface {
	Generate(ctx context.Context, question string) (string, error)
}

// GeneratorFunc adapts a function to a Generator.
type GeneratorFunc func(ctx context.Context, question string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, question string) (string, error) {
	return f(ctx, question)
}
