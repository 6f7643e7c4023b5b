package conversation

import "context"

// Reply is the pending result of one Submit. It resolves once the placeholder
// Answer has been replaced, either by the generated text or by FailureContent.
type Reply struct {
	question string
	index    int
	cancel   context.CancelFunc
	done     chan struct{}
	answer   Turn
}

func newReply(question string, index int, cancel context.CancelFunc) *Reply {
	return &Reply{
		question: question,
		index:    index,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Question returns the submitted text.
func (r *Reply) Question() string {
	return r.question
}

// Done is closed when the Reply has settled.
func (r *Reply) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the Reply settles and returns the final Answer. The only
// error is ctx's, when it ends first; generation failures are reported as
// FailureContent in the returned Turn.
func (r *Reply) Wait(ctx context.Context) (Turn, error) {
	select {
	case <-r.done:
		return r.answer, nil
	case <-ctx.Done():
		return Turn{}, ctx.Err()
	}
}

func (r *Reply) settle(answer Turn) {
	r.answer = answer
	close(r.done)
}
