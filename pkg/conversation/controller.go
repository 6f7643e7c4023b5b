// Package conversation holds the conversation controller: the ordered list of
// question and answer turns for one chat session, and the lifecycle of the
// single outstanding generation request behind it.
//
// A Controller appends a Question and a pending Answer on every accepted
// Submit, then asks its Generator for the answer in the background. When the
// call settles the pending Answer is replaced in place, with the generated
// text (bold markers stripped) or with FailureContent. Generation errors never
// reach the caller.
package conversation

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/papercomputeco/wellchat/pkg/markdown"
)

var (
	// ErrBusy is returned by Submit while a previous question is unanswered.
	ErrBusy = errors.New("conversation: a question is already being answered")

	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("conversation: closed")
)

// Snapshot is a copy of a Controller's state for rendering.
type Snapshot struct {
	Turns   []Turn `json:"turns"`
	Draft   string `json:"draft"`
	Pending bool   `json:"pending"`

	// Suggestions is only populated while the conversation is empty.
	Suggestions []string `json:"suggestions,omitempty"`

	// Version increases with every change.
	Version uint64 `json:"version"`
}

// Controller owns one session's conversation. It is safe for concurrent use.
type Controller struct {
	generator Generator
	logger    *zap.Logger

	mu          sync.Mutex
	turns       []Turn
	draft       string
	suggestions []string
	inflight    *Reply
	closed      bool
	version     uint64
	listeners   []func(Snapshot)

	// publishMu serializes listener calls so they observe versions in order.
	publishMu     sync.Mutex
	lastPublished uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for generation failures.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithSuggestions replaces DefaultSuggestions.
func WithSuggestions(suggestions []string) Option {
	return func(c *Controller) {
		c.suggestions = append([]string(nil), suggestions...)
	}
}

// New creates an empty Controller answering questions with generator.
func New(generator Generator, opts ...Option) *Controller {
	c := &Controller{
		generator:   generator,
		logger:      zap.NewNop(),
		suggestions: append([]string(nil), DefaultSuggestions...),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers fn to be called with a fresh Snapshot after every
// change. Calls are serialized and never run with the controller locked, so
// fn may call back into the Controller.
func (c *Controller) Subscribe(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Turns returns a copy of the conversation.
func (c *Controller) Turns() []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Turn(nil), c.turns...)
}

// Draft returns the current draft input.
func (c *Controller) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Pending reports whether a question is awaiting its answer.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight != nil
}

// UpdateDraft sets the draft input.
func (c *Controller) UpdateDraft(text string) {
	c.mu.Lock()
	if c.draft == text {
		c.mu.Unlock()
		return
	}
	c.draft = text
	c.changedLocked()
}

// SetSuggestions replaces the suggestion list.
func (c *Controller) SetSuggestions(suggestions []string) {
	c.mu.Lock()
	c.suggestions = append([]string(nil), suggestions...)
	c.changedLocked()
}

// Submit asks text as a new question.
//
// Whitespace-only text is ignored and Submit returns (nil, nil). Otherwise it
// appends a Question and a pending Answer, clears the draft, starts the
// generation call and returns without waiting for it. A second Submit before
// the first Reply settles fails with ErrBusy and changes nothing.
func (c *Controller) Submit(text string) (*Reply, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.inflight != nil {
		c.mu.Unlock()
		return nil, ErrBusy
	}

	c.turns = append(c.turns, questionTurn(text))
	c.draft = ""
	c.turns = append(c.turns, pendingAnswer())

	ctx, cancel := context.WithCancel(context.Background())
	reply := newReply(text, len(c.turns)-1, cancel)
	c.inflight = reply
	c.changedLocked()

	// The placeholder is visible to listeners before the call is issued.
	go c.resolve(ctx, reply)

	return reply, nil
}

// SelectSuggestion sets the draft to text and submits it.
func (c *Controller) SelectSuggestion(text string) (*Reply, error) {
	c.UpdateDraft(text)
	return c.Submit(text)
}

// Cancel aborts the outstanding generation call, if any. Its placeholder is
// replaced with FailureContent.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight != nil {
		c.inflight.cancel()
	}
}

// Close cancels any outstanding call, drops listeners and rejects further
// questions. The conversation itself is left for the caller to discard.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.listeners = nil
	if c.inflight != nil {
		c.inflight.cancel()
	}
}

func (c *Controller) resolve(ctx context.Context, reply *Reply) {
	defer reply.cancel()

	answer, err := c.generator.Generate(ctx, reply.question)

	var turn Turn
	if err != nil {
		c.logger.Warn("generation failed",
			zap.Int("turn", reply.index),
			zap.Error(err),
		)
		turn = answerTurn(FailureContent)
	} else {
		turn = answerTurn(markdown.StripBold(answer))
	}

	c.mu.Lock()
	c.turns[reply.index] = turn
	c.inflight = nil
	c.changedLocked()

	reply.settle(turn)
}

// changedLocked bumps the version, releases c.mu and publishes the new state.
// It must be called with c.mu held.
func (c *Controller) changedLocked() {
	c.version++
	snap := c.snapshotLocked()
	listeners := slices.Clone(c.listeners)
	c.mu.Unlock()

	c.publish(snap, listeners)
}

func (c *Controller) publish(snap Snapshot, listeners []func(Snapshot)) {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()

	// A newer state may already have been published by a racing mutation.
	if snap.Version <= c.lastPublished {
		return
	}
	c.lastPublished = snap.Version

	for _, fn := range listeners {
		fn(snap)
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		Turns:   append([]Turn(nil), c.turns...),
		Draft:   c.draft,
		Pending: c.inflight != nil,
		Version: c.version,
	}
	if len(c.turns) == 0 {
		snap.Suggestions = append([]string(nil), c.suggestions...)
	}
	if snap.Turns == nil {
		snap.Turns = []Turn{}
	}
	return snap
}
