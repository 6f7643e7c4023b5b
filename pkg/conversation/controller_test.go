package conversation_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/wellchat/pkg/conversation"
)

type result struct {
	text string
	err  error
}

// gatedGenerator blocks every call until a result is pushed or ctx ends.
type gatedGenerator struct {
	calls   chan string
	results chan result
}

func newGatedGenerator() *gatedGenerator {
	return &gatedGenerator{
		calls:   make(chan string, 16),
		results: make(chan result, 16),
	}
}

func (g *gatedGenerator) Generate(ctx context.Context, question string) (string, error) {
	g.calls <- question
	select {
	case r := <-g.results:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func waitFor(reply *conversation.Reply) conversation.Turn {
	GinkgoHelper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	turn, err := reply.Wait(ctx)
	Expect(err).NotTo(HaveOccurred())
	return turn
}

var _ = Describe("Controller", func() {
	var (
		gen        *gatedGenerator
		controller *conversation.Controller
	)

	BeforeEach(func() {
		gen = newGatedGenerator()
		controller = conversation.New(gen)
	})

	AfterEach(func() {
		controller.Close()
	})

	Describe("Submit", func() {
		DescribeTable("ignores blank input",
			func(text string) {
				controller.UpdateDraft(text)
				before := controller.Snapshot()

				reply, err := controller.Submit(text)
				Expect(err).NotTo(HaveOccurred())
				Expect(reply).To(BeNil())

				Expect(controller.Snapshot()).To(Equal(before))
				Consistently(gen.calls, 50*time.Millisecond).ShouldNot(Receive())
			},
			Entry("empty", ""),
			Entry("spaces", "   "),
			Entry("newlines and tabs", "\n\t \n"),
		)

		It("appends the question and a pending answer before the call resolves", func() {
			controller.UpdateDraft("How do I sleep better?")

			reply, err := controller.Submit("How do I sleep better?")
			Expect(err).NotTo(HaveOccurred())
			Expect(reply).NotTo(BeNil())

			snap := controller.Snapshot()
			Expect(snap.Turns).To(Equal([]conversation.Turn{
				{Role: conversation.RoleQuestion, Content: "How do I sleep better?"},
				{Role: conversation.RoleAnswer, Content: conversation.PendingContent, Pending: true},
			}))
			Expect(snap.Draft).To(BeEmpty())
			Expect(snap.Pending).To(BeTrue())
			Expect(reply.Done()).NotTo(BeClosed())
		})

		It("sends only the question text to the generator", func() {
			_, err := controller.Submit("  padded question  ")
			Expect(err).NotTo(HaveOccurred())

			Eventually(gen.calls).Should(Receive(Equal("  padded question  ")))
			Expect(controller.Turns()[0].Content).To(Equal("  padded question  "))
		})

		It("replaces the placeholder with the answer, bold markers stripped", func() {
			reply, err := controller.Submit("hello?")
			Expect(err).NotTo(HaveOccurred())

			gen.results <- result{text: "**Hello** world"}
			answer := waitFor(reply)

			Expect(answer).To(Equal(conversation.Turn{Role: conversation.RoleAnswer, Content: "Hello world"}))
			turns := controller.Turns()
			Expect(turns).To(HaveLen(2))
			Expect(turns[1]).To(Equal(answer))
			Expect(controller.Pending()).To(BeFalse())
		})

		It("replaces the placeholder with the failure text when generation fails", func() {
			reply, err := controller.Submit("hello?")
			Expect(err).NotTo(HaveOccurred())
			lengthWithPlaceholder := len(controller.Turns())

			gen.results <- result{err: errors.New("connection refused")}
			answer := waitFor(reply)

			Expect(answer.Content).To(Equal(conversation.FailureContent))
			Expect(answer.Pending).To(BeFalse())
			Expect(controller.Turns()).To(HaveLen(lengthWithPlaceholder))
			Expect(controller.Turns()[1]).To(Equal(answer))
		})

		It("rejects a second question while one is outstanding", func() {
			_, err := controller.Submit("first")
			Expect(err).NotTo(HaveOccurred())
			controller.UpdateDraft("second")
			before := controller.Snapshot()

			reply, err := controller.Submit("second")
			Expect(err).To(MatchError(conversation.ErrBusy))
			Expect(reply).To(BeNil())
			Expect(controller.Snapshot()).To(Equal(before))
		})

		It("makes exactly one generator call per accepted question", func() {
			for _, q := range []string{"one", "two", "three"} {
				reply, err := controller.Submit(q)
				Expect(err).NotTo(HaveOccurred())
				gen.results <- result{text: "answer to " + q}
				waitFor(reply)
			}

			Expect(gen.calls).To(HaveLen(3))
			Expect(<-gen.calls).To(Equal("one"))
			Expect(<-gen.calls).To(Equal("two"))
			Expect(<-gen.calls).To(Equal("three"))
		})

		It("keeps turns in insertion order across several exchanges", func() {
			reply, _ := controller.Submit("q1")
			gen.results <- result{text: "a1"}
			waitFor(reply)

			reply, _ = controller.Submit("q2")
			gen.results <- result{err: errors.New("boom")}
			waitFor(reply)

			reply, _ = controller.Submit("q3")
			gen.results <- result{text: "**a3**"}
			waitFor(reply)

			contents := []string{}
			roles := []conversation.Role{}
			for _, t := range controller.Turns() {
				contents = append(contents, t.Content)
				roles = append(roles, t.Role)
			}
			Expect(contents).To(Equal([]string{"q1", "a1", "q2", conversation.FailureContent, "q3", "a3"}))
			Expect(roles).To(Equal([]conversation.Role{
				conversation.RoleQuestion, conversation.RoleAnswer,
				conversation.RoleQuestion, conversation.RoleAnswer,
				conversation.RoleQuestion, conversation.RoleAnswer,
			}))
		})

		It("keeps an answer that happens to equal the placeholder text as settled", func() {
			reply, _ := controller.Submit("what is shown while waiting?")
			gen.results <- result{text: conversation.PendingContent}
			answer := waitFor(reply)

			Expect(answer.Content).To(Equal(conversation.PendingContent))
			Expect(answer.Pending).To(BeFalse())
			Expect(controller.Pending()).To(BeFalse())
		})
	})

	Describe("SelectSuggestion", func() {
		It("ends in the same state as UpdateDraft followed by Submit", func() {
			answer := conversation.GeneratorFunc(func(ctx context.Context, q string) (string, error) {
				return "**Sure.** " + q, nil
			})
			suggestion := conversation.DefaultSuggestions[0]

			viaSuggestion := conversation.New(answer)
			reply, err := viaSuggestion.SelectSuggestion(suggestion)
			Expect(err).NotTo(HaveOccurred())
			waitFor(reply)

			viaSubmit := conversation.New(answer)
			viaSubmit.UpdateDraft(suggestion)
			reply, err = viaSubmit.Submit(suggestion)
			Expect(err).NotTo(HaveOccurred())
			waitFor(reply)

			Expect(viaSuggestion.Turns()).To(Equal(viaSubmit.Turns()))
			Expect(viaSuggestion.Draft()).To(Equal(viaSubmit.Draft()))
			Expect(viaSuggestion.Turns()[1].Content).To(Equal("Sure. " + suggestion))
		})

		It("leaves the draft set when a question is already outstanding", func() {
			_, err := controller.Submit("first")
			Expect(err).NotTo(HaveOccurred())

			_, err = controller.SelectSuggestion("suggested")
			Expect(err).To(MatchError(conversation.ErrBusy))
			Expect(controller.Draft()).To(Equal("suggested"))
			Expect(controller.Turns()).To(HaveLen(2))
		})
	})

	Describe("Cancel", func() {
		It("settles the outstanding question with the failure text", func() {
			reply, err := controller.Submit("slow question")
			Expect(err).NotTo(HaveOccurred())
			Eventually(gen.calls).Should(Receive())

			controller.Cancel()
			answer := waitFor(reply)

			Expect(answer.Content).To(Equal(conversation.FailureContent))
			Expect(controller.Pending()).To(BeFalse())
		})

		It("is a no-op without an outstanding question", func() {
			before := controller.Snapshot()
			controller.Cancel()
			Expect(controller.Snapshot()).To(Equal(before))
		})
	})

	Describe("Close", func() {
		It("rejects further questions", func() {
			controller.Close()

			reply, err := controller.Submit("anyone there?")
			Expect(err).To(MatchError(conversation.ErrClosed))
			Expect(reply).To(BeNil())
			Expect(controller.Turns()).To(BeEmpty())
		})

		It("cancels the outstanding call", func() {
			reply, err := controller.Submit("question")
			Expect(err).NotTo(HaveOccurred())
			Eventually(gen.calls).Should(Receive())

			controller.Close()
			Expect(waitFor(reply).Content).To(Equal(conversation.FailureContent))
		})
	})

	Describe("Reply.Wait", func() {
		It("returns the context error when the context ends first", func() {
			reply, err := controller.Submit("question")
			Expect(err).NotTo(HaveOccurred())

			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()

			_, err = reply.Wait(ctx)
			Expect(err).To(MatchError(context.DeadlineExceeded))
			Expect(reply.Question()).To(Equal("question"))
		})
	})

	Describe("Snapshot", func() {
		It("offers suggestions only while the conversation is empty", func() {
			Expect(controller.Snapshot().Suggestions).To(Equal(conversation.DefaultSuggestions))

			_, err := controller.Submit("hi")
			Expect(err).NotTo(HaveOccurred())

			Expect(controller.Snapshot().Suggestions).To(BeEmpty())
		})

		It("uses configured suggestions", func() {
			c := conversation.New(gen, conversation.WithSuggestions([]string{"a", "b"}))
			Expect(c.Snapshot().Suggestions).To(Equal([]string{"a", "b"}))

			c.SetSuggestions([]string{"c"})
			Expect(c.Snapshot().Suggestions).To(Equal([]string{"c"}))
		})

		It("returns copies that later changes do not affect", func() {
			snap := controller.Snapshot()
			_, err := controller.Submit("hi")
			Expect(err).NotTo(HaveOccurred())

			Expect(snap.Turns).To(BeEmpty())
		})
	})

	Describe("Subscribe", func() {
		It("publishes the placeholder and then the settled answer in version order", func() {
			var (
				mu        sync.Mutex
				snapshots []conversation.Snapshot
			)
			controller.Subscribe(func(s conversation.Snapshot) {
				mu.Lock()
				defer mu.Unlock()
				snapshots = append(snapshots, s)
			})

			controller.UpdateDraft("hi")
			reply, err := controller.Submit("hi")
			Expect(err).NotTo(HaveOccurred())
			gen.results <- result{text: "hello"}
			waitFor(reply)

			mu.Lock()
			defer mu.Unlock()
			Expect(snapshots).To(HaveLen(3))
			Expect(snapshots[0].Draft).To(Equal("hi"))
			Expect(snapshots[1].Turns[1].Pending).To(BeTrue())
			Expect(snapshots[1].Pending).To(BeTrue())
			Expect(snapshots[2].Turns[1].Content).To(Equal("hello"))
			Expect(snapshots[2].Pending).To(BeFalse())
			for i := 1; i < len(snapshots); i++ {
				Expect(snapshots[i].Version).To(BeNumerically(">", snapshots[i-1].Version))
			}
		})

		It("lets listeners call back into the controller", func() {
			drafts := make(chan string, 4)
			controller.Subscribe(func(conversation.Snapshot) {
				drafts <- controller.Draft()
			})

			controller.UpdateDraft("typing")
			Eventually(drafts).Should(Receive(Equal("typing")))
		})

		It("notifies a listener added from inside another listener on the next change only", func() {
			var (
				mu    sync.Mutex
				added bool
				late  []string
			)
			controller.Subscribe(func(conversation.Snapshot) {
				mu.Lock()
				defer mu.Unlock()
				if added {
					return
				}
				added = true
				controller.Subscribe(func(s conversation.Snapshot) {
					mu.Lock()
					defer mu.Unlock()
					late = append(late, s.Draft)
				})
			})

			controller.UpdateDraft("first")
			controller.UpdateDraft("second")

			mu.Lock()
			defer mu.Unlock()
			Expect(late).To(Equal([]string{"second"}))
		})
	})
})
