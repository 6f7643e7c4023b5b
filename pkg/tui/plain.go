package tui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/papercomputeco/wellchat/pkg/conversation"
)

// RunPlain is a line-oriented chat for input that is not a terminal. Each line
// is one question; while the conversation is empty a number picks a
// suggestion. Answers are awaited before the next line is read.
func RunPlain(ctx context.Context, controller *conversation.Controller, in io.Reader, out io.Writer) error {
	if suggestions := controller.Snapshot().Suggestions; len(suggestions) > 0 {
		fmt.Fprintln(out, "Try asking (enter a number to pick one):")
		for i, s := range suggestions {
			fmt.Fprintf(out, "  %d. %s\n", i+1, s)
		}
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			break
		}
		line := scanner.Text()

		reply, err := submitLine(controller, line)
		if err != nil {
			if errors.Is(err, conversation.ErrClosed) {
				return nil
			}
			fmt.Fprintln(out, err)
			continue
		}
		if reply == nil {
			continue
		}

		answer, err := reply.Wait(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, answer.Content)
	}

	return scanner.Err()
}

func submitLine(controller *conversation.Controller, line string) (*conversation.Reply, error) {
	suggestions := controller.Snapshot().Suggestions
	if n, err := strconv.Atoi(strings.TrimSpace(line)); err == nil && n >= 1 && n <= len(suggestions) {
		return controller.SelectSuggestion(suggestions[n-1])
	}
	return controller.Submit(line)
}
