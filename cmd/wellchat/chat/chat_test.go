package chatcmder

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/wellchat/cmd/wellchat/cmdconfig"
)

var _ = Describe("Chat Command", func() {
	var (
		configPath string
		upstream   *httptest.Server
	)

	BeforeEach(func() {
		configPath = filepath.Join(GinkgoT().TempDir(), "config.toml")
		Expect(os.WriteFile(configPath, []byte("[chat]\nsuggestions = [\"Pick me\", \"Or me\"]\n"), 0o600)).To(Succeed())

		upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Contents []struct {
					Parts []struct {
						Text string `json:"text"`
					} `json:"parts"`
				} `json:"contents"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			question := req.Contents[0].Parts[0].Text

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"candidates": []any{map[string]any{
					"content": map[string]any{"parts": []any{map[string]any{"text": "**Answer:** " + question}}},
				}},
			})
		}))
		DeferCleanup(upstream.Close)
	})

	execute := func(input string, args ...string) (string, error) {
		opts := &cmdconfig.Options{}
		root := &cobra.Command{Use: "wellchat", SilenceUsage: true, SilenceErrors: true}
		opts.AddFlags(root)
		root.AddCommand(NewChatCmd(opts))

		var out bytes.Buffer
		root.SetIn(strings.NewReader(input))
		root.SetOut(&out)
		root.SetErr(io.Discard)
		root.SetArgs(append([]string{
			"chat", "--config", configPath, "--api-key", "test-key", "--base-url", upstream.URL,
		}, args...))

		err := root.ExecuteContext(context.Background())
		return out.String(), err
	}

	It("runs line by line with --plain, offering the configured suggestions", func() {
		out, err := execute("1\nhow?\n", "--plain")
		Expect(err).NotTo(HaveOccurred())

		Expect(out).To(ContainSubstring("1. Pick me"))
		Expect(out).To(ContainSubstring("2. Or me"))
		Expect(out).To(ContainSubstring("Answer: Pick me\n"))
		Expect(out).To(ContainSubstring("Answer: how?\n"))
	})

	It("falls back to line mode when stdin is not a terminal", func() {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			Skip("stdin is a terminal")
		}

		out, err := execute("hello\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Answer: hello\n"))
	})

	It("writes logs to --log-file", func() {
		logPath := filepath.Join(GinkgoT().TempDir(), "chat.log")

		_, err := execute("hello\n", "--plain", "--debug", "--log-file", logPath)
		Expect(err).NotTo(HaveOccurred())

		data, err := os.ReadFile(logPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).NotTo(BeEmpty())
	})

	It("fails without an API key", func() {
		opts := &cmdconfig.Options{ConfigPath: configPath}
		cmd := NewChatCmd(opts)
		cmd.SetIn(strings.NewReader(""))
		cmd.SetOut(io.Discard)
		cmd.SetErr(io.Discard)
		cmd.SetArgs([]string{"--plain"})

		for _, key := range []string{"WELLCHAT_API_KEY", "GEMINI_API_KEY"} {
			GinkgoT().Setenv(key, "")
		}
		Expect(cmd.Execute()).To(MatchError(ContainSubstring("WELLCHAT_API_KEY")))
	})
})
