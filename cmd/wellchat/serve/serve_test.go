package servecmder

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/wellchat/cmd/wellchat/cmdconfig"
)

var _ = Describe("Serve Command", func() {
	var (
		configPath string
		listenAddr string
	)

	BeforeEach(func() {
		configPath = filepath.Join(GinkgoT().TempDir(), "config.toml")
		Expect(os.WriteFile(configPath, nil, 0o600)).To(Succeed())

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		listenAddr = ln.Addr().String()
		Expect(ln.Close()).To(Succeed())
	})

	newRoot := func(args ...string) *cobra.Command {
		opts := &cmdconfig.Options{}
		root := &cobra.Command{Use: "wellchat", SilenceUsage: true, SilenceErrors: true}
		opts.AddFlags(root)
		root.AddCommand(NewServeCmd(opts))
		root.SetOut(io.Discard)
		root.SetErr(io.Discard)
		root.SetArgs(append([]string{
			"serve", "--config", configPath, "--api-key", "test-key", "--base-url", "http://127.0.0.1:1",
		}, args...))
		return root
	}

	It("serves until the context is cancelled, then shuts down cleanly", func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		done := make(chan error, 1)
		go func() {
			done <- newRoot("--listen", listenAddr).ExecuteContext(ctx)
		}()

		Eventually(func() int {
			resp, err := http.Get("http://" + listenAddr + "/health")
			if err != nil {
				return 0
			}
			defer resp.Body.Close()
			return resp.StatusCode
		}).WithTimeout(5 * time.Second).WithPolling(20 * time.Millisecond).Should(Equal(http.StatusOK))

		cancel()

		var err error
		Eventually(done).WithTimeout(5 * time.Second).Should(Receive(&err))
		Expect(err).NotTo(HaveOccurred())
	})

	It("reports a listen address that is already taken", func() {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		defer ln.Close()

		err = newRoot("--listen", ln.Addr().String()).ExecuteContext(context.Background())
		Expect(err).To(HaveOccurred())
	})
})
