// Command stress-runonce fires concurrent delegated run-once requests at a
// resident translator and tallies how each one ended.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"screen-translator/src/singleinstance"
)

type stressOptions struct {
	n        int
	mode     string
	lang     string
	deadline time.Duration
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &stressOptions{}
	cmd := newRootCmd(opts)
	return cmd.Execute()
}

func newRootCmd(opts *stressOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stress-runonce",
		Short:         "Stress test run-once delegation",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.mode != "std" && opts.mode != "clip" {
				return fmt.Errorf("invalid --mode %q (want std or clip)", opts.mode)
			}
			t := stress(opts.n, opts.deadline, opts.request(), singleinstance.NewClient)
			t.print(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.n, "n", 50, "number of clients to launch")
	cmd.Flags().StringVar(&opts.mode, "mode", "std", "std|clip: run-once-std (stdout) or run-once (clipboard)")
	cmd.Flags().StringVar(&opts.lang, "lang", "", "target language override sent with each request")
	cmd.Flags().DurationVar(&opts.deadline, "deadline", 5*time.Second, "per-client timeout")

	return cmd
}

func (o stressOptions) request() singleinstance.Request {
	return singleinstance.Request{OutputToStdout: o.mode == "std", Language: o.lang}
}

type tally struct {
	launched   int
	ok         int32
	cancelled  int32
	noResident int32
	errs       int32
	elapsed    time.Duration
}

func (t tally) print(w io.Writer) {
	fmt.Fprintf(w, "launched=%d ok=%d cancelled=%d no_resident=%d err=%d elapsed=%s\n",
		t.launched, t.ok, t.cancelled, t.noResident, t.errs, t.elapsed)
}

func stress(n int, deadline time.Duration, req singleinstance.Request, newClient func() singleinstance.Client) tally {
	var (
		wg sync.WaitGroup
		t  = tally{launched: n}
	)

	start := time.Now()
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), deadline)
			defer cancel()

			resp, err := newClient().TryRunOnce(ctx, req)
			switch {
			case err != nil:
				atomic.AddInt32(&t.errs, 1)
			case !resp.Delegated:
				atomic.AddInt32(&t.noResident, 1)
			case resp.Cancelled:
				atomic.AddInt32(&t.cancelled, 1)
			default:
				atomic.AddInt32(&t.ok, 1)
			}
		}()
	}
	wg.Wait()
	t.elapsed = time.Since(start)
	return t
}
