// Command ccnpeek expresses a single Interest against a running forwarder
// and prints the matching ContentObject's payload, grounded on the
// reference stack's ping/sec command style (tools/pingclient.go,
// tools/sec/cmd_sec.go).
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccnx-go/ccnclient"
	"github.com/ccnx-go/ccnclient/log"
	"github.com/ccnx-go/ccnclient/wire"
)

type peekOpts struct {
	endpoint string
	timeout  int
	prefix   int
	payload  bool
}

func main() {
	opts := &peekOpts{}

	cmd := &cobra.Command{
		Use:     "ccnpeek NAME",
		Short:   "Send one Interest and print the matching ContentObject",
		Args:    cobra.ExactArgs(1),
		Example: "  ccnpeek /example/data",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPeek(opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.endpoint, "endpoint", "", "forwarder socket path (defaults to CCN_LOCAL_PORT-suffixed default)")
	cmd.Flags().IntVarP(&opts.timeout, "timeout", "t", 3000, "timeout in milliseconds")
	cmd.Flags().IntVarP(&opts.prefix, "prefix-comps", "p", -1, "number of leading components the responder must match")
	cmd.Flags().BoolVarP(&opts.payload, "payload", "P", false, "print only the raw Content payload")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runPeek(opts *peekOpts, nameStr string) error {
	name := wire.NameFromStr(nameStr)

	h := ccnclient.Create()
	defer h.Destroy()

	if err := h.Connect(opts.endpoint); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	start := time.Now()
	_, co, comps, err := ccnclient.Get(h, name, opts.prefix, nil, opts.timeout)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	log.Info(h, "content received", "elapsed", time.Since(start), "matched_comps", comps)

	if opts.payload {
		os.Stdout.Write(co.Content)
		return nil
	}

	fmt.Printf("Name: %s\n", co.Name)
	fmt.Printf("Content-Type: %d\n", co.Type)
	fmt.Printf("Content-Length: %d\n", len(co.Content))
	os.Stdout.Write(co.Content)
	fmt.Println()
	return nil
}
