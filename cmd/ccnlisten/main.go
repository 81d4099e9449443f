// Command ccnlisten registers a filter on a name prefix and logs every
// Interest that arrives under it until interrupted, grounded on the
// reference stack's signal-driven CLI shape (tools/pingclient.go's run
// loop).
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ccnx-go/ccnclient"
	"github.com/ccnx-go/ccnclient/log"
	"github.com/ccnx-go/ccnclient/wire"
)

type listenOpts struct {
	endpoint string
	tickMs   int
}

func main() {
	opts := &listenOpts{}

	cmd := &cobra.Command{
		Use:     "ccnlisten PREFIX",
		Short:   "Log every Interest arriving under PREFIX",
		Args:    cobra.ExactArgs(1),
		Example: "  ccnlisten /example",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListen(opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.endpoint, "endpoint", "", "forwarder socket path")
	cmd.Flags().IntVar(&opts.tickMs, "tick", 500, "Run() slice length per loop iteration, in milliseconds")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runListen(opts *listenOpts, prefixStr string) error {
	prefix := wire.NameFromStr(prefixStr)

	h := ccnclient.Create()
	defer h.Destroy()

	if err := h.Connect(opts.endpoint); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	handler := ccnclient.NewClosure(func(info *ccnclient.UpcallInfo) ccnclient.UpcallAction {
		if info.Kind == ccnclient.UpcallInterest {
			fmt.Printf("INTEREST %s\n", info.Interest.Name)
		}
		return ccnclient.ActionOK
	}, nil)

	if err := h.SetFilter(prefix, handler); err != nil {
		return fmt.Errorf("set filter: %w", err)
	}

	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, os.Interrupt, syscall.SIGTERM)

	fmt.Printf("listening on %s\n", prefix)
	for {
		select {
		case <-sigchan:
			return nil
		default:
		}
		if err := h.Run(opts.tickMs); err != nil {
			log.Error(h, "run failed", "err", err)
			return err
		}
	}
}
