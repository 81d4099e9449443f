// Command ccnpoke registers a filter on a name, waits for one Interest to
// match it, and replies with a ContentObject built from stdin — the write
// counterpart to ccnpeek, grounded on the reference stack's CLI structure
// (tools/pingclient.go, tools/sec/cmd_sec.go).
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccnx-go/ccnclient"
	"github.com/ccnx-go/ccnclient/security"
	"github.com/ccnx-go/ccnclient/wire"
)

type pokeOpts struct {
	endpoint string
	timeout  int
	key      bool
}

func main() {
	opts := &pokeOpts{}

	cmd := &cobra.Command{
		Use:     "ccnpoke NAME",
		Short:   "Answer one Interest under NAME with stdin as Content",
		Args:    cobra.ExactArgs(1),
		Example: "  echo hello | ccnpoke /example/data",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPoke(opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.endpoint, "endpoint", "", "forwarder socket path")
	cmd.Flags().IntVarP(&opts.timeout, "timeout", "t", 10000, "how long to wait for a matching Interest, in milliseconds")
	cmd.Flags().BoolVarP(&opts.key, "key", "k", false, "publish as a Key-type ContentObject instead of Data")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runPoke(opts *pokeOpts, nameStr string) error {
	name := wire.NameFromStr(nameStr)

	content, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	h := ccnclient.Create()
	defer h.Destroy()

	if err := h.Connect(opts.endpoint); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	signer := security.NewSha256Signer()
	ctype := wire.ContentTypeData
	if opts.key {
		ctype = wire.ContentTypeKey
	}

	done := make(chan error, 1)
	handler := ccnclient.NewClosure(func(info *ccnclient.UpcallInfo) ccnclient.UpcallAction {
		if info.Kind != ccnclient.UpcallInterest {
			return ccnclient.ActionOK
		}

		encoded, err := wire.EncodeContentObject(name, nil, ctype, nil, content,
			func(covered []byte) (byte, []byte, error) {
				sig, err := signer.Sign(covered)
				return signer.Type(), sig, err
			})
		if err != nil {
			done <- err
			return ccnclient.ActionErr
		}

		if err := info.Handle.Put(encoded); err != nil {
			done <- err
			return ccnclient.ActionErr
		}

		select {
		case done <- nil:
		default:
		}
		info.Handle.SetRunTimeout(0)
		return ccnclient.ActionInterestConsumed
	}, nil)

	if err := h.SetFilter(name, handler); err != nil {
		return fmt.Errorf("set filter: %w", err)
	}

	if err := h.Run(opts.timeout); err != nil {
		return fmt.Errorf("run: %w", err)
	}

	select {
	case err := <-done:
		return err
	default:
		return fmt.Errorf("timed out waiting for a matching Interest")
	}
}
