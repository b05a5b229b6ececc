package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/helium-dev/helium/internal/errors"
	"github.com/helium-dev/helium/pkg/client"
)

// DefaultRPCURL is the endpoint 'helium call' uses by default.
const DefaultRPCURL = "http://localhost:3000/_helium/rpc"

func callCmd() *cobra.Command {
	var (
		url     string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "call NAME [ARGS]",
		Short: "Call a procedure on a running server",
		Long: `Call a procedure and print its result as JSON.

ARGS is a JSON value. A ws:// or wss:// URL sends the call over
a WebSocket connection instead of HTTP.

Examples:
  helium call helium.ping
  helium call users.get '{"id": 7}'
  helium call math.sum '[1, 2]' --url=ws://localhost:3000/_helium/ws`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var params json.RawMessage
			if len(args) == 2 {
				if !json.Valid([]byte(args[1])) {
					return errors.Newf(errors.CategoryCLI, "ARGS is not valid JSON: %s", args[1]).
						WithSuggestion(`Quote the value for your shell, e.g. '{"id": 7}' or '"text"'`)
				}
				params = json.RawMessage(args[1])
			}

			ctx := cmd.Context()
			transport, closeFn, err := dialTransport(ctx, url)
			if err != nil {
				return errors.New("H051").Wrap(err)
			}
			defer closeFn()

			c := client.New(transport, client.WithTimeout(timeout))
			var result json.RawMessage
			if err := c.Call(ctx, args[0], params, &result); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVarP(&url, "url", "u", DefaultRPCURL, "RPC endpoint (http(s):// or ws(s)://)")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 30*time.Second, "Call timeout")

	return cmd
}

func dialTransport(ctx context.Context, url string) (client.Transport, func(), error) {
	switch {
	case strings.HasPrefix(url, "ws://"), strings.HasPrefix(url, "wss://"):
		ws, err := client.DialWebSocket(ctx, url, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("dial %s: %w", url, err)
		}
		return ws, func() { ws.Close() }, nil
	case strings.HasPrefix(url, "http://"), strings.HasPrefix(url, "https://"):
		return client.NewHTTPTransport(url), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported URL %q", url)
	}
}
