package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tailored-agentic-units/bridge/channel/port"
	"github.com/tailored-agentic-units/bridge/channel/rpc"
	"github.com/tailored-agentic-units/bridge/proxy"
)

const (
	transportRPC  = "rpc"
	transportPort = "port"
)

var (
	clientAddr      string
	clientTransport string
	clientTimeout   time.Duration
)

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the value stored under a key",
	Long: `Print the JSON value stored under key, or null when the key is absent.

Examples:
  bridge get settings.theme
  bridge get settings.theme --transport port`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProxy(cmd, func(ctx context.Context, p *proxy.Proxy) error {
			value, err := p.Get(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), value)
		})
	},
}

var hasCmd = &cobra.Command{
	Use:   "has <key>",
	Short: "Report whether a key is stored",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProxy(cmd, func(ctx context.Context, p *proxy.Proxy) error {
			has, err := p.Has(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), has)
		})
	},
}

var saveCmd = &cobra.Command{
	Use:   "save <key> <value>",
	Short: "Store a value under a key",
	Long: `Store value under key, overwriting any previous value.

The value is parsed as JSON; anything that is not valid JSON is stored as a
string.

Examples:
  bridge save settings.theme dark
  bridge save settings '{"theme": "dark", "volume": 7}'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProxy(cmd, func(ctx context.Context, p *proxy.Proxy) error {
			if err := p.Save(ctx, args[0], parseValue(args[1])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s.\n", args[0])
			return nil
		})
	},
}

var removeCmd = &cobra.Command{
	Use:     "remove <key>",
	Aliases: []string{"rm"},
	Short:   "Remove a key",
	Long:    `Remove key. Removing a key that is not stored succeeds.`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProxy(cmd, func(ctx context.Context, p *proxy.Proxy) error {
			if err := p.Remove(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s.\n", args[0])
			return nil
		})
	},
}

func init() {
	for _, cmd := range []*cobra.Command{getCmd, hasCmd, saveCmd, removeCmd} {
		cmd.Flags().StringVar(&clientAddr, "addr", "", "Base URL of a running bridge (default from config)")
		cmd.Flags().StringVar(&clientTransport, "transport", transportRPC, "Transport: rpc or port")
		cmd.Flags().DurationVar(&clientTimeout, "timeout", 10*time.Second, "Call timeout; 0 waits indefinitely")
		rootCmd.AddCommand(cmd)
	}
}

// withProxy connects a Proxy over the selected transport and runs fn.
func withProxy(cmd *cobra.Command, fn func(ctx context.Context, p *proxy.Proxy) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	addr := clientAddr
	if addr == "" {
		addr = "http://" + cfg.Server.Addr
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if clientTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, clientTimeout)
		defer cancel()
	}

	opts := []proxy.Option{proxy.WithLogger(newLogger())}

	switch clientTransport {
	case transportRPC:
		return fn(ctx, proxy.New(rpc.NewClient(http.DefaultClient, addr), opts...))
	case transportPort:
		url := "ws" + strings.TrimPrefix(strings.TrimRight(addr, "/"), "http") + cfg.Server.PortPath
		p, err := port.Dial(ctx, url, newLogger())
		if err != nil {
			return err
		}
		defer p.Close()
		return fn(ctx, proxy.New(p, opts...))
	default:
		return fmt.Errorf("unknown transport %q: want %s or %s", clientTransport, transportRPC, transportPort)
	}
}

func parseValue(raw string) any {
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return raw
	}
	return value
}

func printJSON(w io.Writer, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
