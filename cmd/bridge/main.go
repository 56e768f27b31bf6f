// Package main is the entry point for the bridge CLI. The serve command
// hosts a storage backend; the get, has, save and remove commands reach it
// from another process through the storage proxy.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/tailored-agentic-units/bridge/bridge"
)

// Version is set at build time via ldflags.
var Version = "dev"

var (
	configFile string
	verbose    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bridge",
	Short: "bridge - storage proxy across execution contexts",
	Long: `bridge hosts a storage backend in one process and exposes it to other
processes through a storage proxy.

Run "bridge serve" in the process that owns the storage. Other processes use
"bridge get|has|save|remove" over the Connect transport or the WebSocket port.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetVersionTemplate("bridge version {{.Version}}\n")

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to bridge config file (JSON or YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging to stderr")
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig returns the config file's settings merged over defaults, or
// the defaults when no file is given.
func loadConfig() (*bridge.Config, error) {
	if configFile == "" {
		cfg := bridge.DefaultConfig()
		return &cfg, nil
	}
	return bridge.LoadConfig(configFile)
}
