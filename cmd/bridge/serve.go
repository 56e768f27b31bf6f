package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tailored-agentic-units/bridge/bridge"
)

var (
	serveListen string
	serveDriver string
	servePath   string
	serveCache  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Host the storage backend and its listener",
	Long: `Open the configured storage backend, register the storage listener and
serve it over HTTP until interrupted.

Flags override the config file.

Examples:
  bridge serve
  bridge serve --driver file --path ./data
  bridge serve -c bridge.yaml --listen 0.0.0.0:8787`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Address to listen on (overrides config)")
	serveCmd.Flags().StringVar(&serveDriver, "driver", "", "Storage driver: memory, file, badger, redis, postgres (overrides config)")
	serveCmd.Flags().StringVar(&servePath, "path", "", "Storage path for the file and badger drivers (overrides config)")
	serveCmd.Flags().BoolVar(&serveCache, "cache", false, "Wrap the backend in a write-back cache")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cfg.Merge(&bridge.Config{
		Server: bridge.ServerConfig{Addr: serveListen},
	})
	if serveDriver != "" {
		cfg.Storage.Driver = serveDriver
	}
	if servePath != "" {
		cfg.Storage.Path = servePath
	}
	if serveCache {
		cfg.Storage.Cache = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger()

	rt, err := bridge.New(ctx, cfg, bridge.WithLogger(logger))
	if err != nil {
		return err
	}
	defer rt.Close()

	logger.Info("bridge serving", "name", cfg.Name, "addr", cfg.Server.Addr, "driver", cfg.Storage.Driver)
	return rt.Serve(ctx)
}
