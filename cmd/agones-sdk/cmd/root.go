// ============================================================================
// agones-sdk-go - Go client for the Agones game server sidecar
// ============================================================================
//
// Package:     cmd
// Description: Root command, global flags and sidecar connection helpers
// Author:      Mike Stoffels
// Created:     2025-12-08
// License:     MIT
// ============================================================================

package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/msto63/agones-sdk-go/pkg/core/config"
	"github.com/msto63/agones-sdk-go/pkg/core/logging"
	"github.com/msto63/agones-sdk-go/pkg/core/metrics"
	"github.com/msto63/agones-sdk-go/pkg/sdk"
)

var (
	cfgFile     string
	host        string
	port        int
	verbose     bool
	metricsAddr string

	cfg           *config.Config
	metricsServer *http.Server
)

var rootCmd = &cobra.Command{
	Use:   "agones-sdk",
	Short: "Talk to the Agones SDK sidecar from the command line",
	Long: `agones-sdk drives the Agones SDK sidecar of a game server pod.

Lifecycle:
  ready, allocate, reserve, shutdown, health, heartbeat

GameServer:
  get, watch, label, annotate

Alpha / Beta:
  player, counter, list

Development:
  local    - run a local sidecar without Kubernetes`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

// Execute runs the root command
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(rootCmd, err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $AGONES_SDK_CONFIG or ./configs/agones-sdk.toml)")
	rootCmd.PersistentFlags().StringVar(&host, "host", "", "sidecar host (default: localhost)")
	rootCmd.PersistentFlags().IntVar(&port, "port", 0, "sidecar gRPC port (default: 59357)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
}

// setup loads configuration, applies flag overrides and configures logging
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := loadConfig()
	if err != nil {
		return err
	}
	cfg = loaded

	logging.SetDefaults(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())

	if cfg.Metrics.Enabled || metricsAddr != "" {
		return startMetrics(cfg.Metrics.Address)
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	var (
		c   *config.Config
		err error
	)
	if cfgFile != "" {
		c, err = config.Load(cfgFile)
		if err == nil {
			err = c.ApplyEnv()
		}
	} else {
		c, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, err
	}

	if host != "" {
		c.Sidecar.Host = host
	}
	if port != 0 {
		c.Sidecar.Port = port
	}
	if verbose {
		c.Logging.Level = "debug"
	}
	if metricsAddr != "" {
		c.Metrics.Address = metricsAddr
	}

	if err := c.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return c, nil
}

func startMetrics(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	metricsServer = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	log := logging.New("cli")
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server error", "error", err)
		}
	}()
	log.Debug("serving metrics", "address", addr)
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	if metricsServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := metricsServer.Shutdown(ctx)
	metricsServer = nil
	return err
}

// connect opens a client to the configured sidecar. Callers must Close it.
func connect() (*sdk.SDK, error) {
	opts := []sdk.Option{sdk.WithLogger(logging.New("cli"))}
	if cfg.Sidecar.Block {
		opts = append(opts, sdk.WithDialTimeout(cfg.Sidecar.DialTimeout.Duration))
	}
	if cfg.Sidecar.KeepaliveInterval.Duration > 0 {
		opts = append(opts, sdk.WithKeepalive(cfg.Sidecar.KeepaliveInterval.Duration))
	}

	s, err := sdk.New(cfg.Sidecar.Host, cfg.Sidecar.Port, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "could not connect to sidecar at %s", cfg.SidecarAddress())
	}
	return s, nil
}

// withSDK connects, runs fn and closes the connection
func withSDK(fn func(s *sdk.SDK) error) error {
	s, err := connect()
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func printError(cmd *cobra.Command, err error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
}
