package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/msto63/agones-sdk-go/pkg/core/health"
	"github.com/msto63/agones-sdk-go/pkg/core/logging"
	"github.com/msto63/agones-sdk-go/pkg/core/version"
	"github.com/msto63/agones-sdk-go/pkg/sdk"
)

var (
	heartbeatTCPChecks  []string
	heartbeatHTTPChecks []string
)

var readyCmd = &cobra.Command{
	Use:   "ready",
	Short: "Mark the GameServer Ready",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSDK(func(s *sdk.SDK) error {
			if err := s.Ready(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "GameServer marked Ready")
			return nil
		})
	},
}

var allocateCmd = &cobra.Command{
	Use:   "allocate",
	Short: "Mark the GameServer Allocated",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSDK(func(s *sdk.SDK) error {
			if err := s.Allocate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "GameServer marked Allocated")
			return nil
		})
	},
}

var shutdownCmd = &cobra.Command{
	Use:   "shutdown",
	Short: "Mark the GameServer for shutdown",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSDK(func(s *sdk.SDK) error {
			if err := s.Shutdown(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "GameServer marked for Shutdown")
			return nil
		})
	},
}

var reserveCmd = &cobra.Command{
	Use:   "reserve <duration>",
	Short: "Reserve the GameServer for a duration",
	Long: `Moves the GameServer to Reserved. After the duration it returns to
Ready unless it was allocated or shut down in between. A duration of 0
reserves until the next state change.

The duration is a Go duration ("90s", "5m") or whole seconds ("30").`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := parseSeconds(args[0])
		if err != nil {
			return err
		}
		return withSDK(func(s *sdk.SDK) error {
			if err := s.Reserve(cmd.Context(), d); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "GameServer reserved for %s\n", d)
			return nil
		})
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Send a single health ping",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSDK(func(s *sdk.SDK) error {
			if err := s.Health(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "health ping sent")
			return nil
		})
	},
}

var heartbeatCmd = &cobra.Command{
	Use:   "heartbeat",
	Short: "Send health pings until interrupted",
	Long: `Pings the sidecar every health.interval (default 2s). With --tcp-check
or --http-check the pings are only sent while those checks pass, so the
sidecar marks the GameServer Unhealthy when the game process stops serving.`,
	Args: cobra.NoArgs,
	RunE: runHeartbeat,
}

func init() {
	rootCmd.AddCommand(readyCmd)
	rootCmd.AddCommand(allocateCmd)
	rootCmd.AddCommand(shutdownCmd)
	rootCmd.AddCommand(reserveCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(heartbeatCmd)

	heartbeatCmd.Flags().StringSliceVar(&heartbeatTCPChecks, "tcp-check", nil, "host:port that must accept connections")
	heartbeatCmd.Flags().StringSliceVar(&heartbeatHTTPChecks, "http-check", nil, "URL that must not answer 5xx")
}

func runHeartbeat(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	return withSDK(func(s *sdk.SDK) error {
		registry := health.NewRegistry("agones-sdk", version.SDK)
		for _, addr := range heartbeatTCPChecks {
			registry.Register(health.TCPCheck("tcp "+addr, addr, cfg.Health.CheckTimeout.Duration))
		}
		for _, url := range heartbeatHTTPChecks {
			registry.Register(health.HTTPCheck("http "+url, url, cfg.Health.CheckTimeout.Duration))
		}

		hb := health.NewHeartbeat(registry, s)
		hb.Interval = cfg.Health.Interval.Duration
		hb.CheckTimeout = cfg.Health.CheckTimeout.Duration
		hb.Logger = logging.New("heartbeat")

		hb.Logger.Info("heartbeat started", "sidecar", cfg.SidecarAddress(), "interval", hb.Interval, "version", version.String())
		return hb.Run(ctx)
	})
}

// parseSeconds accepts a Go duration or a whole number of seconds
func parseSeconds(arg string) (time.Duration, error) {
	if n, err := strconv.ParseInt(arg, 10, 64); err == nil {
		if n < 0 {
			return 0, errors.Errorf("duration must not be negative: %s", arg)
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(arg)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid duration %q", arg)
	}
	if d < 0 {
		return 0, errors.Errorf("duration must not be negative: %s", arg)
	}
	return d, nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
