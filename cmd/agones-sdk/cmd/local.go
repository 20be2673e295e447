package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/agones-sdk-go/internal/localsidecar/server"
	"github.com/msto63/agones-sdk-go/internal/localsidecar/service"
)

var (
	localGameServerFile string
	localHTTPPort       int
)

var localCmd = &cobra.Command{
	Use:   "local",
	Short: "Run a local SDK sidecar",
	Long: `Serves the stable, alpha and beta SDK services without Kubernetes, for
developing and testing game servers on a workstation.

The GameServer starts as local/default in state Scheduled. With --file it is
read from a YAML GameServer and reloaded whenever the file changes.

Probes are served on the HTTP port:
  /live  /ready  /metrics`,
	Args: cobra.NoArgs,
	RunE: runLocal,
}

func init() {
	rootCmd.AddCommand(localCmd)

	localCmd.Flags().StringVarP(&localGameServerFile, "file", "f", "", "GameServer YAML file")
	localCmd.Flags().IntVar(&localHTTPPort, "http-port", 0, "probe port (default: 59358)")
}

// localConfig merges the [local] config section with flags. --host and
// --port address the local sidecar here.
func localConfig() server.Config {
	sc := server.Config{
		Host:     cfg.Local.Host,
		Port:     cfg.Local.Port,
		HTTPPort: cfg.Local.HTTPPort,
		Service: service.Config{
			GameServerFile: cfg.Local.GameServerFile,
		},
	}
	if host != "" {
		sc.Host = host
	}
	if port != 0 {
		sc.Port = port
	}
	if localHTTPPort != 0 {
		sc.HTTPPort = localHTTPPort
	}
	if localGameServerFile != "" {
		sc.Service.GameServerFile = localGameServerFile
	}
	return sc
}

func runLocal(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	srv, err := server.New(localConfig())
	if err != nil {
		return err
	}
	if err := srv.StartAsync(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "local sidecar listening on %s\n", srv.GRPCAddress())

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Stop(stopCtx)
}
