package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	sdkpb "agones.dev/agones/pkg/sdk"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"google.golang.org/protobuf/encoding/protojson"
	"gopkg.in/yaml.v3"

	"github.com/msto63/agones-sdk-go/internal/tui/watchview"
	"github.com/msto63/agones-sdk-go/pkg/sdk"
)

// Output formats for get and watch
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

var (
	getOutput   string
	watchOutput string
	watchTUI    bool
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current GameServer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSDK(func(s *sdk.SDK) error {
			gs, err := s.GameServer(cmd.Context())
			if err != nil {
				return err
			}
			return writeGameServer(cmd.OutOrStdout(), gs, getOutput)
		})
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream GameServer changes",
	Long: `Prints one line per GameServer update until interrupted or the sidecar
ends the stream. --tui opens an interactive view instead.

Keys (--tui):
  g / G       top / bottom
  PgUp/PgDn   scroll
  q / Ctrl+C  quit`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

var labelCmd = &cobra.Command{
	Use:   "label <key> <value>",
	Short: "Set a label on the GameServer",
	Long:  `The sidecar stores the label as agones.dev/sdk-<key>.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSDK(func(s *sdk.SDK) error {
			if err := s.SetLabel(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "label %s=%s set\n", args[0], args[1])
			return nil
		})
	},
}

var annotateCmd = &cobra.Command{
	Use:   "annotate <key> <value>",
	Short: "Set an annotation on the GameServer",
	Long:  `The sidecar stores the annotation as agones.dev/sdk-<key>.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSDK(func(s *sdk.SDK) error {
			if err := s.SetAnnotation(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "annotation %s=%s set\n", args[0], args[1])
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(labelCmd)
	rootCmd.AddCommand(annotateCmd)

	getCmd.Flags().StringVarP(&getOutput, "output", "o", OutputYAML, "output format: json, yaml or text")
	watchCmd.Flags().StringVarP(&watchOutput, "output", "o", OutputText, "line format: text or json")
	watchCmd.Flags().BoolVar(&watchTUI, "tui", false, "interactive view")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchOutput != OutputText && watchOutput != OutputJSON {
		return errors.Errorf("unsupported watch output %q", watchOutput)
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	return withSDK(func(s *sdk.SDK) error {
		if watchTUI {
			bridge := watchview.NewBridge()
			if err := s.WatchGameServer(ctx, bridge); err != nil {
				return err
			}
			return watchview.Run(ctx, bridge, cfg.SidecarAddress())
		}

		out := cmd.OutOrStdout()
		done := make(chan error, 1)
		w := sdk.WatcherFuncs{
			Next: func(gs *sdkpb.GameServer) {
				if err := writeWatchLine(out, gs, watchOutput, time.Now()); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				}
			},
			Error:     func(err error) { done <- err },
			Completed: func() { done <- nil },
		}
		if err := s.WatchGameServer(ctx, w); err != nil {
			return err
		}
		return <-done
	})
}

// writeGameServer renders gs in the requested format
func writeGameServer(w io.Writer, gs *sdkpb.GameServer, format string) error {
	switch format {
	case OutputJSON:
		b, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(gs)
		if err != nil {
			return errors.Wrap(err, "could not encode GameServer")
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case OutputYAML:
		b, err := toYAML(gs)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	case OutputText:
		_, err := fmt.Fprintln(w, watchview.RenderGameServer(gs))
		return err
	default:
		return errors.Errorf("unsupported output format %q", format)
	}
}

// toYAML goes through protojson so field names match the JSON form
func toYAML(gs *sdkpb.GameServer) ([]byte, error) {
	b, err := protojson.Marshal(gs)
	if err != nil {
		return nil, errors.Wrap(err, "could not encode GameServer")
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, errors.Wrap(err, "could not decode GameServer json")
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "could not encode GameServer yaml")
	}
	return out, nil
}

func writeWatchLine(w io.Writer, gs *sdkpb.GameServer, format string, at time.Time) error {
	if format == OutputJSON {
		b, err := protojson.Marshal(gs)
		if err != nil {
			return errors.Wrap(err, "could not encode GameServer")
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}
	_, err := fmt.Fprintf(w, "%s %s\n", at.Format(time.RFC3339), summaryLine(gs))
	return err
}

// summaryLine is a one-line view of the fields that change during a match
func summaryLine(gs *sdkpb.GameServer) string {
	if gs == nil {
		return "<nil>"
	}
	parts := []string{"name=" + gs.GetObjectMeta().GetName()}

	status := gs.GetStatus()
	parts = append(parts, "state="+status.GetState())
	if status.GetAddress() != "" {
		parts = append(parts, "address="+status.GetAddress())
	}
	if players := status.GetPlayers(); players != nil {
		parts = append(parts, fmt.Sprintf("players=%d/%d", players.GetCount(), players.GetCapacity()))
	}
	for _, name := range sortedNames(status.GetCounters()) {
		c := status.GetCounters()[name]
		parts = append(parts, fmt.Sprintf("counter.%s=%d/%d", name, c.GetCount(), c.GetCapacity()))
	}
	for _, name := range sortedNames(status.GetLists()) {
		l := status.GetLists()[name]
		parts = append(parts, fmt.Sprintf("list.%s=%d/%d", name, len(l.GetValues()), l.GetCapacity()))
	}
	return strings.Join(parts, " ")
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
