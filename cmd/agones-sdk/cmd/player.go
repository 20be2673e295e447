package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/msto63/agones-sdk-go/pkg/sdk"
)

var playerCmd = &cobra.Command{
	Use:   "player",
	Short: "Player tracking (alpha)",
}

var playerConnectCmd = &cobra.Command{
	Use:   "connect <id>",
	Short: "Record a connected player",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSDK(func(s *sdk.SDK) error {
			added, err := s.Alpha().PlayerConnect(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if added {
				fmt.Fprintf(cmd.OutOrStdout(), "player %s connected\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "player %s was already connected\n", args[0])
			}
			return nil
		})
	},
}

var playerDisconnectCmd = &cobra.Command{
	Use:   "disconnect <id>",
	Short: "Remove a connected player",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSDK(func(s *sdk.SDK) error {
			removed, err := s.Alpha().PlayerDisconnect(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if removed {
				fmt.Fprintf(cmd.OutOrStdout(), "player %s disconnected\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "player %s was not connected\n", args[0])
			}
			return nil
		})
	},
}

var playerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List connected players",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSDK(func(s *sdk.SDK) error {
			players, err := s.Alpha().GetConnectedPlayers(cmd.Context())
			if err != nil {
				return err
			}
			if len(players) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(players, "\n"))
			}
			return nil
		})
	},
}

var playerCapacityCmd = &cobra.Command{
	Use:   "capacity [n]",
	Short: "Print or set the player capacity",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSDK(func(s *sdk.SDK) error {
			if len(args) == 0 {
				capacity, err := s.Alpha().GetPlayerCapacity(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), capacity)
				return nil
			}

			capacity, err := parseCount(args[0])
			if err != nil {
				return err
			}
			if err := s.Alpha().SetPlayerCapacity(cmd.Context(), capacity); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "player capacity set to %d\n", capacity)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(playerCmd)
	playerCmd.AddCommand(playerConnectCmd)
	playerCmd.AddCommand(playerDisconnectCmd)
	playerCmd.AddCommand(playerListCmd)
	playerCmd.AddCommand(playerCapacityCmd)
}

// parseCount parses a non-negative integer argument
func parseCount(arg string) (int64, error) {
	n, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid number %q", arg)
	}
	if n < 0 {
		return 0, errors.Errorf("number must not be negative: %d", n)
	}
	return n, nil
}
