package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msto63/agones-sdk-go/pkg/sdk"
)

var counterCapacity bool

var counterCmd = &cobra.Command{
	Use:   "counter",
	Short: "Counters (beta)",
}

var counterGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Print count and capacity of a counter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSDK(func(s *sdk.SDK) error {
			count, err := s.Beta().GetCounterCount(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			capacity, err := s.Beta().GetCounterCapacity(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d/%d\n", args[0], count, capacity)
			return nil
		})
	},
}

var counterIncrCmd = &cobra.Command{
	Use:   "incr <name> [amount]",
	Short: "Increment a counter (default 1)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := amountArg(args)
		if err != nil {
			return err
		}
		return withSDK(func(s *sdk.SDK) error {
			return s.Beta().IncrementCounter(cmd.Context(), args[0], amount)
		})
	},
}

var counterDecrCmd = &cobra.Command{
	Use:   "decr <name> [amount]",
	Short: "Decrement a counter (default 1)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := amountArg(args)
		if err != nil {
			return err
		}
		return withSDK(func(s *sdk.SDK) error {
			return s.Beta().DecrementCounter(cmd.Context(), args[0], amount)
		})
	},
}

var counterSetCmd = &cobra.Command{
	Use:   "set <name> <n>",
	Short: "Set the count, or the capacity with --capacity",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := parseCount(args[1])
		if err != nil {
			return err
		}
		return withSDK(func(s *sdk.SDK) error {
			if counterCapacity {
				return s.Beta().SetCounterCapacity(cmd.Context(), args[0], n)
			}
			return s.Beta().SetCounterCount(cmd.Context(), args[0], n)
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists (beta)",
}

var listGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Print capacity and values of a list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSDK(func(s *sdk.SDK) error {
			capacity, err := s.Beta().GetListCapacity(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			values, err := s.Beta().GetListValues(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d/%d [%s]\n", args[0], len(values), capacity, strings.Join(values, " "))
			return nil
		})
	},
}

var listAddCmd = &cobra.Command{
	Use:   "add <name> <value>",
	Short: "Append a value to a list",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSDK(func(s *sdk.SDK) error {
			return s.Beta().AppendListValue(cmd.Context(), args[0], args[1])
		})
	},
}

var listRemoveCmd = &cobra.Command{
	Use:   "remove <name> <value>",
	Short: "Remove a value from a list",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSDK(func(s *sdk.SDK) error {
			return s.Beta().DeleteListValue(cmd.Context(), args[0], args[1])
		})
	},
}

func init() {
	rootCmd.AddCommand(counterCmd)
	counterCmd.AddCommand(counterGetCmd)
	counterCmd.AddCommand(counterIncrCmd)
	counterCmd.AddCommand(counterDecrCmd)
	counterCmd.AddCommand(counterSetCmd)

	counterSetCmd.Flags().BoolVar(&counterCapacity, "capacity", false, "set the capacity instead of the count")

	rootCmd.AddCommand(listCmd)
	listCmd.AddCommand(listGetCmd)
	listCmd.AddCommand(listAddCmd)
	listCmd.AddCommand(listRemoveCmd)
}

func amountArg(args []string) (int64, error) {
	if len(args) < 2 {
		return 1, nil
	}
	return parseCount(args[1])
}
