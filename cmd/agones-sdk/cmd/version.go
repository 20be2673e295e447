package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msto63/agones-sdk-go/pkg/core/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "agones-sdk v%s\n", version.SDK)
		fmt.Fprintf(out, "  Agones API: %s\n", version.AgonesAPI)
		fmt.Fprintf(out, "  Git Commit: %s\n", version.GitCommit)
		fmt.Fprintf(out, "  Build Date: %s\n", version.BuildDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
