package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pokgak/lgtm-cli/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("lgtm", version.Full())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
