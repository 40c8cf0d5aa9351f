package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pokgak/lgtm-cli/pkg/config"
)

var instancesCmd = &cobra.Command{
	Use:   "instances",
	Short: "List configured instances",
	Args:  cobra.NoArgs,
	RunE:  runInstances,
}

func init() {
	rootCmd.AddCommand(instancesCmd)
}

func runInstances(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	renderer, err := newRenderer()
	if err != nil {
		return err
	}

	return renderer.Instances(cfg)
}
