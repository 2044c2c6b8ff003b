package cmd

import (
	"os"

	"github.com/nanovms/ldemul/log"
	"github.com/nanovms/ldemul/types"
	"github.com/spf13/cobra"
)

// GetRootCommand provides set all commands for ldemul
func GetRootCommand() *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:   "ldemul",
		Short: "shared library resolution and orphan section placement of a linker",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := types.NewConfig()

			globalFlags := NewGlobalCommandFlags(cmd.Flags())
			if err := globalFlags.MergeToConfig(config); err != nil {
				return err
			}

			log.InitDefault(os.Stderr, config)
			return nil
		},
	}

	// persist flags transversal to every command
	PersistGlobalCommandFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(NeededCommand())
	rootCmd.AddCommand(OrphansCommand())
	rootCmd.AddCommand(VersionCommand())

	return rootCmd
}
