package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/guidebook/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize guidebook configuration with an interactive wizard",
	Long:  `Runs an interactive wizard that locates your built book and writes a .guidebook.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
