package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// pathsCmd represents the paths command
var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show paths used by the application",
	Example: `  # Show all application paths
  ytscribe paths`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Config directory: %s\n", config.ConfigDir)
		fmt.Printf("Data directory: %s\n", config.DataDir)
		fmt.Printf("Cache directory: %s\n", config.CacheDir)
		fmt.Printf("Job work directory: %s\n", config.TempDir)
		fmt.Printf("History database: %s\n", config.LedgerPath)
		fmt.Printf("Log file: %s\n", config.LogPath)
		fmt.Printf("Output directory: %s\n", config.OutputDir)
	},
}

func init() {
	rootCmd.AddCommand(pathsCmd)
}
