package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rtzll/ytscribe/internal"
)

// metadataCmd represents the metadata command
var metadataCmd = &cobra.Command{
	Use:   "metadata [URL]",
	Short: "Get metadata from YouTube video",
	Example: `  # Get metadata from YouTube video
  ytscribe metadata "https://www.youtube.com/watch?v=tAP1eZYEuKA"

  # Save metadata to file
  ytscribe metadata "https://youtu.be/tAP1eZYEuKA" -o metadata.json --pretty`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		app, err := internal.NewApp(config)
		if err != nil {
			return err
		}
		defer app.Close()

		metadata, err := app.Metadata(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		view := struct {
			ID          string  `json:"id,omitempty"`
			Title       string  `json:"title"`
			Channel     string  `json:"channel"`
			PublishDate string  `json:"publish_date"`
			Duration    float64 `json:"duration,omitempty"`
		}{metadata.ID, metadata.Title, metadata.Channel, metadata.PublishDate, metadata.Duration}

		var jsonData []byte
		pretty, _ := cmd.Flags().GetBool("pretty")
		if pretty {
			jsonData, err = json.MarshalIndent(view, "", "    ")
		} else {
			jsonData, err = json.Marshal(view)
		}
		if err != nil {
			return fmt.Errorf("converting metadata to JSON: %w", err)
		}

		outputFile, _ := cmd.Flags().GetString("output")
		if outputFile != "" {
			return os.WriteFile(outputFile, jsonData, 0644)
		}

		fmt.Println(string(jsonData))
		return nil
	},
}

func init() {
	metadataCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	metadataCmd.Flags().Bool("pretty", false, "Format output as pretty JSON")
	rootCmd.AddCommand(metadataCmd)
}
