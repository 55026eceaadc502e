package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rtzll/ytscribe/internal"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP server exposing ytscribe as tools",
	Long: `Run a Model Context Protocol (MCP) server that exposes ytscribe as tools.

The MCP server provides two tools:
- get_youtube_metadata: title, channel and publish date of a video
- transcribe_youtube_audio: download, transcribe and save one video

Transcripts are written to the configured output directory, exactly as in a
batch run. Server activity is logged to the log file in the cache directory.

Transport options:
- stdio (default): Standard MCP transport via stdin/stdout
- http: HTTP transport on specified port (use --port to configure)`,
	Example: `  # Run MCP server with stdio transport
  ytscribe mcp

  # Run MCP server with HTTP transport on port 8080
  ytscribe mcp --transport=http --port=8080`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// stdout belongs to the protocol
		config.Verbose = false
		config.Quiet = true
		config.LogFile = true
		return config.Validate()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		if transport != "stdio" && transport != "http" {
			return fmt.Errorf("unsupported transport: %s (supported: stdio, http)", transport)
		}

		app, err := internal.NewApp(config,
			internal.WithUI(internal.NewWriterUIManager(io.Discard, os.Stderr, false, true)),
			internal.WithLogger(internal.OpenLogger(config.LogPath, "MCP", true)),
		)
		if err != nil {
			return err
		}
		defer app.Close()

		return internal.NewMCPServer(app).Start(cmd.Context(), transport, port)
	},
}

func init() {
	mcpCmd.Flags().String("transport", "stdio", "Transport protocol (stdio or http)")
	mcpCmd.Flags().Int("port", 8080, "Port for HTTP transport (only used with --transport=http)")
	rootCmd.AddCommand(mcpCmd)
}
