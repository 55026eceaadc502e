package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rtzll/ytscribe/internal"
)

var (
	config     *internal.Config
	configFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ytscribe -u [URLs or file]",
	Short: "YouTube audio transcription",
	Long: `ytscribe downloads the audio of YouTube videos and transcribes it with Whisper.

For every URL it writes <title>_transcription.txt and <title>_metadata.json
(title, channel, publish date, detected language) to the output directory.
URLs are processed one at a time; a failed video is skipped and the batch
continues with the next one.`,
	Example: `  # Transcribe two videos into the current directory
  ytscribe -u "https://youtu.be/tAP1eZYEuKA,https://www.youtube.com/watch?v=dQw4w9WgXcQ"

  # Read URLs from a file, one per line
  ytscribe -u urls.txt -o transcripts

  # Use a larger model and force Spanish
  ytscribe -u urls.txt -m medium -l es

  # Use the OpenAI Whisper API instead of the local whisper CLI
  ytscribe -u urls.txt --backend openai`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := internal.EnsureDirs(config.ConfigDir, config.DataDir, config.CacheDir); err != nil {
			return fmt.Errorf("creating XDG directories: %w", err)
		}

		if configFile == "" {
			if err := internal.EnsureDefaultConfig(config.ConfigDir); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: Failed to ensure default config: %v\n", err)
			}
		}

		return internal.HandleVerboseFlag(cmd, config)
	},
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := internal.ApplyBatchFlags(cmd, config); err != nil {
			return err
		}
		urls, _ := cmd.Flags().GetString("urls")

		// usage is only useful for flag errors
		cmd.SilenceUsage = true

		app, err := internal.NewApp(config)
		if err != nil {
			return err
		}
		defer app.Close()

		summary, err := app.Run(cmd.Context(), urls)
		if summary != nil {
			app.Report(summary)
		}
		if err != nil {
			if cmd.Context().Err() != nil {
				if cleanupErr := internal.CleanupTempDir(config.TempDir); cleanupErr != nil {
					fmt.Fprintf(os.Stderr, "Error cleaning up temporary files: %v\n", cleanupErr)
				}
			}
			return err
		}
		return summary.Err()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
			return
		}
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal. Stopping after the current step...")
		// a second signal terminates immediately
		signal.Stop(sigCh)
		cancel()
	}()

	rootCmd.SetContext(ctx)

	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(func() {
		config = internal.InitConfig(configFile)
	})

	internal.AddBatchFlags(rootCmd)
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for debugging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Only print warnings and errors")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default is $XDG_CONFIG_HOME/ytscribe/config.toml)")
}
