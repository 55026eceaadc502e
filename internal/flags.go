package internal

import (
	"fmt"

	"github.com/spf13/cobra"
)

// AddBatchFlags adds the flags of the batch transcription command
func AddBatchFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("urls", "u", "", "Comma-separated YouTube URLs or a file path with one URL per line")
	cmd.Flags().StringP("output_dir", "o", "", "Output directory (default from config, \".\")")
	cmd.Flags().StringP("model_size", "m", "", "Whisper model size: tiny, base, small, medium, large (default from config, \"base\")")
	cmd.Flags().StringP("language", "l", "", "Language code (e.g., 'en' for English, 'es' for Spanish), auto-detect when empty")
	cmd.Flags().String("backend", "", "Transcription backend: local or openai (default from config, \"local\")")
}

// HandleVerboseFlag processes the --verbose and --quiet flags to update config
func HandleVerboseFlag(cmd *cobra.Command, config *Config) error {
	if flag := cmd.Flags().Lookup("verbose"); flag != nil && flag.Changed {
		verbose, err := cmd.Flags().GetBool("verbose")
		if err != nil {
			return fmt.Errorf("failed to get verbose flag: %w", err)
		}
		config.Verbose = verbose
	}

	if flag := cmd.Flags().Lookup("quiet"); flag != nil && flag.Changed {
		quiet, err := cmd.Flags().GetBool("quiet")
		if err != nil {
			return fmt.Errorf("failed to get quiet flag: %w", err)
		}
		config.Quiet = quiet
	}
	return nil
}

// ApplyBatchFlags overrides config values with explicitly set batch flags
func ApplyBatchFlags(cmd *cobra.Command, config *Config) error {
	overrides := map[string]*string{
		"output_dir": &config.OutputDir,
		"model_size": &config.ModelSize,
		"language":   &config.Language,
		"backend":    &config.Backend,
	}

	for name, target := range overrides {
		flag := cmd.Flags().Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		value, err := cmd.Flags().GetString(name)
		if err != nil {
			return fmt.Errorf("failed to get %s flag: %w", name, err)
		}
		*target = value
	}

	return config.Validate()
}
