package internal

import (
	"context"
	"embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// CommandRunner executes external commands
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// DefaultCommandRunner implements CommandRunner
type DefaultCommandRunner struct{}

func (r *DefaultCommandRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// Transcription backends
const (
	BackendLocal  = "local"
	BackendOpenAI = "openai"
)

// ModelSizes lists the accepted Whisper model sizes
var ModelSizes = []string{"tiny", "base", "small", "medium", "large"}

// Config holds application settings
type Config struct {
	// User configurable settings
	OutputDir         string
	ModelSize         string
	Language          string
	Backend           string
	WhisperCommand    string
	DownloadTimeout   time.Duration
	TranscribeTimeout time.Duration
	Ledger            bool
	LogFile           bool
	Verbose           bool
	Quiet             bool
	OpenAIAPIKey      string

	// Fixed XDG paths (not configurable)
	ConfigDir  string
	DataDir    string
	CacheDir   string
	TempDir    string
	LedgerPath string
	LogPath    string
}

//go:embed config.toml
var defaultFS embed.FS

// WhisperLimit is the maximum file size accepted by OpenAI's Whisper API (25 MiB)
const WhisperLimit int64 = 25 << 20

// EnsureDefaultConfig checks if a config file exists in the XDG config directory
// and creates it from the embedded default if it doesn't exist
func EnsureDefaultConfig(configDir string) error {
	filePath := filepath.Join(configDir, "config.toml")
	if FileExists(filePath) {
		return nil
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	defaultContent, err := defaultFS.ReadFile("config.toml")
	if err != nil {
		return fmt.Errorf("reading embedded default configuration: %w", err)
	}

	if err := os.WriteFile(filePath, defaultContent, 0644); err != nil {
		return fmt.Errorf("writing default configuration: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Created default configuration at %s\n", filePath)
	return nil
}

// InitConfig initializes Viper and loads configuration.
// configFile overrides the config file lookup when non-empty.
func InitConfig(configFile string) *Config {
	configDir := filepath.Join(xdg.ConfigHome, "ytscribe")
	dataDir := filepath.Join(xdg.DataHome, "ytscribe")
	cacheDir := filepath.Join(xdg.CacheHome, "ytscribe")

	v := viper.New()

	v.SetDefault("output_dir", ".")
	v.SetDefault("model_size", "base")
	v.SetDefault("language", "") // empty means auto-detect
	v.SetDefault("backend", BackendLocal)
	v.SetDefault("whisper_command", "whisper")
	v.SetDefault("download_timeout", time.Duration(0))
	v.SetDefault("transcribe_timeout", time.Duration(0))
	v.SetDefault("ledger", true)
	v.SetDefault("log_file", false)
	v.SetDefault("verbose", false)
	v.SetDefault("quiet", false)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("YTSCRIBE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("openai_api_key", "OPENAI_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Warning: Error reading config file: %v\n", err)
		}
	}

	config := &Config{
		OutputDir:         v.GetString("output_dir"),
		ModelSize:         v.GetString("model_size"),
		Language:          v.GetString("language"),
		Backend:           v.GetString("backend"),
		WhisperCommand:    v.GetString("whisper_command"),
		DownloadTimeout:   v.GetDuration("download_timeout"),
		TranscribeTimeout: v.GetDuration("transcribe_timeout"),
		Ledger:            v.GetBool("ledger"),
		LogFile:           v.GetBool("log_file"),
		Verbose:           v.GetBool("verbose"),
		Quiet:             v.GetBool("quiet"),
		OpenAIAPIKey:      v.GetString("openai_api_key"),

		ConfigDir:  configDir,
		DataDir:    dataDir,
		CacheDir:   cacheDir,
		TempDir:    filepath.Join(cacheDir, "jobs"),
		LedgerPath: filepath.Join(dataDir, "ledger.db"),
		LogPath:    filepath.Join(cacheDir, "ytscribe.log"),
	}

	if config.Verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", v.ConfigFileUsed())
	}

	return config
}

// Validate checks the settings a batch run depends on
func (c *Config) Validate() error {
	if err := ValidateModelSize(c.ModelSize); err != nil {
		return err
	}

	switch c.Backend {
	case BackendLocal:
	case BackendOpenAI:
		if err := ValidateOpenAIAPIKey(c.OpenAIAPIKey); err != nil {
			return err
		}
	default:
		return inputErrorf("unsupported backend: %s (supported: %s, %s)", c.Backend, BackendLocal, BackendOpenAI)
	}

	if c.DownloadTimeout < 0 || c.TranscribeTimeout < 0 {
		return inputErrorf("timeouts must not be negative")
	}
	return nil
}

// ValidateModelSize checks if the Whisper model size is supported
func ValidateModelSize(size string) error {
	if slices.Contains(ModelSizes, size) {
		return nil
	}
	return inputErrorf("unsupported model size: %s (supported: %s)", size, strings.Join(ModelSizes, ", "))
}

// ValidateOpenAIAPIKey checks if the OpenAI API key is set and returns a standardized error if not
func ValidateOpenAIAPIKey(apiKey string) error {
	if apiKey == "" {
		return inputErrorf("OpenAI API key is required for the openai backend - set it in config.toml or OPENAI_API_KEY environment variable")
	}
	return nil
}
