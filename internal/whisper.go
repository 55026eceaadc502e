package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
)

// Compute devices for the local backend
const (
	DeviceCUDA = "cuda"
	DeviceCPU  = "cpu"
)

// LocalWhisper transcribes with the openai-whisper command line tool
type LocalWhisper struct {
	cmdRunner CommandRunner
	command   string
	verbose   bool
}

// NewLocalWhisper creates a transcriber running the given whisper executable
func NewLocalWhisper(cmdRunner CommandRunner, command string, verbose bool) *LocalWhisper {
	if command == "" {
		command = "whisper"
	}
	return &LocalWhisper{
		cmdRunner: cmdRunner,
		command:   command,
		verbose:   verbose,
	}
}

// Name returns the backend name
func (w *LocalWhisper) Name() string {
	return BackendLocal
}

// Device picks the GPU when nvidia-smi lists one, else the CPU
func (w *LocalWhisper) Device(ctx context.Context) string {
	output, err := w.cmdRunner.Run(ctx, "nvidia-smi", "-L")
	if err != nil || !strings.Contains(string(output), "GPU") {
		return DeviceCPU
	}
	return DeviceCUDA
}

// Transcribe runs whisper on audioFile and reads back its JSON output.
// The JSON file is written next to the audio file.
func (w *LocalWhisper) Transcribe(ctx context.Context, audioFile string, opts TranscribeOptions) (*Transcription, error) {
	device := w.Device(ctx)
	if w.verbose {
		fmt.Printf("Using device: %s\n", strings.ToUpper(device))
		fmt.Printf("Transcribing audio using model: %s...\n", opts.ModelSize)
	}

	outputDir := filepath.Dir(audioFile)
	args := buildWhisperArgs(audioFile, outputDir, device, opts)

	output, err := w.cmdRunner.Run(ctx, w.command, args...)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w\nOutput: %s", w.command, err, strings.TrimSpace(string(output)))
	}

	base := strings.TrimSuffix(filepath.Base(audioFile), filepath.Ext(audioFile))
	jsonPath := filepath.Join(outputDir, base+".json")
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("reading whisper output: %w", err)
	}

	return parseWhisperJSON(data, audioFile, opts.Language)
}

// buildWhisperArgs builds the whisper CLI arguments for JSON output
func buildWhisperArgs(audioFile, outputDir, device string, opts TranscribeOptions) []string {
	modelSize := opts.ModelSize
	if modelSize == "" {
		modelSize = "base"
	}

	args := []string{
		audioFile,
		"--model", modelSize,
		"--device", device,
		"--output_format", "json",
		"--output_dir", outputDir,
		"--verbose", "False",
	}

	// half precision is not supported on CPU
	if device == DeviceCPU {
		args = append(args, "--fp16", "False")
	}

	if lang := strings.TrimSpace(opts.Language); lang != "" {
		args = append(args, "--language", lang)
	}

	return args
}

// parseWhisperJSON extracts the transcript and language from whisper's JSON output
func parseWhisperJSON(data []byte, audioFile, forcedLanguage string) (*Transcription, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("whisper output for %s is not valid JSON", audioFile)
	}

	text := strings.TrimSpace(gjson.GetBytes(data, "text").String())
	if text == "" {
		return nil, emptyTranscriptError(audioFile)
	}

	return &Transcription{
		Text:     text,
		Language: effectiveLanguage(forcedLanguage, gjson.GetBytes(data, "language").String()),
	}, nil
}
