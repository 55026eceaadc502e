package internal

import (
	"context"
	"fmt"
)

// TranscribeOptions configures one transcription
type TranscribeOptions struct {
	ModelSize string
	Language  string // empty for auto-detect
}

// Transcription is the text of an audio file and its effective language
type Transcription struct {
	Text     string
	Language string
}

// Transcriber converts an audio file to text
type Transcriber interface {
	Transcribe(ctx context.Context, audioFile string, opts TranscribeOptions) (*Transcription, error)
	Name() string
}

// NewTranscriber creates the Transcriber selected by config.Backend
func NewTranscriber(config *Config) (Transcriber, error) {
	switch config.Backend {
	case BackendLocal, "":
		return NewLocalWhisper(&DefaultCommandRunner{}, config.WhisperCommand, config.Verbose), nil
	case BackendOpenAI:
		audio := NewAudio(&DefaultCommandRunner{}, config.Verbose)
		return NewAIWithKey(config.OpenAIAPIKey, audio, WhisperLimit, config.Verbose), nil
	default:
		return nil, inputErrorf("unsupported backend: %s", config.Backend)
	}
}

// effectiveLanguage returns the forced language, or the detected one when none was forced
func effectiveLanguage(forced, detected string) string {
	if forced != "" {
		return forced
	}
	return detected
}

// emptyTranscriptError reports a transcription that produced no text
func emptyTranscriptError(audioFile string) error {
	return fmt.Errorf("no speech transcribed from %s", audioFile)
}
