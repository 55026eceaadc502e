package internal

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/tidwall/gjson"
)

// OpenAIClientInterface defines the interface for OpenAI client operations
type OpenAIClientInterface interface {
	CreateTranscription(ctx context.Context, file io.Reader, language string) (text, detected string, err error)
}

// OpenAIClient wraps the official OpenAI Go SDK
type OpenAIClient struct {
	client *openai.Client
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(apiKey string) *OpenAIClient {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIClient{client: &client}
}

// CreateTranscription sends one audio file to whisper-1 and returns its text and language
func (c *OpenAIClient) CreateTranscription(ctx context.Context, file io.Reader, language string) (string, string, error) {
	params := openai.AudioTranscriptionNewParams{
		File:           file,
		Model:          openai.AudioModelWhisper1,
		ResponseFormat: openai.AudioResponseFormatVerboseJSON,
	}
	if language != "" {
		params.Language = openai.String(language)
	}

	resp, err := c.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", "", err
	}
	// verbose_json carries the detected language next to the text
	return resp.Text, gjson.Get(resp.RawJSON(), "language").String(), nil
}

// AI transcribes audio through OpenAI's Whisper API
type AI struct {
	client       OpenAIClientInterface
	audio        *Audio
	whisperLimit int64
	verbose      bool
	apiKey       string
	clientOnce   sync.Once
}

// NewAI creates a new AI transcriber
func NewAI(client OpenAIClientInterface, audio *Audio, whisperLimit int64, verbose bool) *AI {
	return &AI{
		client:       client,
		audio:        audio,
		whisperLimit: whisperLimit,
		verbose:      verbose,
	}
}

// NewAIWithKey creates a new AI transcriber with lazy client initialization
func NewAIWithKey(apiKey string, audio *Audio, whisperLimit int64, verbose bool) *AI {
	return &AI{
		audio:        audio,
		whisperLimit: whisperLimit,
		verbose:      verbose,
		apiKey:       apiKey,
	}
}

// Name returns the backend name
func (ai *AI) Name() string {
	return BackendOpenAI
}

// ensureClient initializes the OpenAI client if needed
func (ai *AI) ensureClient() error {
	if ai.client != nil {
		return nil
	}

	if ai.apiKey == "" {
		return ValidateOpenAIAPIKey("")
	}

	ai.clientOnce.Do(func() {
		ai.client = NewOpenAIClient(ai.apiKey)
	})

	return nil
}

// Transcribe transcribes audio using OpenAI's Whisper API.
// The model size does not apply, the API always runs whisper-1.
func (ai *AI) Transcribe(ctx context.Context, audioFile string, opts TranscribeOptions) (*Transcription, error) {
	if err := ai.ensureClient(); err != nil {
		return nil, err
	}

	if ai.verbose {
		fmt.Printf("Transcribing audio file with the Whisper API: %s\n", audioFile)
	}

	info, err := os.Stat(audioFile)
	if err != nil {
		return nil, fmt.Errorf("getting audio file info: %w", err)
	}

	numChunks := int(math.Ceil(float64(info.Size()) / float64(ai.whisperLimit)))

	chunks := []string{audioFile}
	if numChunks > 1 {
		chunks, err = ai.audio.Split(ctx, audioFile, numChunks)
		if err != nil {
			return nil, fmt.Errorf("splitting audio: %w", err)
		}
		defer cleanupFiles(chunks...)
	}

	text, detected, err := ai.processAudioChunks(ctx, chunks, opts.Language)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, emptyTranscriptError(audioFile)
	}

	return &Transcription{
		Text:     text,
		Language: effectiveLanguage(opts.Language, detected),
	}, nil
}

// processAudioChunks transcribes audio chunks sequentially.
// The detected language is taken from the first chunk.
func (ai *AI) processAudioChunks(ctx context.Context, chunks []string, language string) (string, string, error) {
	numChunks := len(chunks)

	var sb strings.Builder
	var detected string
	for i, chunkPath := range chunks {
		file, err := os.Open(chunkPath)
		if err != nil {
			return "", "", fmt.Errorf("opening chunk %s: %w", chunkPath, err)
		}

		text, lang, err := ai.client.CreateTranscription(ctx, file, language)
		if closeErr := file.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close file %s: %v\n", chunkPath, closeErr)
		}
		if err != nil {
			return "", "", fmt.Errorf("transcribing chunk %d: %w", i+1, err)
		}

		if i == 0 {
			detected = lang
		}

		sb.WriteString(strings.TrimSpace(text))
		if i < numChunks-1 {
			sb.WriteString("\n")
		}

		if ai.verbose && numChunks > 1 {
			fmt.Printf("Transcribed chunk %d/%d\n", i+1, numChunks)
		}
	}

	return sb.String(), detected, nil
}
