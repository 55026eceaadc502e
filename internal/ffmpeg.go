package internal

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
)

// Audio splits audio files with ffprobe/ffmpeg
type Audio struct {
	cmdRunner CommandRunner
	verbose   bool
}

// NewAudio creates a new audio processor
func NewAudio(cmdRunner CommandRunner, verbose bool) *Audio {
	return &Audio{
		cmdRunner: cmdRunner,
		verbose:   verbose,
	}
}

// Duration returns the audio file duration in seconds
func (a *Audio) Duration(ctx context.Context, audioFile string) (float64, error) {
	output, err := a.cmdRunner.Run(ctx, "ffprobe",
		"-i", audioFile,
		"-show_entries", "format=duration",
		"-v", "quiet",
		"-of", "csv=p=0")
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w\nOutput: %s", err, string(output))
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("parsing duration: %w", err)
	}

	return duration, nil
}

// Split cuts audioFile into numChunks segments of equal length.
// Chunks are written next to audioFile so they share the job's cleanup.
func (a *Audio) Split(ctx context.Context, audioFile string, numChunks int) ([]string, error) {
	if numChunks < 2 {
		return []string{audioFile}, nil
	}

	duration, err := a.Duration(ctx, audioFile)
	if err != nil {
		return nil, fmt.Errorf("getting audio duration: %w", err)
	}

	chunkDuration := int(math.Ceil(duration / float64(numChunks)))
	dir := filepath.Dir(audioFile)
	ext := filepath.Ext(audioFile)
	base := strings.TrimSuffix(filepath.Base(audioFile), ext)
	chunks := make([]string, 0, numChunks)

	for i := range numChunks {
		output := filepath.Join(dir, fmt.Sprintf("%s_chunk_%d%s", base, i, ext))
		if err := a.Chunk(ctx, audioFile, i*chunkDuration, chunkDuration, output); err != nil {
			cleanupFiles(chunks...)
			return nil, fmt.Errorf("creating chunk %d: %w", i, err)
		}
		chunks = append(chunks, output)
	}

	if a.verbose {
		fmt.Printf("Split %s into %d chunks of %ds\n", filepath.Base(audioFile), numChunks, chunkDuration)
	}

	return chunks, nil
}

// Chunk extracts a segment from an audio file
func (a *Audio) Chunk(ctx context.Context, audioFile string, start, duration int, output string) error {
	cmdOutput, err := a.cmdRunner.Run(ctx, "ffmpeg",
		"-v", "quiet",
		"-i", audioFile,
		"-ss", strconv.Itoa(start),
		"-t", strconv.Itoa(duration),
		"-c:a", "copy",
		"-y", output)
	if err != nil {
		return fmt.Errorf("ffmpeg failed: %w\nOutput: %s", err, string(cmdOutput))
	}
	return nil
}
