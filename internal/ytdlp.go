package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lrstanley/go-ytdlp"
)

// Metadata defaults for fields yt-dlp does not report
const (
	DefaultChannel     = "Unknown Channel"
	DefaultPublishDate = "Unknown Date"
)

// VideoMetadata is the per-video record persisted as <title>_metadata.json
type VideoMetadata struct {
	Title            string `json:"title"`
	Channel          string `json:"channel"`
	PublishDate      string `json:"publish_date"`
	DetectedLanguage string `json:"detected_language"`

	// Not persisted
	ID       string  `json:"-"`
	Duration float64 `json:"-"`
}

// DownloadResult is a downloaded audio file and the video it came from
type DownloadResult struct {
	AudioPath string
	Metadata  *VideoMetadata
}

// Downloader fetches audio and metadata for a video URL
type Downloader interface {
	// Download saves the best audio stream as mp3 inside workDir
	Download(ctx context.Context, videoURL, workDir string) (*DownloadResult, error)
	// Metadata fetches video details without downloading media
	Metadata(ctx context.Context, videoURL string) (*VideoMetadata, error)
}

// ytdlpInfo is the subset of yt-dlp's info JSON we read
type ytdlpInfo struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Channel    string  `json:"channel"`
	Uploader   string  `json:"uploader"`
	UploadDate string  `json:"upload_date"`
	Duration   float64 `json:"duration"`
}

// YouTube implements Downloader on top of yt-dlp
type YouTube struct {
	verbose     bool
	installOnce sync.Once
	installErr  error
}

// NewYouTube creates a new YouTube downloader
func NewYouTube(verbose bool) *YouTube {
	return &YouTube{verbose: verbose}
}

// ensureInstalled resolves a yt-dlp binary, downloading one if needed
func (yt *YouTube) ensureInstalled(ctx context.Context) error {
	yt.installOnce.Do(func() {
		if _, err := ytdlp.Install(ctx, nil); err != nil {
			yt.installErr = fmt.Errorf("installing yt-dlp: %w", err)
		}
	})
	return yt.installErr
}

// Download gets the best available audio stream as mp3 and the video metadata
func (yt *YouTube) Download(ctx context.Context, videoURL, workDir string) (*DownloadResult, error) {
	if err := yt.ensureInstalled(ctx); err != nil {
		return nil, err
	}

	if yt.verbose {
		fmt.Printf("Downloading audio to %s...\n", workDir)
	}

	dl := ytdlp.New().
		Format("bestaudio/best"). // Best audio, falling back to best combined stream
		ExtractAudio().
		AudioFormat("mp3").
		NoPlaylist().
		DumpSingleJSON(). // Print the info JSON...
		NoSimulate().     // ...and still download
		Output(filepath.Join(workDir, "audio.%(ext)s"))

	result, err := dl.Run(ctx, videoURL)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp failed: %w%s", err, stderrSuffix(result))
	}

	metadata, err := parseVideoInfo([]byte(result.Stdout))
	if err != nil {
		return nil, err
	}

	audioPath, err := findAudioFile(workDir)
	if err != nil {
		return nil, err
	}

	if yt.verbose {
		fmt.Printf("Audio downloaded: %s (%s, %.0f seconds)\n", audioPath, metadata.Title, metadata.Duration)
	}

	return &DownloadResult{AudioPath: audioPath, Metadata: metadata}, nil
}

// Metadata fetches video details using go-ytdlp
func (yt *YouTube) Metadata(ctx context.Context, videoURL string) (*VideoMetadata, error) {
	if err := yt.ensureInstalled(ctx); err != nil {
		return nil, err
	}

	if yt.verbose {
		fmt.Println("Extracting video metadata...")
	}

	dl := ytdlp.New().
		DumpSingleJSON().
		NoPlaylist().
		SkipDownload()

	result, err := dl.Run(ctx, videoURL)
	if err != nil {
		return nil, fmt.Errorf("extracting video metadata: %w%s", err, stderrSuffix(result))
	}

	return parseVideoInfo([]byte(result.Stdout))
}

// parseVideoInfo maps yt-dlp's info JSON to VideoMetadata, applying defaults
func parseVideoInfo(data []byte) (*VideoMetadata, error) {
	var info ytdlpInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parsing video metadata: %w", err)
	}

	channel := info.Channel
	if channel == "" {
		channel = info.Uploader
	}
	if channel == "" {
		channel = DefaultChannel
	}

	publishDate := info.UploadDate
	if publishDate == "" {
		publishDate = DefaultPublishDate
	}

	return &VideoMetadata{
		Title:       SanitizeTitle(info.Title),
		Channel:     channel,
		PublishDate: publishDate,
		ID:          info.ID,
		Duration:    info.Duration,
	}, nil
}

// findAudioFile locates the extracted audio inside workDir, preferring mp3
func findAudioFile(workDir string) (string, error) {
	mp3 := filepath.Join(workDir, "audio.mp3")
	if FileExists(mp3) {
		return mp3, nil
	}

	matches, err := filepath.Glob(filepath.Join(workDir, "audio.*"))
	if err != nil || len(matches) == 0 {
		return "", fmt.Errorf("no audio file found in %s after download", workDir)
	}
	return matches[0], nil
}

// stderrSuffix formats yt-dlp's stderr for error messages
func stderrSuffix(result *ytdlp.Result) string {
	if result == nil {
		return ""
	}
	stderr := strings.TrimSpace(result.Stderr)
	if stderr == "" {
		return ""
	}
	return "\nOutput: " + stderr
}
