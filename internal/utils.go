package internal

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultTitle is used when a video has no usable title
const DefaultTitle = "transcription"

// MaxTitleBytes bounds the filename stem so that the longest suffix still
// fits in a 255 byte file name
const MaxTitleBytes = 200

// SanitizeTitle makes a video title safe to use as a filename stem.
// Whitespace and path separators become underscores, and the result is cut
// to MaxTitleBytes on a rune boundary.
func SanitizeTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return DefaultTitle
	}
	stem := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, title)

	if len(stem) > MaxTitleBytes {
		cut := MaxTitleBytes
		for cut > 0 && !utf8.RuneStart(stem[cut]) {
			cut--
		}
		stem = stem[:cut]
	}
	return stem
}

// getVideoID extracts the video ID from YouTube URLs, empty if there is none
func getVideoID(youtubeURL string) string {
	u, err := url.Parse(strings.TrimSpace(youtubeURL))
	if err != nil {
		return ""
	}

	switch u.Host {
	case "www.youtube.com", "youtube.com", "m.youtube.com", "music.youtube.com":
		if v := u.Query().Get("v"); v != "" {
			return v
		}
		if rest, ok := strings.CutPrefix(u.Path, "/shorts/"); ok {
			return strings.Trim(rest, "/")
		}
	case "youtu.be":
		return strings.Trim(u.Path, "/")
	}
	return ""
}

// CleanupTempDir purges files from a temporary directory
func CleanupTempDir(tempDir string) error {
	if _, err := os.Stat(tempDir); os.IsNotExist(err) {
		return nil
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		return fmt.Errorf("reading temp directory: %w", err)
	}

	for _, entry := range entries {
		path := filepath.Join(tempDir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to remove temporary path %s: %v\n", path, err)
		}
	}

	return nil
}

// FileExists checks if a file exists
func FileExists(filename string) bool {
	_, err := os.Stat(filename)
	return !os.IsNotExist(err)
}

// EnsureDirs creates directories if needed
func EnsureDirs(dirs ...string) error {
	for _, dir := range dirs {
		if !FileExists(dir) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
		}
	}
	return nil
}

// cleanupFiles removes temporary files
func cleanupFiles(files ...string) {
	for _, file := range files {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to remove file %s: %v\n", file, err)
		}
	}
}
