package internal

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// OutputWriter writes transcripts and metadata records to a directory
type OutputWriter struct {
	dir string
}

// NewOutputWriter creates a writer for the given output directory
func NewOutputWriter(dir string) *OutputWriter {
	if dir == "" {
		dir = "."
	}
	return &OutputWriter{dir: dir}
}

// Dir returns the output directory
func (w *OutputWriter) Dir() string {
	return w.dir
}

// TranscriptPath returns <dir>/<title>_transcription.txt
func (w *OutputWriter) TranscriptPath(title string) string {
	return filepath.Join(w.dir, SanitizeTitle(title)+"_transcription.txt")
}

// MetadataPath returns <dir>/<title>_metadata.json
func (w *OutputWriter) MetadataPath(title string) string {
	return filepath.Join(w.dir, SanitizeTitle(title)+"_metadata.json")
}

// WriteTranscript writes the transcript verbatim, replacing any previous file
func (w *OutputWriter) WriteTranscript(title, transcript string) (string, error) {
	path := w.TranscriptPath(title)
	if err := w.write(path, []byte(transcript)); err != nil {
		return "", err
	}
	return path, nil
}

// WriteMetadata writes the metadata as 4-space indented JSON, replacing any previous file
func (w *OutputWriter) WriteMetadata(metadata *VideoMetadata) (string, error) {
	path := w.MetadataPath(metadata.Title)

	data, err := json.MarshalIndent(metadata, "", "    ")
	if err != nil {
		return "", fileAccessError("marshaling metadata for", path, err)
	}

	if err := w.write(path, data); err != nil {
		return "", err
	}
	return path, nil
}

func (w *OutputWriter) write(path string, data []byte) error {
	if err := EnsureDirs(w.dir); err != nil {
		return fileAccessError("creating output directory", w.dir, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fileAccessError("writing", path, err)
	}
	return nil
}
