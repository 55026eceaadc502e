package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My Video", "My_Video"},
		{"AC/DC Live", "AC_DC_Live"},
		{`back\slash`, "back_slash"},
		{"tabs\tand\nnewlines", "tabs_and_newlines"},
		{"already_clean", "already_clean"},
		{"", DefaultTitle},
		{"   ", DefaultTitle},
		{"Ünïcödé Tïtle", "Ünïcödé_Tïtle"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeTitle(tt.in))
		})
	}
}

func TestSanitizeTitle_Idempotent(t *testing.T) {
	inputs := []string{"My Video", "a / b / c", " leading", "x y", "", "ok", "//"}
	for _, in := range inputs {
		once := SanitizeTitle(in)
		assert.Equal(t, once, SanitizeTitle(once), "input %q", in)
		assert.False(t, strings.ContainsAny(once, " /\\\t\n"), "input %q left separators in %q", in, once)
	}
}

func TestSanitizeTitle_CapsLength(t *testing.T) {
	tests := map[string]string{
		"cjk":   strings.Repeat("日", 100),
		"emoji": strings.Repeat("🎵 ", 80),
		"ascii": strings.Repeat("a", 300),
		"mixed": "a" + strings.Repeat("é", 150),
	}

	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			got := SanitizeTitle(in)
			assert.LessOrEqual(t, len(got), MaxTitleBytes)
			assert.True(t, utf8.ValidString(got))
			assert.Equal(t, got, SanitizeTitle(got))
			assert.LessOrEqual(t, len(got+"_transcription.txt"), 255)
		})
	}

	// 66 runes of 3 bytes fit, the 67th would cross the limit
	assert.Equal(t, strings.Repeat("日", 66), SanitizeTitle(strings.Repeat("日", 100)))
	assert.Equal(t, strings.Repeat("a", MaxTitleBytes), SanitizeTitle(strings.Repeat("a", 300)))
}

func TestGetVideoID(t *testing.T) {
	tests := map[string]string{
		"https://www.youtube.com/watch?v=tAP1eZYEuKA":      "tAP1eZYEuKA",
		"https://youtu.be/tAP1eZYEuKA":                     "tAP1eZYEuKA",
		"https://youtube.com/shorts/abcdefghijk":           "abcdefghijk",
		"https://m.youtube.com/watch?v=tAP1eZYEuKA&t=42":   "tAP1eZYEuKA",
		"https://vimeo.com/12345":                          "",
		"not a url":                                        "",
		"https://www.youtube.com/playlist?list=PL12345678": "",
	}

	for in, want := range tests {
		assert.Equal(t, want, getVideoID(in), "url %q", in)
	}
}

func TestCleanupTempDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "jobs")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "job-1"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "job-1", "audio.mp3"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stray.mp3"), []byte("x"), 0644))

	require.NoError(t, CleanupTempDir(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCleanupTempDir_Missing(t *testing.T) {
	assert.NoError(t, CleanupTempDir(filepath.Join(t.TempDir(), "missing")))
}

func TestEnsureDirs_CreatesAll(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a")
	b := filepath.Join(root, "b", "c")

	require.NoError(t, EnsureDirs(a, b))
	assert.DirExists(t, a)
	assert.DirExists(t, b)
}
