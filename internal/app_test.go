package internal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDownloader writes a placeholder audio file into the job's work directory
type fakeDownloader struct {
	mu       sync.Mutex
	titles   map[string]string
	failures map[string]error
	workDirs []string
	blockCtx bool
	started  chan struct{} // closed when a blocking download begins
}

func (f *fakeDownloader) Download(ctx context.Context, videoURL, workDir string) (*DownloadResult, error) {
	f.mu.Lock()
	f.workDirs = append(f.workDirs, workDir)
	f.mu.Unlock()

	if f.blockCtx {
		if f.started != nil {
			close(f.started)
			f.started = nil
		}
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err, ok := f.failures[videoURL]; ok {
		return nil, err
	}

	audioPath := filepath.Join(workDir, "audio.mp3")
	if err := os.WriteFile(audioPath, []byte("mp3"), 0644); err != nil {
		return nil, err
	}

	title, ok := f.titles[videoURL]
	if !ok {
		title = "T"
	}
	return &DownloadResult{
		AudioPath: audioPath,
		Metadata: &VideoMetadata{
			Title:       title,
			Channel:     "Chan",
			PublishDate: "20240101",
			ID:          "abc",
		},
	}, nil
}

func (f *fakeDownloader) Metadata(ctx context.Context, videoURL string) (*VideoMetadata, error) {
	if err, ok := f.failures[videoURL]; ok {
		return nil, err
	}
	return &VideoMetadata{Title: f.titles[videoURL], Channel: "Chan", PublishDate: "20240101"}, nil
}

// fakeTranscriber returns a fixed transcript and records the audio files it saw
type fakeTranscriber struct {
	text      string
	language  string
	err       error
	audioSeen []string
	opts      []TranscribeOptions
	onCall    func()
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioFile string, opts TranscribeOptions) (*Transcription, error) {
	f.audioSeen = append(f.audioSeen, audioFile)
	f.opts = append(f.opts, opts)
	if f.onCall != nil {
		f.onCall()
	}
	if f.err != nil {
		return nil, f.err
	}
	_, statErr := os.Stat(audioFile)
	if statErr != nil {
		return nil, statErr
	}
	return &Transcription{Text: f.text, Language: effectiveLanguage(opts.Language, f.language)}, nil
}

func (f *fakeTranscriber) Name() string {
	return "fake"
}

type appFixture struct {
	app         *App
	config      *Config
	downloader  *fakeDownloader
	transcriber *fakeTranscriber
	out         *bytes.Buffer
	errOut      *bytes.Buffer
}

func newAppFixture(t *testing.T) *appFixture {
	t.Helper()
	root := t.TempDir()
	config := &Config{
		OutputDir: filepath.Join(root, "out"),
		TempDir:   filepath.Join(root, "cache", "jobs"),
		ModelSize: "base",
		Backend:   BackendLocal,
	}

	f := &appFixture{
		config:      config,
		downloader:  &fakeDownloader{titles: map[string]string{}, failures: map[string]error{}},
		transcriber: &fakeTranscriber{text: "hello", language: "en"},
		out:         &bytes.Buffer{},
		errOut:      &bytes.Buffer{},
	}

	app, err := NewApp(config,
		WithDownloader(f.downloader),
		WithTranscriber(f.transcriber),
		WithUI(NewWriterUIManager(f.out, f.errOut, false, false)),
		WithLogger(&Logger{}),
	)
	require.NoError(t, err)

	ids := 0
	app.newJobID = func() string {
		ids++
		return fmt.Sprintf("job-%d", ids)
	}
	f.app = app
	t.Cleanup(func() { _ = app.Close() })
	return f
}

func readMetadataFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func assertWorkDirsRemoved(t *testing.T, f *appFixture) {
	t.Helper()
	require.NotEmpty(t, f.downloader.workDirs)
	for _, dir := range f.downloader.workDirs {
		assert.NoDirExists(t, dir)
	}
	entries, err := os.ReadDir(f.config.TempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestApp_RunTwoURLs(t *testing.T) {
	f := newAppFixture(t)

	summary, err := f.app.Run(context.Background(), "http://a,http://b")
	require.NoError(t, err)
	require.Len(t, summary.Outcomes, 2)
	assert.Equal(t, 2, summary.Succeeded())
	assert.NoError(t, summary.Err())

	assert.Equal(t, "http://a", summary.Outcomes[0].Job.URL)
	assert.Equal(t, "http://b", summary.Outcomes[1].Job.URL)

	transcript, err := os.ReadFile(filepath.Join(f.config.OutputDir, "T_transcription.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(transcript))

	want := `{
    "title": "T",
    "channel": "Chan",
    "publish_date": "20240101",
    "detected_language": "en"
}`
	assert.Equal(t, want, readMetadataFile(t, filepath.Join(f.config.OutputDir, "T_metadata.json")))

	assert.Contains(t, f.out.String(), "Processing: http://a")
	assert.Contains(t, f.out.String(), "Processing: http://b")
	assert.Less(t, strings.Index(f.out.String(), "Processing: http://a"), strings.Index(f.out.String(), "Processing: http://b"))

	// same title twice
	assert.Contains(t, f.errOut.String(), "Warning: job 2 has the same title as job 1")

	assertWorkDirsRemoved(t, f)
}

func TestApp_DownloadFailureContinues(t *testing.T) {
	f := newAppFixture(t)
	f.downloader.failures["http://bad"] = errors.New("HTTP Error 404")
	f.downloader.titles["http://good"] = "Good"

	summary, err := f.app.Run(context.Background(), "http://bad,http://good")
	require.NoError(t, err)
	require.Len(t, summary.Outcomes, 2)

	bad := summary.Outcomes[0]
	assert.Equal(t, StateAborted, bad.State)
	assert.Equal(t, StateDownloading, bad.Stage)
	assert.ErrorIs(t, bad.Err, ErrDownload)

	var jobErr *JobError
	require.ErrorAs(t, bad.Err, &jobErr)
	assert.Equal(t, "http://bad", jobErr.URL)

	assert.True(t, summary.Outcomes[1].OK())
	assert.FileExists(t, filepath.Join(f.config.OutputDir, "Good_transcription.txt"))

	assert.Contains(t, f.out.String(), "Failed to download audio. Skipping.")
	assert.Equal(t, 1, summary.Failed())
	assert.EqualError(t, summary.Err(), "1 of 2 jobs failed")

	// only one transcription attempted
	assert.Len(t, f.transcriber.audioSeen, 1)
	assertWorkDirsRemoved(t, f)
}

func TestApp_TranscriptionFailureCleansUp(t *testing.T) {
	f := newAppFixture(t)
	f.transcriber.err = errors.New("whisper crashed")

	summary, err := f.app.Run(context.Background(), "http://a")
	require.NoError(t, err)

	out := summary.Outcomes[0]
	assert.Equal(t, StateAborted, out.State)
	assert.Equal(t, StateTranscribing, out.Stage)
	assert.ErrorIs(t, out.Err, ErrTranscription)
	assert.Contains(t, out.Err.Error(), "whisper crashed")
	assert.Contains(t, f.out.String(), "Failed to transcribe audio. Skipping.")

	assert.NoFileExists(t, filepath.Join(f.config.OutputDir, "T_transcription.txt"))
	assert.NoFileExists(t, filepath.Join(f.config.OutputDir, "T_metadata.json"))
	assertWorkDirsRemoved(t, f)
}

func TestApp_WriteFailureIsIsolated(t *testing.T) {
	f := newAppFixture(t)
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	f.app.writer = NewOutputWriter(filepath.Join(blocker, "out"))

	summary, err := f.app.Run(context.Background(), "http://a,http://b")
	require.NoError(t, err)
	require.Len(t, summary.Outcomes, 2)

	for _, out := range summary.Outcomes {
		assert.Equal(t, StateAborted, out.State)
		assert.Equal(t, StateWriting, out.Stage)
		assert.ErrorIs(t, out.Err, ErrFileAccess)
		assert.NotContains(t, out.Err.Error(), "file access failed: file access failed")
	}
	assert.Contains(t, f.out.String(), "Failed to write output. Skipping.")
	assert.Len(t, f.transcriber.audioSeen, 2)
	assertWorkDirsRemoved(t, f)
}

func TestApp_SanitizedTitleAndDetectedLanguage(t *testing.T) {
	f := newAppFixture(t)
	f.downloader.titles["http://a"] = "My Video"
	f.transcriber.language = "es"

	summary, err := f.app.Run(context.Background(), "http://a")
	require.NoError(t, err)

	out := summary.Outcomes[0]
	require.True(t, out.OK())
	assert.Equal(t, filepath.Join(f.config.OutputDir, "My_Video_transcription.txt"), out.TranscriptPath)
	assert.Equal(t, filepath.Join(f.config.OutputDir, "My_Video_metadata.json"), out.MetadataPath)
	assert.Equal(t, "es", out.Metadata.DetectedLanguage)
	assert.Contains(t, readMetadataFile(t, out.MetadataPath), `"detected_language": "es"`)
}

func TestApp_ForcedLanguage(t *testing.T) {
	f := newAppFixture(t)
	f.config.Language = "fr"
	f.config.ModelSize = "small"

	summary, err := f.app.Run(context.Background(), "http://a")
	require.NoError(t, err)

	assert.Equal(t, "fr", summary.Outcomes[0].Metadata.DetectedLanguage)
	require.Len(t, f.transcriber.opts, 1)
	assert.Equal(t, TranscribeOptions{ModelSize: "small", Language: "fr"}, f.transcriber.opts[0])
}

func TestApp_MissingMetadataUsesDefaults(t *testing.T) {
	f := newAppFixture(t)
	f.app.downloader = downloaderFunc(func(ctx context.Context, videoURL, workDir string) (*DownloadResult, error) {
		path := filepath.Join(workDir, "audio.mp3")
		return &DownloadResult{AudioPath: path}, os.WriteFile(path, []byte("x"), 0644)
	})

	summary, err := f.app.Run(context.Background(), "http://a")
	require.NoError(t, err)

	out := summary.Outcomes[0]
	require.True(t, out.OK())
	assert.Equal(t, DefaultTitle, out.Metadata.Title)
	assert.Equal(t, DefaultChannel, out.Metadata.Channel)
	assert.Equal(t, DefaultPublishDate, out.Metadata.PublishDate)
}

func TestApp_InputError(t *testing.T) {
	f := newAppFixture(t)

	summary, err := f.app.Run(context.Background(), " , ")
	assert.ErrorIs(t, err, ErrInput)
	assert.Nil(t, summary)
	assert.Empty(t, f.downloader.workDirs)
}

func TestApp_Cancellation(t *testing.T) {
	f := newAppFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.transcriber.onCall = cancel

	summary, err := f.app.Run(ctx, "http://a,http://b,http://c")
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)

	// the job in flight finishes, the rest never start
	assert.Len(t, summary.Outcomes, 1)
	assert.Len(t, f.downloader.workDirs, 1)
	assertWorkDirsRemoved(t, f)
}

func TestApp_DownloadTimeout(t *testing.T) {
	f := newAppFixture(t)
	f.config.DownloadTimeout = 10 * time.Millisecond
	f.downloader.blockCtx = true

	summary, err := f.app.Run(context.Background(), "http://a")
	require.NoError(t, err)

	out := summary.Outcomes[0]
	assert.ErrorIs(t, out.Err, ErrDownload)
	assert.ErrorIs(t, out.Err, context.DeadlineExceeded)
}

func TestApp_RecordsLedger(t *testing.T) {
	f := newAppFixture(t)
	ledger, err := OpenLedger(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	f.app.ledger = ledger
	f.downloader.failures["http://bad"] = errors.New("boom")

	_, err = f.app.Run(context.Background(), "http://good,http://bad")
	require.NoError(t, err)

	entries, err := ledger.List(context.Background(), LedgerQuery{})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// newest first
	assert.Equal(t, "http://bad", entries[0].URL)
	assert.Equal(t, StateAborted, entries[0].State)
	assert.Equal(t, StateDownloading, entries[0].Stage)
	assert.Contains(t, entries[0].Error, "boom")

	assert.Equal(t, "http://good", entries[1].URL)
	assert.Equal(t, StateDone, entries[1].State)
	assert.Equal(t, "abc", entries[1].VideoID)
	assert.Equal(t, "en", entries[1].DetectedLanguage)
}

func TestApp_Metadata(t *testing.T) {
	f := newAppFixture(t)
	f.downloader.titles["http://a"] = "Title"
	f.downloader.failures["http://bad"] = errors.New("unavailable")

	metadata, err := f.app.Metadata(context.Background(), "http://a")
	require.NoError(t, err)
	assert.Equal(t, "Title", metadata.Title)

	_, err = f.app.Metadata(context.Background(), "http://bad")
	assert.ErrorIs(t, err, ErrDownload)
}

func TestApp_ReportPlainText(t *testing.T) {
	f := newAppFixture(t)
	f.downloader.failures["http://bad"] = errors.New("boom")

	summary, err := f.app.Run(context.Background(), "http://a,http://bad")
	require.NoError(t, err)

	f.out.Reset()
	f.app.Report(summary)
	assert.Contains(t, f.out.String(), "Process completed: 1 of 2 jobs succeeded.")
	assert.Contains(t, f.out.String(), "http://bad (downloading)")
}

func TestApp_QuietOutput(t *testing.T) {
	f := newAppFixture(t)
	f.app.ui = NewWriterUIManager(f.out, io.Discard, false, true)

	_, err := f.app.Run(context.Background(), "http://a")
	require.NoError(t, err)
	assert.Empty(t, f.out.String())
}

type downloaderFunc func(ctx context.Context, videoURL, workDir string) (*DownloadResult, error)

func (fn downloaderFunc) Download(ctx context.Context, videoURL, workDir string) (*DownloadResult, error) {
	return fn(ctx, videoURL, workDir)
}

func (fn downloaderFunc) Metadata(ctx context.Context, videoURL string) (*VideoMetadata, error) {
	return nil, errors.New("not supported")
}

func TestApp_MetadataWriteFailureKeepsTranscript(t *testing.T) {
	f := newAppFixture(t)
	// a directory where the metadata file should go
	require.NoError(t, os.MkdirAll(filepath.Join(f.config.OutputDir, "T_metadata.json"), 0755))

	summary, err := f.app.Run(context.Background(), "http://a")
	require.NoError(t, err)

	out := summary.Outcomes[0]
	assert.Equal(t, StateAborted, out.State)
	assert.Equal(t, StateWriting, out.Stage)
	assert.ErrorIs(t, out.Err, ErrFileAccess)
	assert.Equal(t, filepath.Join(f.config.OutputDir, "T_transcription.txt"), out.TranscriptPath)
	assert.FileExists(t, out.TranscriptPath)
	assertWorkDirsRemoved(t, f)
}

func TestApp_LongMultibyteTitle(t *testing.T) {
	f := newAppFixture(t)
	f.downloader.titles["http://a"] = strings.Repeat("日", 100)

	summary, err := f.app.Run(context.Background(), "http://a")
	require.NoError(t, err)

	out := summary.Outcomes[0]
	require.True(t, out.OK(), "outcome: %s", out.String())
	assert.LessOrEqual(t, len(filepath.Base(out.TranscriptPath)), 255)
	assert.LessOrEqual(t, len(filepath.Base(out.MetadataPath)), 255)
	assert.FileExists(t, out.TranscriptPath)
	assert.FileExists(t, out.MetadataPath)
}

func TestApp_CancelDuringDownloadIsRecorded(t *testing.T) {
	f := newAppFixture(t)
	ledger, err := OpenLedger(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	f.app.ledger = ledger

	started := make(chan struct{})
	f.downloader.blockCtx = true
	f.downloader.started = started

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-started
		cancel()
	}()

	summary, err := f.app.Run(ctx, "http://a,http://b")
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	require.Len(t, summary.Outcomes, 1)

	out := summary.Outcomes[0]
	assert.Equal(t, StateAborted, out.State)
	assert.Equal(t, StateDownloading, out.Stage)
	assert.ErrorIs(t, out.Err, context.Canceled)

	entries, err := ledger.List(context.Background(), LedgerQuery{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "http://a", entries[0].URL)
	assert.Equal(t, StateAborted, entries[0].State)
	assertWorkDirsRemoved(t, f)

	f.out.Reset()
	f.app.Report(summary)
	assert.Contains(t, f.out.String(), "Process completed: 0 of 1 jobs succeeded.")
}
