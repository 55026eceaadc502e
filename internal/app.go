package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// App holds the application state and dependencies
type App struct {
	downloader  Downloader
	transcriber Transcriber
	writer      *OutputWriter
	ledger      *Ledger
	logger      *Logger
	config      *Config
	ui          UIManager
	newJobID    func() string
}

// NewApp initializes the application
func NewApp(config *Config, options ...AppOption) (*App, error) {
	app := &App{
		downloader: NewYouTube(config.Verbose),
		writer:     NewOutputWriter(config.OutputDir),
		config:     config,
		ui:         NewUIManager(config.Verbose, config.Quiet),
		newJobID:   uuid.NewString,
	}

	for _, option := range options {
		option(app)
	}

	if app.transcriber == nil {
		transcriber, err := NewTranscriber(config)
		if err != nil {
			return nil, err
		}
		app.transcriber = transcriber
	}

	if app.logger == nil {
		app.logger = OpenLogger(config.LogPath, "RUN", config.LogFile)
	}

	if app.ledger == nil && config.Ledger {
		ledger, err := OpenLedger(config.LedgerPath)
		if err != nil {
			app.ui.Warnf("job history disabled: %v\n", err)
		} else {
			app.ledger = ledger
		}
	}

	return app, nil
}

// AppOption customizes App creation
type AppOption func(*App)

// WithDownloader sets a custom audio downloader
func WithDownloader(downloader Downloader) AppOption {
	return func(a *App) {
		a.downloader = downloader
	}
}

// WithTranscriber sets a custom transcriber
func WithTranscriber(transcriber Transcriber) AppOption {
	return func(a *App) {
		a.transcriber = transcriber
	}
}

// WithLedger sets the job history store
func WithLedger(ledger *Ledger) AppOption {
	return func(a *App) {
		a.ledger = ledger
	}
}

// WithUI sets the user interface
func WithUI(ui UIManager) AppOption {
	return func(a *App) {
		a.ui = ui
	}
}

// WithLogger sets the file logger
func WithLogger(logger *Logger) AppOption {
	return func(a *App) {
		a.logger = logger
	}
}

// Close releases the ledger and the log file
func (app *App) Close() error {
	var errs []error
	if app.ledger != nil {
		errs = append(errs, app.ledger.Close())
	}
	errs = append(errs, app.logger.Close())
	return errors.Join(errs...)
}

// Ledger returns the job history store, nil when disabled
func (app *App) Ledger() *Ledger {
	return app.ledger
}

// Run resolves urlsArg and processes every URL in order.
// Only input errors and cancellation are returned; job failures are in the Summary.
func (app *App) Run(ctx context.Context, urlsArg string) (*Summary, error) {
	urls, err := ResolveURLs(urlsArg)
	if err != nil {
		return nil, err
	}

	if err := EnsureDirs(app.config.TempDir); err != nil {
		return nil, fileAccessError("creating temp directory", app.config.TempDir, err)
	}

	app.logger.Infof("batch started: %d urls, backend=%s model=%s", len(urls), app.transcriber.Name(), app.config.ModelSize)

	summary := &Summary{}
	bar := app.ui.NewProgressBar(len(urls), "Transcribing")
	titles := make(map[string]int)

	for i, videoURL := range urls {
		if ctx.Err() != nil {
			break
		}

		bar.Describe(fmt.Sprintf("Job %d/%d", i+1, len(urls)))
		app.ui.Printf("\nProcessing: %s\n", videoURL)

		outcome := app.ProcessJob(ctx, Job{ID: app.newJobID(), Index: i, URL: videoURL})
		summary.Outcomes = append(summary.Outcomes, outcome)

		if outcome.OK() {
			if prev, ok := titles[outcome.Metadata.Title]; ok {
				app.ui.Warnf("job %d has the same title as job %d, its files were overwritten: %s\n", i+1, prev+1, outcome.TranscriptPath)
			}
			titles[outcome.Metadata.Title] = i
		}

		bar.Set(i + 1)
	}
	bar.Finish()

	app.logger.Infof("batch finished: %d succeeded, %d failed", summary.Succeeded(), summary.Failed())

	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("batch interrupted after %d of %d jobs: %w", len(summary.Outcomes), len(urls), err)
	}
	return summary, nil
}

// ProcessJob runs one job through download, transcription and writing.
// The job's work directory is removed on every path.
func (app *App) ProcessJob(ctx context.Context, job Job) (out Outcome) {
	out = Outcome{Job: job, State: StatePending, Stage: StatePending, StartedAt: time.Now()}
	defer func() {
		out.FinishedAt = time.Now()
		app.record(&out)
	}()

	workDir := filepath.Join(app.config.TempDir, job.ID)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		app.ui.Printf("Error creating work directory: %v\n", err)
		return app.abort(out, ErrFileAccess, err)
	}
	defer app.cleanupWorkDir(workDir)

	// Downloading
	out.Stage = StateDownloading
	app.logger.Debugf("job %s: %s -> %s", job.ID, StatePending, StateDownloading)

	dlCtx, cancel := withOptionalTimeout(ctx, app.config.DownloadTimeout)
	download, err := app.downloader.Download(dlCtx, job.URL, workDir)
	cancel()
	if err != nil {
		app.ui.Printf("Error downloading audio: %v\n", err)
		app.ui.Println("Failed to download audio. Skipping.")
		return app.abort(out, ErrDownload, err)
	}
	app.ui.Printf("Audio downloaded successfully: %s\n", download.AudioPath)

	metadata := VideoMetadata{Channel: DefaultChannel, PublishDate: DefaultPublishDate}
	if download.Metadata != nil {
		metadata = *download.Metadata
	}
	metadata.Title = SanitizeTitle(metadata.Title)
	out.Metadata = &metadata

	// Transcribing
	out.Stage = StateTranscribing
	app.logger.Debugf("job %s: %s -> %s", job.ID, StateDownloading, StateTranscribing)

	trCtx, cancel := withOptionalTimeout(ctx, app.config.TranscribeTimeout)
	transcription, err := app.transcriber.Transcribe(trCtx, download.AudioPath, TranscribeOptions{
		ModelSize: app.config.ModelSize,
		Language:  app.config.Language,
	})
	cancel()
	if err != nil {
		app.ui.Printf("Error transcribing audio: %v\n", err)
		app.ui.Println("Failed to transcribe audio. Skipping.")
		return app.abort(out, ErrTranscription, err)
	}

	// Writing
	out.Stage = StateWriting
	app.logger.Debugf("job %s: %s -> %s", job.ID, StateTranscribing, StateWriting)

	metadata.DetectedLanguage = transcription.Language
	out.Transcript = transcription.Text

	transcriptPath, err := app.writer.WriteTranscript(metadata.Title, transcription.Text)
	if err != nil {
		app.ui.Printf("Error saving transcription: %v\n", err)
		app.ui.Println("Failed to write output. Skipping.")
		return app.abort(out, ErrFileAccess, err)
	}
	out.TranscriptPath = transcriptPath
	app.ui.Printf("Transcription saved to: %s\n", transcriptPath)

	metadataPath, err := app.writer.WriteMetadata(&metadata)
	if err != nil {
		app.ui.Printf("Error saving metadata: %v\n", err)
		app.ui.Println("Failed to write output. Skipping.")
		return app.abort(out, ErrFileAccess, err)
	}
	out.MetadataPath = metadataPath
	app.ui.Printf("Metadata saved to: %s\n", metadataPath)

	out.Stage = StateDone
	out.State = StateDone
	return out
}

// Metadata fetches video details without downloading audio
func (app *App) Metadata(ctx context.Context, videoURL string) (*VideoMetadata, error) {
	ctx, cancel := withOptionalTimeout(ctx, app.config.DownloadTimeout)
	defer cancel()

	metadata, err := app.downloader.Metadata(ctx, videoURL)
	if err != nil {
		return nil, NewJobError(StateDownloading, videoURL, ErrDownload, err)
	}
	return metadata, nil
}

// Report prints the batch summary, rendered as markdown on a terminal
func (app *App) Report(summary *Summary) {
	if app.ui.Interactive() {
		rendered, err := RenderMarkdown(SummaryMarkdown(summary))
		if err == nil {
			app.ui.Printf("\n%s", rendered)
			return
		}
		app.ui.Verbose("Failed to render summary: %v\n", err)
	}
	app.ui.Printf("%s", SummaryText(summary))
}

// abort marks the outcome as aborted at its current stage
func (app *App) abort(out Outcome, kind, err error) Outcome {
	out.State = StateAborted
	out.Err = NewJobError(out.Stage, out.Job.URL, kind, err)
	app.logger.Errorf("job %s aborted: %v", out.Job.ID, out.Err)
	return out
}

// record stores the outcome in the ledger, if enabled
func (app *App) record(out *Outcome) {
	app.logger.Infof("job %s finished: url=%s state=%s", out.Job.ID, out.Job.URL, out.State)
	if app.ledger == nil {
		return
	}
	// recorded even when the batch context was cancelled
	if err := app.ledger.Record(context.Background(), out); err != nil {
		app.ui.Warnf("%v\n", err)
	}
}

// cleanupWorkDir removes the job's temporary audio and intermediate files
func (app *App) cleanupWorkDir(workDir string) {
	if err := os.RemoveAll(workDir); err != nil {
		app.ui.Warnf("failed to remove temporary directory %s: %v\n", workDir, err)
		return
	}
	app.ui.Verbose("Temporary audio files removed: %s\n", workDir)
}

// withOptionalTimeout applies timeout when it is positive
func withOptionalTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
