package internal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// LedgerEntry is one recorded job
type LedgerEntry struct {
	ID               int64     `json:"id"`
	JobID            string    `json:"job_id"`
	URL              string    `json:"url"`
	VideoID          string    `json:"video_id,omitempty"`
	Title            string    `json:"title,omitempty"`
	State            JobState  `json:"state"`
	Stage            JobState  `json:"stage"`
	DetectedLanguage string    `json:"detected_language,omitempty"`
	TranscriptPath   string    `json:"transcript_path,omitempty"`
	Error            string    `json:"error,omitempty"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
}

// LedgerQuery filters ledger listings
type LedgerQuery struct {
	Limit      int
	FailedOnly bool
}

// Ledger stores job outcomes in SQLite
type Ledger struct {
	db *sql.DB
}

// OpenLedger opens (or creates) the ledger database at path
func OpenLedger(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("ledger: mkdir %s: %w", filepath.Dir(path), err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ledger: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer

	if err := initLedgerSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: init schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

func initLedgerSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS jobs (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id            TEXT NOT NULL,
		url               TEXT NOT NULL,
		video_id          TEXT,
		title             TEXT,
		state             TEXT NOT NULL,
		stage             TEXT NOT NULL,
		detected_language TEXT,
		transcript_path   TEXT,
		error             TEXT,
		started_at        TEXT NOT NULL,
		finished_at       TEXT NOT NULL
	)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_jobs_url ON jobs(url)`)
	return err
}

// Close releases the database
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record stores the outcome of a finished job
func (l *Ledger) Record(ctx context.Context, outcome *Outcome) error {
	videoID := getVideoID(outcome.Job.URL)
	var title, language string
	if outcome.Metadata != nil {
		title = outcome.Metadata.Title
		language = outcome.Metadata.DetectedLanguage
		if outcome.Metadata.ID != "" {
			videoID = outcome.Metadata.ID
		}
	}

	var errText string
	if outcome.Err != nil {
		errText = outcome.Err.Error()
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO jobs (job_id, url, video_id, title, state, stage, detected_language, transcript_path, error, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		outcome.Job.ID, outcome.Job.URL, videoID, title,
		outcome.State.String(), outcome.Stage.String(), language,
		outcome.TranscriptPath, errText,
		outcome.StartedAt.UTC().Format(time.RFC3339), outcome.FinishedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("ledger: insert job: %w", err)
	}
	return nil
}

// List returns recorded jobs, newest first
func (l *Ledger) List(ctx context.Context, q LedgerQuery) ([]LedgerEntry, error) {
	if q.Limit <= 0 {
		q.Limit = 20
	}

	query := `SELECT id, job_id, url, COALESCE(video_id, ''), COALESCE(title, ''), state, stage,
		COALESCE(detected_language, ''), COALESCE(transcript_path, ''), COALESCE(error, ''), started_at, finished_at
		FROM jobs`
	var args []any
	if q.FailedOnly {
		query += ` WHERE state = ?`
		args = append(args, StateAborted.String())
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, q.Limit)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger: list jobs: %w", err)
	}
	defer rows.Close()

	var entries []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		var state, stage, started, finished string
		if err := rows.Scan(&e.ID, &e.JobID, &e.URL, &e.VideoID, &e.Title, &state, &stage,
			&e.DetectedLanguage, &e.TranscriptPath, &e.Error, &started, &finished); err != nil {
			return nil, fmt.Errorf("ledger: scan job: %w", err)
		}
		e.State, _ = ParseJobState(state)
		e.Stage, _ = ParseJobState(stage)
		e.StartedAt, _ = time.Parse(time.RFC3339, started)
		e.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
