package internal

import (
	"fmt"
	"time"
)

// JobState is a step of the per-job state machine
type JobState int

const (
	StatePending JobState = iota
	StateDownloading
	StateTranscribing
	StateWriting
	StateDone
	StateAborted
)

// String returns a human-readable representation of the state
func (s JobState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateDownloading:
		return "downloading"
	case StateTranscribing:
		return "transcribing"
	case StateWriting:
		return "writing"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// ParseJobState is the inverse of JobState.String
func ParseJobState(s string) (JobState, error) {
	for st := StatePending; st <= StateAborted; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return StatePending, fmt.Errorf("unknown job state: %q", s)
}

// MarshalText encodes the state by name
func (s JobState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name
func (s *JobState) UnmarshalText(text []byte) error {
	st, err := ParseJobState(string(text))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Job is one URL to process
type Job struct {
	ID    string
	Index int
	URL   string
}

// Outcome is the tagged result of one job
type Outcome struct {
	Job            Job
	State          JobState // StateDone or StateAborted
	Stage          JobState // where the job stopped
	Err            error
	Metadata       *VideoMetadata
	Transcript     string
	TranscriptPath string
	MetadataPath   string
	StartedAt      time.Time
	FinishedAt     time.Time
}

// OK reports whether the job reached StateDone
func (o *Outcome) OK() bool {
	return o.State == StateDone && o.Err == nil
}

// String returns a formatted representation of the outcome
func (o *Outcome) String() string {
	if o.Err != nil {
		return fmt.Sprintf("Outcome{url=%s, state=%s, stage=%s, error=%v}", o.Job.URL, o.State, o.Stage, o.Err)
	}
	return fmt.Sprintf("Outcome{url=%s, state=%s, transcript=%s}", o.Job.URL, o.State, o.TranscriptPath)
}

// Summary aggregates the outcomes of a batch run
type Summary struct {
	Outcomes []Outcome
}

// Succeeded counts jobs that reached StateDone
func (s *Summary) Succeeded() int {
	n := 0
	for i := range s.Outcomes {
		if s.Outcomes[i].OK() {
			n++
		}
	}
	return n
}

// Failed counts aborted jobs
func (s *Summary) Failed() int {
	return len(s.Outcomes) - s.Succeeded()
}

// Err returns a non-nil error when at least one job was aborted
func (s *Summary) Err() error {
	if failed := s.Failed(); failed > 0 {
		return fmt.Errorf("%d of %d jobs failed", failed, len(s.Outcomes))
	}
	return nil
}
