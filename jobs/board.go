package jobs

import "sync"

// Job states set by the controller in addition to normalized provider
// statuses.
const (
	StateSubmitting = "SUBMITTING"
	StateSubmitted  = "SUBMITTED"
	StateImporting  = "IMPORTING"
	StateImported   = "IMPORTED"
	StateError      = "ERROR"
	StateUnknown    = "UNKNOWN"
)

// Snapshot is a copy of the shared job record.
type Snapshot struct {
	JobID     string
	Status    string
	LastError string
	Summary   string
}

// StatusBoard is the shared job-status record. It is the single place
// poll loops commit results to, and the reference point for the
// supersession check: a loop may only mutate the board while its job id
// is still the active one.
type StatusBoard struct {
	mu      sync.Mutex
	current Snapshot
}

// NewStatusBoard creates an empty board.
func NewStatusBoard() *StatusBoard { return &StatusBoard{} }

// BeginSubmission marks a new submission as active. Status and error
// are reset together so a stale error never survives next to a fresh
// status.
func (b *StatusBoard) BeginSubmission(summary string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = Snapshot{Status: StateSubmitting, Summary: summary}
}

// SetActiveJob records the provider-assigned id after submission,
// superseding any previous job.
func (b *StatusBoard) SetActiveJob(jobID, status string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current.JobID = jobID
	if status == "" {
		status = StateSubmitted
	}
	b.current.Status = status
}

// ActiveJobID returns the id the board currently considers active.
func (b *StatusBoard) ActiveJobID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current.JobID
}

// SetStatus updates the status if jobID is still active. The update is
// dropped silently for superseded jobs.
func (b *StatusBoard) SetStatus(jobID, status string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current.JobID != jobID {
		return false
	}
	b.current.Status = status
	return true
}

// Fail moves the job to the terminal error state with a non-empty
// message, if jobID is still active.
func (b *StatusBoard) Fail(jobID, message string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current.JobID != jobID {
		return false
	}
	if message == "" {
		message = "generation failed"
	}
	b.current.Status = StateError
	b.current.LastError = message
	return true
}

// Complete moves the job to the terminal imported state and clears the
// error field, if jobID is still active.
func (b *StatusBoard) Complete(jobID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current.JobID != jobID {
		return false
	}
	b.current.Status = StateImported
	b.current.LastError = ""
	return true
}

// FailSubmission records a terminal error for a submission that never
// received a job id.
func (b *StatusBoard) FailSubmission(message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current.Status = StateError
	b.current.LastError = message
}

// Snapshot returns a copy of the current record.
func (b *StatusBoard) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}
