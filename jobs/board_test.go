package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusBoard_SubmissionResetsError(t *testing.T) {
	b := NewStatusBoard()
	b.BeginSubmission("first")
	b.SetActiveJob("job-1", "")
	b.Fail("job-1", "it broke")

	snap := b.Snapshot()
	assert.Equal(t, StateError, snap.Status)
	assert.Equal(t, "it broke", snap.LastError)

	// The next submission must not show the stale error.
	b.BeginSubmission("second")
	snap = b.Snapshot()
	assert.Equal(t, StateSubmitting, snap.Status)
	assert.Empty(t, snap.LastError)
	assert.Empty(t, snap.JobID)
	assert.Equal(t, "second", snap.Summary)
}

func TestStatusBoard_SupersededWritesDropped(t *testing.T) {
	b := NewStatusBoard()
	b.BeginSubmission("one")
	b.SetActiveJob("job-1", "")
	b.BeginSubmission("two")
	b.SetActiveJob("job-2", "RUNNING")

	assert.False(t, b.SetStatus("job-1", "DONE"))
	assert.False(t, b.Fail("job-1", "stale failure"))
	assert.False(t, b.Complete("job-1"))

	snap := b.Snapshot()
	assert.Equal(t, "job-2", snap.JobID)
	assert.Equal(t, "RUNNING", snap.Status)
	assert.Empty(t, snap.LastError)
}

func TestStatusBoard_CompleteClearsError(t *testing.T) {
	b := NewStatusBoard()
	b.SetActiveJob("job-1", "")
	b.Fail("job-1", "transient view of the world")

	assert.True(t, b.Complete("job-1"))
	snap := b.Snapshot()
	assert.Equal(t, StateImported, snap.Status)
	assert.Empty(t, snap.LastError)
}

func TestStatusBoard_FailDefaultsMessage(t *testing.T) {
	b := NewStatusBoard()
	b.SetActiveJob("job-1", "")

	assert.True(t, b.Fail("job-1", ""))
	snap := b.Snapshot()
	assert.Equal(t, StateError, snap.Status)
	assert.NotEmpty(t, snap.LastError)
}

func TestStatusBoard_DefaultSubmittedStatus(t *testing.T) {
	b := NewStatusBoard()
	b.SetActiveJob("job-1", "")
	assert.Equal(t, StateSubmitted, b.Snapshot().Status)

	b.SetActiveJob("job-2", "WAIT")
	assert.Equal(t, "WAIT", b.Snapshot().Status)
}
