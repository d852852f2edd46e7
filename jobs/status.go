package jobs

import "strings"

// Bucket classifies a provider status string.
type Bucket string

const (
	BucketInProgress Bucket = "in_progress"
	BucketSuccess    Bucket = "success"
	BucketFailure    Bucket = "failure"
)

var successStatuses = map[string]bool{
	"DONE":      true,
	"SUCCEED":   true,
	"SUCCEEDED": true,
	"SUCCESS":   true,
}

var failureStatuses = map[string]bool{
	"FAIL":   true,
	"FAILED": true,
}

// Normalize uppercases a provider status string and classifies it.
// Empty and unrecognized values count as in-progress: the provider's
// status vocabulary has changed before, and treating an unknown string
// as an error would kill jobs that are still running. The uppercased
// string is returned for display.
func Normalize(status string) (string, Bucket) {
	upper := strings.ToUpper(strings.TrimSpace(status))
	switch {
	case successStatuses[upper]:
		return upper, BucketSuccess
	case failureStatuses[upper]:
		return upper, BucketFailure
	}
	return upper, BucketInProgress
}
