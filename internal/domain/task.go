package domain

// TaskKind enumerates asynchronous generation task categories carried inside
// external task ids.
type TaskKind string

const (
	TaskKindVideo TaskKind = "VIDEO"
)

// PollStatus enumerates the uniform lifecycle states the relay reports for
// asynchronous generation tasks, regardless of provider vocabulary.
type PollStatus string

const (
	PollStatusPending   PollStatus = "pending"
	PollStatusCompleted PollStatus = "completed"
	PollStatusFailed    PollStatus = "failed"
)

// Terminal reports whether the status will no longer change.
func (s PollStatus) Terminal() bool {
	return s == PollStatusCompleted || s == PollStatusFailed
}

// GenerationResult acknowledges an accepted asynchronous generation request.
// ExternalID is the only handle the caller needs to poll later.
type GenerationResult struct {
	Success    bool
	Async      bool
	RequestID  string
	ExternalID string
}

// PollResult is a single status snapshot of an asynchronous generation task.
// DownloadHeaders carry whatever credentials the caller must attach when
// fetching ResultURL.
type PollResult struct {
	Status          PollStatus
	ResultURL       string
	VideoURL        string
	DownloadHeaders map[string]string
	Error           string
}
