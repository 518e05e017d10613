package domain

import "strings"

// JobStatus enumerates backend job lifecycle states as reported by the job
// status API. The client never owns a job; it only observes it.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusDone       JobStatus = "done"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the backend job has reached a final state.
func (s JobStatus) Terminal() bool {
	return s == JobStatusDone || s == JobStatusFailed
}

// ParseJobStatus normalizes a remote status string. Unknown values map to
// processing so an unexpected vocabulary extension keeps the poll loop alive
// instead of wedging a request.
func ParseJobStatus(raw string) JobStatus {
	switch JobStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case JobStatusQueued:
		return JobStatusQueued
	case JobStatusDone:
		return JobStatusDone
	case JobStatusFailed:
		return JobStatusFailed
	default:
		return JobStatusProcessing
	}
}

// MapJobStatus is the total mapping from the backend job vocabulary onto the
// local request vocabulary.
func MapJobStatus(s JobStatus) RequestStatus {
	switch s {
	case JobStatusDone:
		return RequestStatusDone
	case JobStatusFailed:
		return RequestStatusError
	default:
		return RequestStatusProcessing
	}
}
