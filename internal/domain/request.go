package domain

import "time"

// RequestStatus enumerates generation request lifecycle states.
type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusProcessing RequestStatus = "processing"
	RequestStatusDone       RequestStatus = "done"
	RequestStatusError      RequestStatus = "error"
)

// Terminal reports whether the status is final.
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusDone || s == RequestStatusError
}

// DispatchMode enumerates the two execution paths for a request.
type DispatchMode string

const (
	// DispatchModeDirect is a single synchronous provider call with no
	// server-side job object.
	DispatchModeDirect DispatchMode = "direct"
	// DispatchModeJob submits a backend job that is polled to completion.
	DispatchModeJob DispatchMode = "job"
)

// GenerationRequest is one unit of generation work. Each unit of a dispatch
// batch gets its own request. Requests are owned exclusively by the result
// store; callers only ever see copies.
type GenerationRequest struct {
	ID           string
	Status       RequestStatus
	Mode         DispatchMode
	EngineID     string
	SourcePrompt string
	AnchorURL    string
	JobID        string
	ResultURL    string
	Cost         int
	Debited      bool
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HistoryEntry is one row of the server-backed history view, already mapped
// onto the local status vocabulary.
type HistoryEntry struct {
	ID          string
	Status      RequestStatus
	ResultURL   string
	Prompt      string
	CreditsUsed int
	CreatedAt   time.Time
}

// FundingMode selects how an admitted generation is paid for.
type FundingMode string

const (
	FundingCredits     FundingMode = "credits"
	FundingExternalKey FundingMode = "external-key"
)

// ParseFundingMode sanitizes free-form input into a supported funding mode.
func ParseFundingMode(mode string) FundingMode {
	if mode == string(FundingExternalKey) {
		return FundingExternalKey
	}
	return FundingCredits
}
