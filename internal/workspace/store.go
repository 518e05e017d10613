package workspace

import (
	"context"
	"sync"
	"time"

	"studio/internal/domain"
)

// ResultStore is the ordered collection of in-flight and completed
// generation requests, newest first, with at most one active id driving the
// viewport. Requests are owned exclusively by the store; every accessor
// returns copies and every write is id-checked so a write against an evicted
// id is a no-op.
type ResultStore struct {
	mu      sync.Mutex
	order   []string
	byID    map[string]*domain.GenerationRequest
	cancels map[string]context.CancelFunc
	active  string
	history []domain.HistoryEntry
}

// NewResultStore creates an empty store.
func NewResultStore() *ResultStore {
	return &ResultStore{
		byID:    make(map[string]*domain.GenerationRequest),
		cancels: make(map[string]context.CancelFunc),
	}
}

// Insert places the request at the head of the list and marks it active.
func (s *ResultStore) Insert(req domain.GenerationRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := req
	s.byID[req.ID] = &clone
	s.order = append([]string{req.ID}, s.order...)
	s.active = req.ID
}

// Get returns a copy of the request with the given id.
func (s *ResultStore) Get(id string) (domain.GenerationRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.byID[id]
	if !ok {
		return domain.GenerationRequest{}, false
	}
	return *req, true
}

// List returns copies of all requests, newest first.
func (s *ResultStore) List() []domain.GenerationRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.GenerationRequest, 0, len(s.order))
	for _, id := range s.order {
		if req, ok := s.byID[id]; ok {
			out = append(out, *req)
		}
	}
	return out
}

// Active returns the id of the active request, if any.
func (s *ResultStore) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// SetActive marks the given id as the active result.
func (s *ResultStore) SetActive(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return false
	}
	s.active = id
	return true
}

// IsGenerating is derived, never stored: true iff any request is still
// processing.
func (s *ResultStore) IsGenerating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, req := range s.byID {
		if req.Status == domain.RequestStatusProcessing {
			return true
		}
	}
	return false
}

// BindCancel associates a poll cancellation token with a request. If the
// request was evicted in the meantime the token is cancelled immediately.
func (s *ResultStore) BindCancel(id string, cancel context.CancelFunc) {
	s.mu.Lock()
	if _, ok := s.byID[id]; !ok {
		s.mu.Unlock()
		cancel()
		return
	}
	s.cancels[id] = cancel
	s.mu.Unlock()
}

// Remove evicts a request and cancels its poll token, if any.
func (s *ResultStore) Remove(id string) bool {
	s.mu.Lock()
	if _, ok := s.byID[id]; !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.byID, id)
	for i, candidate := range s.order {
		if candidate == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.active == id {
		s.active = ""
		if len(s.order) > 0 {
			s.active = s.order[0]
		}
	}
	cancel := s.cancels[id]
	delete(s.cancels, id)
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return true
}

// AttachJob records the backend job id on a processing request.
func (s *ResultStore) AttachJob(id, jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.byID[id]
	if !ok || req.Status.Terminal() {
		return false
	}
	req.JobID = jobID
	req.UpdatedAt = time.Now()
	return true
}

// MarkDebited records that credits were charged for this request.
func (s *ResultStore) MarkDebited(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.byID[id]
	if !ok || req.Status.Terminal() {
		return false
	}
	req.Debited = true
	req.UpdatedAt = time.Now()
	return true
}

// Complete transitions a request to done with its result URL. Returns false
// when the id is gone or the request already reached a terminal state, which
// makes terminal transitions single-shot.
func (s *ResultStore) Complete(id, resultURL string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.byID[id]
	if !ok || req.Status.Terminal() {
		return false
	}
	req.Status = domain.RequestStatusDone
	req.ResultURL = resultURL
	req.UpdatedAt = time.Now()
	return true
}

// Fail transitions a request to error. The returned request copy lets the
// caller decide on a refund from the debited flag; ok follows the same
// single-shot rule as Complete.
func (s *ResultStore) Fail(id, message string) (domain.GenerationRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.byID[id]
	if !ok || req.Status.Terminal() {
		return domain.GenerationRequest{}, false
	}
	req.Status = domain.RequestStatusError
	req.ErrorMessage = message
	req.UpdatedAt = time.Now()
	return *req, true
}

// ReplaceHistory swaps the history view wholesale. Read replaces all; there
// is no incremental merge against the remote registry.
func (s *ResultStore) ReplaceHistory(entries []domain.HistoryEntry) {
	clone := make([]domain.HistoryEntry, len(entries))
	copy(clone, entries)
	s.mu.Lock()
	s.history = clone
	s.mu.Unlock()
}

// History returns the last fetched history view.
func (s *ResultStore) History() []domain.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.HistoryEntry, len(s.history))
	copy(out, s.history)
	return out
}
