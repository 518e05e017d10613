package workspace

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/catalog"
	"studio/internal/credits"
	"studio/internal/domain"
	"studio/internal/remote"
)

type stubDirect struct {
	mu    sync.Mutex
	calls int
	fn    func(call int, p remote.GenerateParams) (string, error)
}

func (s *stubDirect) Generate(_ context.Context, p remote.GenerateParams) (string, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	s.mu.Unlock()
	return s.fn(call, p)
}

type stubJobs struct {
	mu          sync.Mutex
	submitFn    func(p remote.SubmitParams) (string, error)
	statuses    []remote.JobSnapshot
	statusErr   error
	statusCalls int
	listFn      func(p remote.ListParams) ([]remote.JobRecord, error)
}

func (s *stubJobs) Submit(_ context.Context, p remote.SubmitParams) (string, error) {
	if s.submitFn == nil {
		return "", errors.New("submit not configured")
	}
	return s.submitFn(p)
}

func (s *stubJobs) Status(_ context.Context, jobID string) (remote.JobSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusCalls++
	if s.statusErr != nil {
		return remote.JobSnapshot{}, s.statusErr
	}
	if len(s.statuses) == 0 {
		return remote.JobSnapshot{Status: domain.JobStatusProcessing}, nil
	}
	idx := s.statusCalls - 1
	if idx >= len(s.statuses) {
		idx = len(s.statuses) - 1
	}
	return s.statuses[idx], nil
}

func (s *stubJobs) List(_ context.Context, p remote.ListParams) ([]remote.JobRecord, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(p)
}

func (s *stubJobs) statusCallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusCalls
}

type stubSession struct {
	mu      sync.Mutex
	balance int
	err     error
	calls   int
}

func (s *stubSession) RefreshBalance(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return s.balance, nil
}

type stubMedia struct {
	media       remote.UploadedMedia
	err         error
	downloads   map[string][]byte
	contentType string
}

func (s *stubMedia) Upload(context.Context, string, string, []byte) (remote.UploadedMedia, error) {
	if s.err != nil {
		return remote.UploadedMedia{}, s.err
	}
	return s.media, nil
}

func (s *stubMedia) Download(_ context.Context, url string) ([]byte, string, error) {
	data, ok := s.downloads[url]
	if !ok {
		return nil, "", errors.New("not found")
	}
	return data, s.contentType, nil
}

var errSessionOffline = errors.New("session offline")

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Load("")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return c
}

func newTestOrchestrator(t *testing.T, balance int, opts Options) *Orchestrator {
	t.Helper()
	opts.Logger = zerolog.Nop()
	opts.Catalog = testCatalog(t)
	opts.Ledger = credits.NewLedger(balance)
	if opts.Session == nil {
		opts.Session = &stubSession{err: errSessionOffline}
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = time.Millisecond
	}
	if opts.PollTimeout == 0 {
		opts.PollTimeout = time.Second
	}
	o := New(opts)
	t.Cleanup(o.Close)
	return o
}

func addReadyAnchor(o *Orchestrator) domain.SourceAsset {
	placeholder := o.assets.Begin("ref.png", "image/png", 4)
	asset, _ := o.assets.Promote(placeholder.ID, remote.UploadedMedia{
		URL:           "https://cdn/ref.png",
		RemoteMediaID: "m-1",
	})
	return asset
}

func dispatchInput(quantity int) DispatchInput {
	return DispatchInput{
		Authenticated: true,
		Prompt:        "sunset",
		EngineID:      "aurora-base",
		AspectRatio:   "1:1",
		Quality:       "standard",
		Quantity:      quantity,
		Funding:       domain.FundingCredits,
	}
}

func TestDirectModeSuccess(t *testing.T) {
	direct := &stubDirect{fn: func(int, remote.GenerateParams) (string, error) {
		return "https://img/x.png", nil
	}}
	o := newTestOrchestrator(t, 100, Options{Direct: direct, Jobs: &stubJobs{}})

	ids, err := o.Dispatch(dispatchInput(1))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("ids = %d, want 1", len(ids))
	}
	o.Wait()

	req, ok := o.Results().Get(ids[0])
	if !ok {
		t.Fatalf("request %s missing from store", ids[0])
	}
	if req.Status != domain.RequestStatusDone {
		t.Fatalf("status = %q, want done (%s)", req.Status, req.ErrorMessage)
	}
	if req.ResultURL != "https://img/x.png" {
		t.Fatalf("resultURL = %q", req.ResultURL)
	}
	if req.Mode != domain.DispatchModeDirect {
		t.Fatalf("mode = %q, want direct", req.Mode)
	}
	// Direct mode debits after success; session is offline so the optimistic
	// value is observable.
	if got := o.Ledger().Balance(); got != 90 {
		t.Fatalf("balance = %d, want 90", got)
	}
}

func TestDirectModeFailureNeverDebits(t *testing.T) {
	direct := &stubDirect{fn: func(int, remote.GenerateParams) (string, error) {
		return "", domain.ErrProviderFailure
	}}
	o := newTestOrchestrator(t, 100, Options{Direct: direct, Jobs: &stubJobs{}})

	ids, err := o.Dispatch(dispatchInput(1))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	o.Wait()

	req, _ := o.Results().Get(ids[0])
	if req.Status != domain.RequestStatusError {
		t.Fatalf("status = %q, want error", req.Status)
	}
	if got := o.Ledger().Balance(); got != 100 {
		t.Fatalf("balance = %d, want 100 (no debit on direct failure)", got)
	}
}

func TestInsufficientCreditsBlocksBeforeAnyRequest(t *testing.T) {
	o := newTestOrchestrator(t, 100, Options{Direct: &stubDirect{}, Jobs: &stubJobs{}})

	in := dispatchInput(1)
	in.EngineID = "sculptor-3d" // cost 40
	in.Quantity = 4             // required 160 > 100

	_, err := o.Dispatch(in)
	if !errors.Is(err, domain.ErrInsufficientCredits) {
		t.Fatalf("err = %v, want ErrInsufficientCredits", err)
	}
	var admErr *AdmissionError
	if !errors.As(err, &admErr) {
		t.Fatalf("err = %T, want *AdmissionError", err)
	}
	if admErr.Decision.RequiredCredits != 160 {
		t.Fatalf("required = %d, want 160", admErr.Decision.RequiredCredits)
	}
	if entries := o.Results().List(); len(entries) != 0 {
		t.Fatalf("blocked admission must create no requests, got %d", len(entries))
	}
	if got := o.Ledger().Balance(); got != 100 {
		t.Fatalf("balance = %d, want 100", got)
	}
}

func TestJobModeFailureRefunds(t *testing.T) {
	jobs := &stubJobs{
		submitFn: func(p remote.SubmitParams) (string, error) {
			if p.AnchorRef != "m-1" {
				t.Errorf("anchor = %q, want m-1", p.AnchorRef)
			}
			return "j1", nil
		},
		statuses: []remote.JobSnapshot{{Status: domain.JobStatusFailed}},
	}
	o := newTestOrchestrator(t, 100, Options{Direct: &stubDirect{}, Jobs: jobs})
	addReadyAnchor(o)

	ids, err := o.Dispatch(dispatchInput(1))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	o.Wait()

	req, _ := o.Results().Get(ids[0])
	if req.Status != domain.RequestStatusError {
		t.Fatalf("status = %q, want error", req.Status)
	}
	if req.Mode != domain.DispatchModeJob {
		t.Fatalf("mode = %q, want job", req.Mode)
	}
	if got := o.Ledger().Balance(); got != 100 {
		t.Fatalf("balance = %d, want 100 after refund", got)
	}
}

func TestJobModeSubmissionRejectionNeverDebits(t *testing.T) {
	jobs := &stubJobs{
		submitFn: func(remote.SubmitParams) (string, error) {
			return "", domain.ErrJobRejected
		},
	}
	o := newTestOrchestrator(t, 100, Options{Direct: &stubDirect{}, Jobs: jobs})
	addReadyAnchor(o)

	ids, err := o.Dispatch(dispatchInput(1))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	o.Wait()

	req, _ := o.Results().Get(ids[0])
	if req.Status != domain.RequestStatusError {
		t.Fatalf("status = %q, want error", req.Status)
	}
	if got := o.Ledger().Balance(); got != 100 {
		t.Fatalf("balance = %d, want 100 (no debit on rejection)", got)
	}
	if calls := jobs.statusCallCount(); calls != 0 {
		t.Fatalf("status calls = %d, want 0 after rejection", calls)
	}
}

func TestJobModeDebitsAtSubmission(t *testing.T) {
	jobs := &stubJobs{
		submitFn: func(remote.SubmitParams) (string, error) { return "j1", nil },
		statuses: []remote.JobSnapshot{
			{Status: domain.JobStatusProcessing},
			{Status: domain.JobStatusDone, ResultImages: []string{"https://img/y.png"}},
		},
	}
	o := newTestOrchestrator(t, 100, Options{
		Direct:       &stubDirect{},
		Jobs:         jobs,
		PollInterval: 20 * time.Millisecond,
	})
	addReadyAnchor(o)

	ids, err := o.Dispatch(dispatchInput(1))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	// The debit must land at submission time, before the job completes.
	deadline := time.Now().Add(time.Second)
	for o.Ledger().Balance() != 90 {
		if time.Now().After(deadline) {
			t.Fatalf("balance = %d, want 90 while job still in flight", o.Ledger().Balance())
		}
		time.Sleep(time.Millisecond)
	}
	o.Wait()

	req, _ := o.Results().Get(ids[0])
	if req.Status != domain.RequestStatusDone || req.ResultURL != "https://img/y.png" {
		t.Fatalf("unexpected terminal request: %+v", req)
	}
	if req.JobID != "j1" {
		t.Fatalf("jobID = %q, want j1", req.JobID)
	}
}

func TestPollerTerminalConvergence(t *testing.T) {
	jobs := &stubJobs{
		submitFn: func(remote.SubmitParams) (string, error) { return "j1", nil },
		statuses: []remote.JobSnapshot{
			{Status: domain.JobStatusQueued},
			{Status: domain.JobStatusProcessing},
			{Status: domain.JobStatusDone, ResultImages: []string{"https://img/first.png", "https://img/second.png"}},
		},
	}
	o := newTestOrchestrator(t, 100, Options{Direct: &stubDirect{}, Jobs: jobs})
	addReadyAnchor(o)

	ids, err := o.Dispatch(dispatchInput(1))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	o.Wait()

	req, _ := o.Results().Get(ids[0])
	if req.Status != domain.RequestStatusDone {
		t.Fatalf("status = %q, want done", req.Status)
	}
	if req.ResultURL != "https://img/first.png" {
		t.Fatalf("resultURL = %q, want first image", req.ResultURL)
	}
	if calls := jobs.statusCallCount(); calls != 3 {
		t.Fatalf("status calls = %d, want exactly 3", calls)
	}
	// The poller must never poll again after a terminal observation.
	time.Sleep(10 * time.Millisecond)
	if calls := jobs.statusCallCount(); calls != 3 {
		t.Fatalf("status calls grew to %d after terminal state", calls)
	}
}

func TestPollerDeadlineRefunds(t *testing.T) {
	jobs := &stubJobs{
		submitFn: func(remote.SubmitParams) (string, error) { return "j1", nil },
	}
	o := newTestOrchestrator(t, 100, Options{
		Direct:      &stubDirect{},
		Jobs:        jobs,
		PollTimeout: 10 * time.Millisecond,
	})
	addReadyAnchor(o)

	ids, err := o.Dispatch(dispatchInput(1))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	o.Wait()

	req, _ := o.Results().Get(ids[0])
	if req.Status != domain.RequestStatusError {
		t.Fatalf("status = %q, want error after deadline", req.Status)
	}
	if got := o.Ledger().Balance(); got != 100 {
		t.Fatalf("balance = %d, want 100 after deadline refund", got)
	}
}

func TestDoneWithoutImagesRefunds(t *testing.T) {
	jobs := &stubJobs{
		submitFn: func(remote.SubmitParams) (string, error) { return "j1", nil },
		statuses: []remote.JobSnapshot{{Status: domain.JobStatusDone}},
	}
	o := newTestOrchestrator(t, 100, Options{Direct: &stubDirect{}, Jobs: jobs})
	addReadyAnchor(o)

	ids, err := o.Dispatch(dispatchInput(1))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	o.Wait()

	req, _ := o.Results().Get(ids[0])
	if req.Status != domain.RequestStatusError {
		t.Fatalf("status = %q, want error for done-without-results", req.Status)
	}
	if got := o.Ledger().Balance(); got != 100 {
		t.Fatalf("balance = %d, want 100", got)
	}
}

func TestBatchUnitsFailIndependently(t *testing.T) {
	direct := &stubDirect{fn: func(call int, p remote.GenerateParams) (string, error) {
		if call == 2 {
			return "", errors.New("transient provider hiccup")
		}
		return "https://img/ok.png", nil
	}}
	o := newTestOrchestrator(t, 100, Options{Direct: direct, Jobs: &stubJobs{}})

	ids, err := o.Dispatch(dispatchInput(3))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("ids = %d, want 3", len(ids))
	}
	o.Wait()

	done, failed := 0, 0
	for _, id := range ids {
		req, ok := o.Results().Get(id)
		if !ok {
			t.Fatalf("request %s missing", id)
		}
		switch req.Status {
		case domain.RequestStatusDone:
			done++
		case domain.RequestStatusError:
			failed++
		default:
			t.Fatalf("request %s not terminal: %q", id, req.Status)
		}
	}
	if done != 2 || failed != 1 {
		t.Fatalf("done/failed = %d/%d, want 2/1", done, failed)
	}
	// Two successful direct units debit 10 each.
	if got := o.Ledger().Balance(); got != 80 {
		t.Fatalf("balance = %d, want 80", got)
	}
}

func TestBatchInsertsNewestFirst(t *testing.T) {
	block := make(chan struct{})
	direct := &stubDirect{fn: func(int, remote.GenerateParams) (string, error) {
		<-block
		return "https://img/ok.png", nil
	}}
	o := newTestOrchestrator(t, 100, Options{Direct: direct, Jobs: &stubJobs{}})

	ids, err := o.Dispatch(dispatchInput(3))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	list := o.Results().List()
	if len(list) != 3 {
		t.Fatalf("list = %d, want 3", len(list))
	}
	// Index 0 is the most recently created unit.
	for i, req := range list {
		if req.ID != ids[len(ids)-1-i] {
			t.Fatalf("list[%d] = %s, want %s", i, req.ID, ids[len(ids)-1-i])
		}
	}
	if !o.Results().IsGenerating() {
		t.Fatalf("IsGenerating must be true while units are in flight")
	}
	if o.Results().Active() != ids[len(ids)-1] {
		t.Fatalf("active = %q, want last inserted id", o.Results().Active())
	}
	close(block)
	o.Wait()
	if o.Results().IsGenerating() {
		t.Fatalf("IsGenerating must be false after all units settle")
	}
}

func TestResyncOverwritesOptimisticBalance(t *testing.T) {
	direct := &stubDirect{fn: func(int, remote.GenerateParams) (string, error) {
		return "https://img/x.png", nil
	}}
	session := &stubSession{balance: 77}
	o := newTestOrchestrator(t, 100, Options{Direct: direct, Jobs: &stubJobs{}, Session: session})

	if _, err := o.Dispatch(dispatchInput(1)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	o.Wait()

	if got := o.Ledger().Balance(); got != 77 {
		t.Fatalf("balance = %d, want authoritative 77 after resync", got)
	}
}

func TestEvictionStopsPolling(t *testing.T) {
	jobs := &stubJobs{
		submitFn: func(remote.SubmitParams) (string, error) { return "j1", nil },
	}
	o := newTestOrchestrator(t, 100, Options{
		Direct:       &stubDirect{},
		Jobs:         jobs,
		PollInterval: 5 * time.Millisecond,
		PollTimeout:  time.Minute,
	})
	addReadyAnchor(o)

	ids, err := o.Dispatch(dispatchInput(1))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	// Let the poller bind its token and tick at least once.
	deadline := time.Now().Add(time.Second)
	for jobs.statusCallCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("poller never ticked")
		}
		time.Sleep(time.Millisecond)
	}

	if !o.Results().Remove(ids[0]) {
		t.Fatalf("remove failed")
	}
	o.Wait()

	if _, ok := o.Results().Get(ids[0]); ok {
		t.Fatalf("request %s still present after eviction", ids[0])
	}
	settled := jobs.statusCallCount()
	time.Sleep(25 * time.Millisecond)
	if jobs.statusCallCount() != settled {
		t.Fatalf("poller kept polling after eviction")
	}
}

func TestHistoryRefreshIsIdempotent(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	jobs := &stubJobs{
		listFn: func(p remote.ListParams) ([]remote.JobRecord, error) {
			if p.Limit != 20 || p.Category != "image" {
				t.Errorf("unexpected list params: %+v", p)
			}
			return []remote.JobRecord{
				{ID: "j2", Status: domain.JobStatusDone, ResultImages: []string{"https://img/b.png"}, Prompt: "b", CreditsUsed: 10, CreatedAt: created},
				{ID: "j1", Status: domain.JobStatusFailed, Prompt: "a", CreditsUsed: 10, CreatedAt: created.Add(-time.Hour)},
				{ID: "j0", Status: domain.JobStatusProcessing, Prompt: "c", CreatedAt: created.Add(-2 * time.Hour)},
			}, nil
		},
	}
	o := newTestOrchestrator(t, 100, Options{Direct: &stubDirect{}, Jobs: jobs})

	first, err := o.RefreshHistory(context.Background(), 20, "image")
	if err != nil {
		t.Fatalf("refresh history: %v", err)
	}
	second, err := o.RefreshHistory(context.Background(), 20, "image")
	if err != nil {
		t.Fatalf("refresh history: %v", err)
	}
	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("history lengths = %d/%d, want 3/3", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("history drifted at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
	if first[0].Status != domain.RequestStatusDone || first[1].Status != domain.RequestStatusError || first[2].Status != domain.RequestStatusProcessing {
		t.Fatalf("history statuses not mapped: %+v", first)
	}
	if first[0].ResultURL != "https://img/b.png" {
		t.Fatalf("history resultURL = %q", first[0].ResultURL)
	}
	stored := o.Results().History()
	if len(stored) != 3 || stored[0] != first[0] {
		t.Fatalf("store history mismatch: %+v", stored)
	}
}

func TestUploadLifecycle(t *testing.T) {
	media := &stubMedia{media: remote.UploadedMedia{ID: "up-1", URL: "https://cdn/ref.png", RemoteMediaID: "m-1"}}
	o := newTestOrchestrator(t, 100, Options{Direct: &stubDirect{}, Jobs: &stubJobs{}, Media: media})

	asset, err := o.UploadSource(context.Background(), "ref.png", "image/png", []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !asset.Ready() || asset.RemoteMediaID != "m-1" {
		t.Fatalf("unexpected asset: %+v", asset)
	}
	if anchor, ok := o.Assets().FirstReady(); !ok || anchor.ID != asset.ID {
		t.Fatalf("FirstReady mismatch: %+v ok=%v", anchor, ok)
	}

	media.err = errors.New("storage unavailable")
	if _, err := o.UploadSource(context.Background(), "b.png", "image/png", []byte{4}); err == nil {
		t.Fatalf("expected upload error")
	}
	if got := len(o.Assets().List()); got != 1 {
		t.Fatalf("assets = %d, want 1 (failed placeholder removed)", got)
	}
}

func TestUnknownEngineRejected(t *testing.T) {
	o := newTestOrchestrator(t, 100, Options{Direct: &stubDirect{}, Jobs: &stubJobs{}})
	in := dispatchInput(1)
	in.EngineID = "does-not-exist"
	if _, err := o.Dispatch(in); !errors.Is(err, domain.ErrUnknownEngine) {
		t.Fatalf("err = %v, want ErrUnknownEngine", err)
	}
}
