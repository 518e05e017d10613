// Package workspace implements the generation-request orchestrator: the core
// that turns one "generate" action into 1..N independent in-flight requests,
// routes each between a direct provider call and a backend job, polls job
// status, reconciles the optimistic credit ledger against outcomes, and keeps
// an ordered view of results.
package workspace

import (
	"context"
	"sync"
	"time"

	"studio/internal/catalog"
	"studio/internal/credits"
	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/remote"
)

// DirectProvider is the synchronous generation path.
type DirectProvider interface {
	Generate(ctx context.Context, p remote.GenerateParams) (string, error)
}

// JobService is the asynchronous generation path: submission, polling and
// the history registry.
type JobService interface {
	Submit(ctx context.Context, p remote.SubmitParams) (string, error)
	Status(ctx context.Context, jobID string) (remote.JobSnapshot, error)
	List(ctx context.Context, p remote.ListParams) ([]remote.JobRecord, error)
}

// MediaStore uploads source assets and fetches stored results.
type MediaStore interface {
	Upload(ctx context.Context, filename, mimeType string, data []byte) (remote.UploadedMedia, error)
	Download(ctx context.Context, url string) (data []byte, contentType string, err error)
}

// SessionService reads authoritative account state.
type SessionService interface {
	RefreshBalance(ctx context.Context) (int, error)
}

// Options wires an Orchestrator. Direct, Jobs and Session are required;
// Media is only needed when uploads go through the orchestrator.
type Options struct {
	Logger  infra.Logger
	Catalog *catalog.Catalog
	Ledger  *credits.Ledger

	Direct  DirectProvider
	Jobs    JobService
	Media   MediaStore
	Session SessionService

	// PollInterval is the fixed delay between job status checks. Defaults
	// to 4 seconds.
	PollInterval time.Duration
	// PollTimeout bounds how long a single job may be polled before the
	// request errors out and is refunded. Defaults to 10 minutes.
	PollTimeout time.Duration
}

// Orchestrator owns the credit ledger, the result store and the source asset
// tracker, and coordinates everything in between. There are no hidden
// singletons: callers hold the orchestrator and pass it where needed.
type Orchestrator struct {
	logger  infra.Logger
	catalog *catalog.Catalog
	ledger  *credits.Ledger
	store   *ResultStore
	assets  *SourceAssets

	direct  DirectProvider
	jobs    JobService
	media   MediaStore
	session SessionService

	pollInterval time.Duration
	pollTimeout  time.Duration

	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs an orchestrator and applies defaults.
func New(opts Options) *Orchestrator {
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = 4 * time.Second
	}
	pollTimeout := opts.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 10 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		logger:       opts.Logger,
		catalog:      opts.Catalog,
		ledger:       opts.Ledger,
		store:        NewResultStore(),
		assets:       NewSourceAssets(),
		direct:       opts.Direct,
		jobs:         opts.Jobs,
		media:        opts.Media,
		session:      opts.Session,
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
		baseCtx:      ctx,
		stop:         cancel,
	}
	if o.ledger == nil {
		o.ledger = credits.NewLedger(0)
	}
	metricBalance.Set(float64(o.ledger.Balance()))
	return o
}

// Ledger exposes the orchestrator-owned credit ledger.
func (o *Orchestrator) Ledger() *credits.Ledger {
	return o.ledger
}

// Results exposes the result store for read access and eviction.
func (o *Orchestrator) Results() *ResultStore {
	return o.store
}

// Assets exposes the source asset tracker.
func (o *Orchestrator) Assets() *SourceAssets {
	return o.assets
}

// Close tears the workspace down: all poll loops and in-flight dispatch
// goroutines are cancelled and awaited.
func (o *Orchestrator) Close() {
	o.stop()
	o.wg.Wait()
}

// Wait blocks until all currently in-flight work has settled. Used by the
// tests and by graceful shutdown.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// UploadSource pushes a reference image to the media store, tracking the
// placeholder lifecycle: uploading on start, ready on success, removed
// entirely on failure. Upload precedes any debit, so failures have no credit
// impact.
func (o *Orchestrator) UploadSource(ctx context.Context, filename, mimeType string, data []byte) (domain.SourceAsset, error) {
	placeholder := o.assets.Begin(filename, mimeType, int64(len(data)))
	media, err := o.media.Upload(ctx, filename, mimeType, data)
	if err != nil {
		o.assets.Drop(placeholder.ID)
		o.logger.Warn().Err(err).Str("filename", filename).Msg("source upload failed")
		return domain.SourceAsset{}, err
	}
	asset, ok := o.assets.Promote(placeholder.ID, media)
	if !ok {
		// Placeholder was removed while uploading; treat as a no-op.
		return domain.SourceAsset{}, domain.ErrNotFound
	}
	return asset, nil
}

// ResyncBalance fetches the authoritative balance and overwrites the
// optimistic ledger. Errors are absorbed: the optimistic value simply stays
// in place until the next reconciliation point.
func (o *Orchestrator) ResyncBalance(ctx context.Context) {
	balance, err := o.session.RefreshBalance(ctx)
	if err != nil {
		o.logger.Warn().Err(err).Msg("balance resync failed")
		return
	}
	o.ledger.Resync(balance)
	metricBalance.Set(float64(balance))
}
