package workspace

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"studio/internal/catalog"
	"studio/internal/domain"
	"studio/internal/remote"
)

// MaxQuantity caps how many units one dispatch may fan out to.
const MaxQuantity = 10

// DispatchInput describes one user-initiated generation attempt.
type DispatchInput struct {
	Authenticated bool
	Prompt        string
	EngineID      string
	AspectRatio   string
	Quality       string
	Quantity      int
	Funding       domain.FundingMode
	Category      string
}

// Dispatch gates the attempt through admission and fans out one request per
// unit of quantity. Each unit resolves independently: a slow or failing
// provider in one unit never blocks or reorders the others. Returns the ids
// of the created requests in creation order (the store holds them newest
// first).
func (o *Orchestrator) Dispatch(in DispatchInput) ([]string, error) {
	engine, ok := o.catalog.Find(in.EngineID)
	if !ok {
		if in.EngineID != "" {
			return nil, fmt.Errorf("dispatch: %w: %s", domain.ErrUnknownEngine, in.EngineID)
		}
		engine = o.catalog.Default()
	}

	anchor, hasAnchor := o.assets.FirstReady()

	decision := o.Admit(AdmissionInput{
		Authenticated:  in.Authenticated,
		Prompt:         in.Prompt,
		HasReadySource: hasAnchor,
		Engine:         engine,
		Quantity:       in.Quantity,
		Funding:        in.Funding,
	})
	if !decision.Allowed {
		return nil, &AdmissionError{Decision: decision}
	}

	quantity := in.Quantity
	if quantity < 1 {
		quantity = 1
	}
	if quantity > MaxQuantity {
		quantity = MaxQuantity
	}
	if in.Category == "" {
		in.Category = "image"
	}

	mode := domain.DispatchModeDirect
	if hasAnchor {
		mode = domain.DispatchModeJob
	}

	ids := make([]string, 0, quantity)
	for i := 0; i < quantity; i++ {
		req := domain.GenerationRequest{
			ID:           uuid.NewString(),
			Status:       domain.RequestStatusProcessing,
			Mode:         mode,
			EngineID:     engine.ID,
			SourcePrompt: composePrompt(in.Prompt, quantity, i),
			Cost:         engine.Cost,
			CreatedAt:    time.Now(),
		}
		if hasAnchor {
			req.AnchorURL = anchor.URL
		}
		o.store.Insert(req)
		ids = append(ids, req.ID)

		o.wg.Add(1)
		if hasAnchor {
			go o.runJobUnit(req, anchor, engine, in)
		} else {
			go o.runDirectUnit(req, engine, in)
		}
	}
	return ids, nil
}

// runDirectUnit resolves one unit over the synchronous path. Credits are
// charged only after confirmed success on this path, so a failure needs no
// refund.
func (o *Orchestrator) runDirectUnit(req domain.GenerationRequest, engine catalog.Engine, in DispatchInput) {
	defer o.wg.Done()

	resultURL, err := o.direct.Generate(o.baseCtx, remote.GenerateParams{
		Prompt:      req.SourcePrompt,
		EngineID:    engine.ID,
		AspectRatio: in.AspectRatio,
		Quality:     in.Quality,
	})
	if err != nil {
		metricDispatchTotal.WithLabelValues(string(domain.DispatchModeDirect), "error").Inc()
		o.logger.Warn().Err(err).Str("request_id", req.ID).Msg("direct generation failed")
		o.store.Fail(req.ID, err.Error())
		return
	}

	if o.ledger.Debit(req.Cost) {
		o.store.MarkDebited(req.ID)
		metricBalance.Set(float64(o.ledger.Balance()))
	} else {
		// The server already produced the image; keep the result and let the
		// resync below reconcile whatever the authoritative balance says.
		o.logger.Warn().Str("request_id", req.ID).Int("cost", req.Cost).Msg("post-success debit underflowed")
	}
	o.store.Complete(req.ID, resultURL)
	metricDispatchTotal.WithLabelValues(string(domain.DispatchModeDirect), "done").Inc()
	o.ResyncBalance(o.baseCtx)
}

// runJobUnit resolves one unit over the backend job path. Submission is the
// point of committed backend resource consumption, so credits are debited as
// soon as the job is accepted; the poller refunds on failure.
func (o *Orchestrator) runJobUnit(req domain.GenerationRequest, anchor domain.SourceAsset, engine catalog.Engine, in DispatchInput) {
	defer o.wg.Done()

	size := engine.SizeFor(in.AspectRatio)
	jobID, err := o.jobs.Submit(o.baseCtx, remote.SubmitParams{
		Type:      in.Category,
		Prompt:    req.SourcePrompt,
		AnchorRef: anchorRef(anchor),
		EngineID:  engine.ID,
		Width:     size.Width,
		Height:    size.Height,
	})
	if err != nil {
		metricDispatchTotal.WithLabelValues(string(domain.DispatchModeJob), "rejected").Inc()
		o.logger.Warn().Err(err).Str("request_id", req.ID).Msg("job submission failed")
		o.store.Fail(req.ID, err.Error())
		return
	}

	if o.ledger.Debit(req.Cost) {
		o.store.MarkDebited(req.ID)
		metricBalance.Set(float64(o.ledger.Balance()))
	} else {
		o.logger.Warn().Str("request_id", req.ID).Str("job_id", jobID).Int("cost", req.Cost).Msg("post-submission debit underflowed")
	}
	o.store.AttachJob(req.ID, jobID)
	metricDispatchTotal.WithLabelValues(string(domain.DispatchModeJob), "submitted").Inc()

	o.pollJob(req.ID, jobID, req.Cost)
}

func anchorRef(anchor domain.SourceAsset) string {
	if anchor.RemoteMediaID != "" {
		return anchor.RemoteMediaID
	}
	return anchor.URL
}

// composePrompt resolves the per-unit prompt at dispatch time; a batch asks
// each unit for a distinct variation of the same idea.
func composePrompt(prompt string, total, index int) string {
	trimmed := strings.TrimSpace(prompt)
	if total <= 1 {
		return trimmed
	}
	if trimmed == "" {
		return fmt.Sprintf("Variation #%d of the uploaded reference.", index+1)
	}
	return fmt.Sprintf("%s\nVariation #%d of the same concept.", trimmed, index+1)
}
