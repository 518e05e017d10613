package workspace

import (
	"fmt"
	"strings"

	"studio/internal/catalog"
	"studio/internal/domain"
)

// Admission block codes, in precedence order.
const (
	AdmissionBlockedUnauthenticated     = "unauthenticated"
	AdmissionBlockedEmptyInput          = "empty_input"
	AdmissionBlockedInsufficientCredits = "insufficient_credits"
)

// AdmissionInput is everything the admission gate looks at. It is a pure
// function of these values plus the current ledger balance.
type AdmissionInput struct {
	Authenticated  bool
	Prompt         string
	HasReadySource bool
	Engine         catalog.Engine
	Quantity       int
	Funding        domain.FundingMode
}

// AdmissionDecision is either admitted or the single highest-priority
// blocking reason.
type AdmissionDecision struct {
	Allowed         bool
	Code            string
	Reason          string
	RequiredCredits int
}

// AdmissionError carries a blocking decision as an error value so callers
// can surface it without any request having been created.
type AdmissionError struct {
	Decision AdmissionDecision
}

func (e *AdmissionError) Error() string {
	return e.Decision.Reason
}

// Unwrap maps the block code onto the matching sentinel.
func (e *AdmissionError) Unwrap() error {
	switch e.Decision.Code {
	case AdmissionBlockedUnauthenticated:
		return domain.ErrUnauthorized
	case AdmissionBlockedEmptyInput:
		return domain.ErrEmptyInput
	case AdmissionBlockedInsufficientCredits:
		return domain.ErrInsufficientCredits
	default:
		return nil
	}
}

// Admit gates a generation attempt. Checks run in fixed precedence:
// authentication, then input completeness, then cost. Cost comes last so an
// unauthenticated user is never shown a misleading credits message.
func (o *Orchestrator) Admit(in AdmissionInput) AdmissionDecision {
	if !in.Authenticated {
		return AdmissionDecision{
			Code:   AdmissionBlockedUnauthenticated,
			Reason: "sign in to generate",
		}
	}

	if !in.HasReadySource && strings.TrimSpace(in.Prompt) == "" {
		return AdmissionDecision{
			Code:   AdmissionBlockedEmptyInput,
			Reason: "add a prompt or upload a reference image first",
		}
	}

	quantity := in.Quantity
	if quantity < 1 {
		quantity = 1
	}
	if quantity > MaxQuantity {
		quantity = MaxQuantity
	}
	required := in.Engine.Cost * quantity
	if in.Funding == domain.FundingCredits && !o.ledger.CanAfford(required) {
		return AdmissionDecision{
			Code:            AdmissionBlockedInsufficientCredits,
			Reason:          fmt.Sprintf("insufficient credits: need %d, have %d", required, o.ledger.Balance()),
			RequiredCredits: required,
		}
	}

	return AdmissionDecision{Allowed: true}
}
