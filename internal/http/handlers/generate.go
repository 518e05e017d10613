package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"studio/internal/domain"
	"studio/internal/middleware"
	"studio/internal/workspace"
)

type generateRequest struct {
	Prompt      string `json:"prompt"`
	Engine      string `json:"engine"`
	AspectRatio string `json:"aspect_ratio"`
	Quality     string `json:"quality"`
	Quantity    int    `json:"quantity"`
	Funding     string `json:"funding"`
	Category    string `json:"category"`
}

type generateResponse struct {
	RequestIDs []string `json:"request_ids"`
	Balance    int      `json:"balance"`
}

func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	ids, err := a.Orchestrator.Dispatch(workspace.DispatchInput{
		Authenticated: middleware.Authenticated(r.Context()),
		Prompt:        req.Prompt,
		EngineID:      req.Engine,
		AspectRatio:   req.AspectRatio,
		Quality:       req.Quality,
		Quantity:      req.Quantity,
		Funding:       domain.ParseFundingMode(req.Funding),
		Category:      req.Category,
	})
	if err != nil {
		a.dispatchError(w, err)
		return
	}

	a.json(w, http.StatusAccepted, generateResponse{
		RequestIDs: ids,
		Balance:    a.Orchestrator.Ledger().Balance(),
	})
}

// dispatchError maps admission blocks and engine lookup failures onto HTTP
// statuses. Admission never creates a request, so every branch here is safe
// to retry.
func (a *App) dispatchError(w http.ResponseWriter, err error) {
	var admission *workspace.AdmissionError
	if errors.As(err, &admission) {
		d := admission.Decision
		switch d.Code {
		case workspace.AdmissionBlockedUnauthenticated:
			a.error(w, http.StatusUnauthorized, d.Code, d.Reason)
		case workspace.AdmissionBlockedEmptyInput:
			a.error(w, http.StatusUnprocessableEntity, d.Code, d.Reason)
		case workspace.AdmissionBlockedInsufficientCredits:
			a.json(w, http.StatusPaymentRequired, map[string]any{
				"error": map[string]any{
					"code":             d.Code,
					"message":          d.Reason,
					"required_credits": d.RequiredCredits,
					"balance":          a.Orchestrator.Ledger().Balance(),
				},
			})
		default:
			a.error(w, http.StatusForbidden, "blocked", d.Reason)
		}
		return
	}
	if errors.Is(err, domain.ErrUnknownEngine) {
		a.error(w, http.StatusBadRequest, "unknown_engine", err.Error())
		return
	}
	a.Logger.Error().Err(err).Msg("dispatch failed")
	a.error(w, http.StatusInternalServerError, "internal", "failed to dispatch generation")
}
