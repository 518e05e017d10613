package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"studio/internal/domain"

	"github.com/go-chi/chi/v5"
)

type requestView struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Mode      string    `json:"mode"`
	Engine    string    `json:"engine"`
	Prompt    string    `json:"prompt"`
	AnchorURL string    `json:"anchor_url,omitempty"`
	JobID     string    `json:"job_id,omitempty"`
	ResultURL string    `json:"result_url,omitempty"`
	Cost      int       `json:"cost"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func viewOf(req domain.GenerationRequest) requestView {
	return requestView{
		ID:        req.ID,
		Status:    string(req.Status),
		Mode:      string(req.Mode),
		Engine:    req.EngineID,
		Prompt:    req.SourcePrompt,
		AnchorURL: req.AnchorURL,
		JobID:     req.JobID,
		ResultURL: req.ResultURL,
		Cost:      req.Cost,
		Error:     req.ErrorMessage,
		CreatedAt: req.CreatedAt,
		UpdatedAt: req.UpdatedAt,
	}
}

func (a *App) ListGenerations(w http.ResponseWriter, r *http.Request) {
	store := a.Orchestrator.Results()
	reqs := store.List()
	views := make([]requestView, 0, len(reqs))
	for _, req := range reqs {
		views = append(views, viewOf(req))
	}
	a.json(w, http.StatusOK, map[string]any{
		"items":         views,
		"active_id":     store.Active(),
		"is_generating": store.IsGenerating(),
	})
}

func (a *App) GetGeneration(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	req, ok := a.Orchestrator.Results().Get(id)
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "generation not found")
		return
	}
	a.json(w, http.StatusOK, viewOf(req))
}

func (a *App) DeleteGeneration(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !a.Orchestrator.Results().Remove(id) {
		a.error(w, http.StatusNotFound, "not_found", "generation not found")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "removed", "id": id})
}

// ExportGenerations streams every completed result as one zip archive.
func (a *App) ExportGenerations(w http.ResponseWriter, r *http.Request) {
	blob, count, err := a.Orchestrator.ExportResults(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "no completed results to export")
			return
		}
		a.Logger.Error().Err(err).Msg("export failed")
		a.error(w, http.StatusBadGateway, "export_failed", "failed to export results")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="results.zip"`)
	w.Header().Set("X-Export-Count", strconv.Itoa(count))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob)
}

func (a *App) ActivateGeneration(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !a.Orchestrator.Results().SetActive(id) {
		a.error(w, http.StatusNotFound, "not_found", "generation not found")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "active", "id": id})
}
