package handlers

import (
	"net/http"
	"strconv"
	"time"
)

type historyView struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	ResultURL   string    `json:"result_url,omitempty"`
	Prompt      string    `json:"prompt,omitempty"`
	CreditsUsed int       `json:"credits_used"`
	CreatedAt   time.Time `json:"created_at"`
}

// History refreshes the server-backed history and returns the mapped view.
// The refresh replaces the cached snapshot wholesale; on remote failure the
// previous snapshot is returned unchanged.
func (a *App) History(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			a.error(w, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
			return
		}
		limit = n
	}
	category := r.URL.Query().Get("category")

	entries, err := a.Orchestrator.RefreshHistory(r.Context(), limit, category)
	stale := false
	if err != nil {
		a.Logger.Warn().Err(err).Msg("history refresh failed, serving cached snapshot")
		entries = a.Orchestrator.Results().History()
		stale = true
	}

	views := make([]historyView, 0, len(entries))
	for _, e := range entries {
		views = append(views, historyView{
			ID:          e.ID,
			Status:      string(e.Status),
			ResultURL:   e.ResultURL,
			Prompt:      e.Prompt,
			CreditsUsed: e.CreditsUsed,
			CreatedAt:   e.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": views, "stale": stale})
}
