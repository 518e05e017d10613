package handlers

import (
	"net/http"
	"sort"
)

type engineView struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Cost         int      `json:"cost"`
	Quality      string   `json:"quality,omitempty"`
	AspectRatios []string `json:"aspect_ratios,omitempty"`
	Default      bool     `json:"default"`
}

func (a *App) ListEngines(w http.ResponseWriter, r *http.Request) {
	defaultID := a.Catalog.Default().ID
	engines := a.Catalog.Engines()
	views := make([]engineView, 0, len(engines))
	for _, e := range engines {
		ratios := make([]string, 0, len(e.AspectRatios))
		for ratio := range e.AspectRatios {
			ratios = append(ratios, ratio)
		}
		sort.Strings(ratios)
		views = append(views, engineView{
			ID:           e.ID,
			Name:         e.Name,
			Cost:         e.Cost,
			Quality:      e.Quality,
			AspectRatios: ratios,
			Default:      e.ID == defaultID,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": views})
}
