package handlers

import (
	"encoding/json"
	"net/http"

	"studio/internal/catalog"
	"studio/internal/workspace"

	"github.com/rs/zerolog"
)

// App carries the shared dependencies of every handler.
type App struct {
	Logger       zerolog.Logger
	Orchestrator *workspace.Orchestrator
	Catalog      *catalog.Catalog
}

func NewApp(logger zerolog.Logger, o *workspace.Orchestrator, cat *catalog.Catalog) *App {
	return &App{Logger: logger, Orchestrator: o, Catalog: cat}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
