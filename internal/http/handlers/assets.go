package handlers

import (
	"io"
	"net/http"
	"time"

	"studio/internal/domain"

	"github.com/go-chi/chi/v5"
)

// maxUploadBytes bounds a single source image upload.
const maxUploadBytes = 10 << 20

type assetView struct {
	ID        string    `json:"id"`
	URL       string    `json:"url,omitempty"`
	Status    string    `json:"status"`
	Filename  string    `json:"filename"`
	Bytes     int64     `json:"bytes"`
	CreatedAt time.Time `json:"created_at"`
}

func assetViewOf(a domain.SourceAsset) assetView {
	return assetView{
		ID:        a.ID,
		URL:       a.URL,
		Status:    string(a.Status),
		Filename:  a.Filename,
		Bytes:     a.Bytes,
		CreatedAt: a.CreatedAt,
	}
}

func (a *App) UploadAsset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart payload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "file field required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "failed to read upload")
		return
	}

	asset, err := a.Orchestrator.UploadSource(r.Context(), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		a.Logger.Error().Err(err).Str("filename", header.Filename).Msg("source upload failed")
		a.error(w, http.StatusBadGateway, "upload_failed", "failed to store source image")
		return
	}
	a.json(w, http.StatusCreated, assetViewOf(asset))
}

func (a *App) ListAssets(w http.ResponseWriter, r *http.Request) {
	assets := a.Orchestrator.Assets().List()
	views := make([]assetView, 0, len(assets))
	for _, asset := range assets {
		views = append(views, assetViewOf(asset))
	}
	a.json(w, http.StatusOK, map[string]any{"items": views})
}

func (a *App) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !a.Orchestrator.Assets().Drop(id) {
		a.error(w, http.StatusNotFound, "not_found", "asset not found")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "removed", "id": id})
}
