package workspace

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"studio/internal/domain"
	"studio/internal/remote"
)

// SourceAssets tracks the user's uploaded reference images. An upload starts
// as an uploading placeholder, is promoted to ready once the media store
// returns a durable id, and is removed entirely when the upload fails.
type SourceAssets struct {
	mu    sync.Mutex
	order []string
	byID  map[string]*domain.SourceAsset
}

// NewSourceAssets creates an empty tracker.
func NewSourceAssets() *SourceAssets {
	return &SourceAssets{byID: make(map[string]*domain.SourceAsset)}
}

// Begin registers an uploading placeholder and returns it.
func (s *SourceAssets) Begin(filename, mimeType string, size int64) domain.SourceAsset {
	asset := domain.SourceAsset{
		ID:        uuid.NewString(),
		Status:    domain.AssetStatusUploading,
		Filename:  filename,
		MIME:      mimeType,
		Bytes:     size,
		CreatedAt: time.Now(),
	}
	s.mu.Lock()
	clone := asset
	s.byID[asset.ID] = &clone
	s.order = append(s.order, asset.ID)
	s.mu.Unlock()
	return asset
}

// Promote marks the placeholder ready with its durable identity.
func (s *SourceAssets) Promote(id string, media remote.UploadedMedia) (domain.SourceAsset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	asset, ok := s.byID[id]
	if !ok {
		return domain.SourceAsset{}, false
	}
	asset.Status = domain.AssetStatusReady
	asset.URL = media.URL
	asset.RemoteMediaID = media.RemoteMediaID
	return *asset, true
}

// Drop removes an asset, used both for failed uploads and explicit removal.
func (s *SourceAssets) Drop(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	for i, candidate := range s.order {
		if candidate == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// FirstReady resolves the dispatch anchor: the first ready asset in upload
// order, if any.
func (s *SourceAssets) FirstReady() (domain.SourceAsset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order {
		if asset, ok := s.byID[id]; ok && asset.Ready() {
			return *asset, true
		}
	}
	return domain.SourceAsset{}, false
}

// List returns copies of all assets in upload order.
func (s *SourceAssets) List() []domain.SourceAsset {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.SourceAsset, 0, len(s.order))
	for _, id := range s.order {
		if asset, ok := s.byID[id]; ok {
			out = append(out, *asset)
		}
	}
	return out
}
