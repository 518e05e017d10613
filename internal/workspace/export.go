package workspace

import (
	"context"
	"fmt"

	"studio/internal/domain"
	"studio/pkg/zip"
)

// ExportResults downloads every completed result and bundles them into one
// zip archive. Requests whose download fails are skipped, not fatal: a
// partially reachable CDN still yields an archive of what could be fetched.
func (o *Orchestrator) ExportResults(ctx context.Context) ([]byte, int, error) {
	if o.media == nil {
		return nil, 0, fmt.Errorf("export: no media store configured")
	}

	entries := make([]zip.Entry, 0)
	for _, req := range o.store.List() {
		if req.Status != domain.RequestStatusDone || req.ResultURL == "" {
			continue
		}
		data, contentType, err := o.media.Download(ctx, req.ResultURL)
		if err != nil {
			o.logger.Warn().Err(err).Str("request_id", req.ID).Msg("export: download failed, skipping")
			continue
		}
		entries = append(entries, zip.Entry{
			Filename: req.ID + extensionFor(contentType),
			Data:     data,
		})
	}

	if len(entries) == 0 {
		return nil, 0, fmt.Errorf("export: %w: no completed results", domain.ErrNotFound)
	}

	blob, err := zip.Archive(entries)
	if err != nil {
		return nil, 0, err
	}
	return blob, len(entries), nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	default:
		return ".bin"
	}
}
