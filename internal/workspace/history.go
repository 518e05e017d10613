package workspace

import (
	"context"

	"studio/internal/domain"
	"studio/internal/remote"
)

// RefreshHistory fetches the last limit jobs for a category from the remote
// registry, maps them onto the local status vocabulary and replaces the
// history view wholesale. The wholesale replace keeps the read idempotent:
// two fetches over identical backend data yield identical lists.
func (o *Orchestrator) RefreshHistory(ctx context.Context, limit int, category string) ([]domain.HistoryEntry, error) {
	records, err := o.jobs.List(ctx, remote.ListParams{Limit: limit, Category: category})
	if err != nil {
		return nil, err
	}

	entries := make([]domain.HistoryEntry, 0, len(records))
	for _, rec := range records {
		entry := domain.HistoryEntry{
			ID:          rec.ID,
			Status:      domain.MapJobStatus(rec.Status),
			Prompt:      rec.Prompt,
			CreditsUsed: rec.CreditsUsed,
			CreatedAt:   rec.CreatedAt,
		}
		if len(rec.ResultImages) > 0 {
			entry.ResultURL = rec.ResultImages[0]
		}
		entries = append(entries, entry)
	}

	o.store.ReplaceHistory(entries)
	return entries, nil
}
