package catalog

import (
	"context"
	"fmt"
)

// Updater refreshes a Store from a Fetcher.
type Updater struct {
	fetcher *Fetcher
	store   *Store
}

func NewUpdater(fetcher *Fetcher, store *Store) *Updater {
	return &Updater{fetcher: fetcher, store: store}
}

// Update fetches the upstream catalog and inserts anything new.
func (u *Updater) Update(ctx context.Context) (UpsertStats, error) {
	records, err := u.fetcher.Fetch(ctx)
	if err != nil {
		return UpsertStats{}, fmt.Errorf("fetch catalog: %w", err)
	}
	return u.store.Upsert(ctx, records)
}
