package sheet

import (
	"context"

	"github.com/tbourn/go-ledger-bot/internal/cache"
	"github.com/tbourn/go-ledger-bot/internal/observability"
)

// CachedStore fronts a Store with a short-lived read cache keyed by
// storeID|range. Every write invalidates all cached ranges of the store
// before it returns, whether or not the write succeeded.
type CachedStore struct {
	next    Store
	storeID string
	cache   *cache.TTL[[][]string]
}

// NewCachedStore wraps next. The cache is shared by every range read
// through this store.
func NewCachedStore(next Store, storeID string, c *cache.TTL[[][]string]) *CachedStore {
	return &CachedStore{next: next, storeID: storeID, cache: c}
}

func (s *CachedStore) key(rng Range) string { return s.storeID + "|" + rng.String() }

func (s *CachedStore) GetRows(ctx context.Context, rng Range) ([][]string, error) {
	rows, hit, err := s.cache.GetOrLoad(s.key(rng), func() ([][]string, error) {
		return s.next.GetRows(ctx, rng)
	})
	if err != nil {
		return nil, err
	}
	if hit {
		observability.LedgerCacheRequests.WithLabelValues("hit").Inc()
	} else {
		observability.LedgerCacheRequests.WithLabelValues("miss").Inc()
	}
	return cloneRows(rows), nil
}

func (s *CachedStore) UpdateCell(ctx context.Context, ref CellRef, value string) error {
	defer s.invalidate()
	return s.next.UpdateCell(ctx, ref, value)
}

func (s *CachedStore) BatchUpdate(ctx context.Context, updates []CellUpdate) error {
	defer s.invalidate()
	return s.next.BatchUpdate(ctx, updates)
}

func (s *CachedStore) AppendRow(ctx context.Context, sheetName string, values []string) error {
	defer s.invalidate()
	return s.next.AppendRow(ctx, sheetName, values)
}

func (s *CachedStore) invalidate() { s.cache.InvalidatePrefix(s.storeID + "|") }

func cloneRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}
