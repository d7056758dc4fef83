package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/JustinArce/MicroservicioPedidos/internal/domain/summary"
)

// SummaryStore is a map-backed read model store with the same
// last-event-seq guard as the Postgres repository.
type SummaryStore struct {
	mu   sync.RWMutex
	data map[string]*summary.OrderSummary
}

func NewSummaryStore() *SummaryStore {
	return &SummaryStore{data: make(map[string]*summary.OrderSummary)}
}

func (s *SummaryStore) Get(ctx context.Context, orderID string) (*summary.OrderSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cur, ok := s.data[orderID]
	if !ok {
		return nil, summary.ErrNotFound
	}
	cp := *cur
	return &cp, nil
}

func (s *SummaryStore) List(ctx context.Context, limit int) ([]*summary.OrderSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*summary.OrderSummary, 0, len(s.data))
	for _, cur := range s.data {
		cp := *cur
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *SummaryStore) Save(ctx context.Context, sum *summary.OrderSummary) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.data[sum.OrderID]; ok && cur.LastEventSeq >= sum.LastEventSeq {
		return false, nil
	}
	cp := *sum
	s.data[sum.OrderID] = &cp
	return true, nil
}
