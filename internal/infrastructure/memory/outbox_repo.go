package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/JustinArce/MicroservicioPedidos/internal/domain/outbox"
)

// OutboxRepository is a slice-backed outbox used with the in-memory store.
type OutboxRepository struct {
	mu      sync.Mutex
	records []*outbox.Record
}

func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{}
}

func (r *OutboxRepository) Create(ctx context.Context, records []*outbox.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		cp := *rec
		if cp.Status == "" {
			cp.Status = outbox.StatusNew
		}
		r.records = append(r.records, &cp)
	}
	return nil
}

func (r *OutboxRepository) FetchBatch(ctx context.Context, limit int) ([]*outbox.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*outbox.Record
	for _, rec := range r.records {
		if rec.Status != outbox.StatusNew {
			continue
		}
		rec.Status = outbox.StatusProcessing
		rec.UpdatedAt = time.Now()
		cp := *rec
		out = append(out, &cp)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AggregateID != out[j].AggregateID {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].SequenceNumber < out[j].SequenceNumber
	})
	return out, nil
}

func (r *OutboxRepository) MarkProcessed(ctx context.Context, ids []string) error {
	return r.setStatus(ids, outbox.StatusProcessed)
}

func (r *OutboxRepository) Requeue(ctx context.Context, ids []string) error {
	return r.setStatus(ids, outbox.StatusNew)
}

func (r *OutboxRepository) setStatus(ids []string, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	for _, rec := range r.records {
		if _, ok := set[rec.ID]; ok {
			rec.Status = status
			rec.UpdatedAt = time.Now()
		}
	}
	return nil
}

// Pending reports how many records still await publishing.
func (r *OutboxRepository) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rec := range r.records {
		if rec.Status != outbox.StatusProcessed {
			n++
		}
	}
	return n
}

// NopTransactor satisfies the transactional seam for stores that have no
// transactions; the function runs with the context unchanged.
type NopTransactor struct{}

func (NopTransactor) WithinTransaction(ctx context.Context, tFunc func(ctx context.Context) error) error {
	return tFunc(ctx)
}
