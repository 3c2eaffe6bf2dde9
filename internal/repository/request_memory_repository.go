package repository

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/noah-isme/academic-help-api/internal/models"
)

// MemoryRequestRepository keeps requests in process memory. An optional
// latency simulates I/O on every call and honours context cancellation.
type MemoryRequestRepository struct {
	mu       sync.RWMutex
	requests map[string]models.ServiceRequest
	seq      atomic.Int64
	latency  time.Duration
}

// NewMemoryRequestRepository constructs an empty in-memory repository.
func NewMemoryRequestRepository(latency time.Duration) *MemoryRequestRepository {
	return &MemoryRequestRepository{
		requests: make(map[string]models.ServiceRequest),
		latency:  latency,
	}
}

// wait blocks for the configured latency or until ctx is done.
func wait(ctx context.Context, latency time.Duration) error {
	if latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NextSequence increments the in-process sequence.
func (r *MemoryRequestRepository) NextSequence(ctx context.Context) (int64, error) {
	if err := wait(ctx, r.latency); err != nil {
		return 0, err
	}
	return r.seq.Add(1), nil
}

// AdvanceSequence moves the sequence forward to at least seq.
func (r *MemoryRequestRepository) AdvanceSequence(seq int64) {
	for {
		current := r.seq.Load()
		if current >= seq || r.seq.CompareAndSwap(current, seq) {
			return
		}
	}
}

// FindByID returns a copy of the stored request.
func (r *MemoryRequestRepository) FindByID(ctx context.Context, id string) (*models.ServiceRequest, error) {
	if err := wait(ctx, r.latency); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := req.Clone()
	return &clone, nil
}

// Upsert stores a copy of req.
func (r *MemoryRequestRepository) Upsert(ctx context.Context, req *models.ServiceRequest) error {
	if err := wait(ctx, r.latency); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[req.ID] = req.Clone()
	return nil
}

// Delete removes a request; a missing id yields sql.ErrNoRows.
func (r *MemoryRequestRepository) Delete(ctx context.Context, id string) error {
	if err := wait(ctx, r.latency); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.requests[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.requests, id)
	return nil
}

// List returns one page of requests, newest first, with the total match count.
func (r *MemoryRequestRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.ServiceRequest, int, error) {
	matched, err := r.Scan(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	page := models.Paginate(matched, filter.Page, filter.PageSize)
	return page.Data, page.Total, nil
}

// Scan returns every matching request ordered newest first.
func (r *MemoryRequestRepository) Scan(ctx context.Context, filter models.RequestFilter) ([]models.ServiceRequest, error) {
	if err := wait(ctx, r.latency); err != nil {
		return nil, err
	}
	r.mu.RLock()
	matched := make([]models.ServiceRequest, 0, len(r.requests))
	for _, req := range r.requests {
		if filter.OwnerID != "" && req.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		matched = append(matched, req.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return models.NewerRequestID(matched[i].ID, matched[j].ID)
	})
	return matched, nil
}
