package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-help-api/internal/models"
)

func memoryRequest(seq int64, owner string, created time.Time) *models.ServiceRequest {
	return &models.ServiceRequest{
		ID:        models.FormatRequestID(seq),
		OwnerID:   owner,
		Status:    models.RequestStatusPending,
		Priority:  models.PriorityMedium,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestMemoryRequestRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRequestRepository(0)

	req := memoryRequest(1, "mhs-001", time.Now().UTC())
	req.Attachments = []string{"ktm.pdf"}
	require.NoError(t, repo.Upsert(ctx, req))

	req.Attachments[0] = "mutated.pdf"
	stored, err := repo.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"ktm.pdf"}, stored.Attachments, "repository must keep its own copy")

	require.NoError(t, repo.Delete(ctx, req.ID))
	_, err = repo.FindByID(ctx, req.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.ErrorIs(t, repo.Delete(ctx, req.ID), sql.ErrNoRows)
}

func TestMemoryRequestRepositoryOrderingAndPaging(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRequestRepository(0)

	base := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	for i := int64(1); i <= 12; i++ {
		created := base.Add(time.Duration(i) * time.Hour)
		if i == 12 {
			created = base.Add(11 * time.Hour)
		}
		require.NoError(t, repo.Upsert(ctx, memoryRequest(i, "mhs-001", created)))
	}
	require.NoError(t, repo.Upsert(ctx, memoryRequest(13, "mhs-002", base)))

	items, total, err := repo.List(ctx, models.RequestFilter{OwnerID: "mhs-001", PageSize: 5})
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	require.Len(t, items, 5)
	assert.Equal(t, "REQ-012", items[0].ID, "ties on createdAt break by id descending")
	assert.Equal(t, "REQ-011", items[1].ID)

	items, _, err = repo.List(ctx, models.RequestFilter{OwnerID: "mhs-001", Page: 3, PageSize: 5})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, _, err = repo.List(ctx, models.RequestFilter{OwnerID: "mhs-001", Page: 9, PageSize: 5})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMemoryRequestRepositoryTiesOrderBySequence(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRequestRepository(0)
	created := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
	for _, seq := range []int64{999, 1000, 98} {
		require.NoError(t, repo.Upsert(ctx, memoryRequest(seq, "mhs-001", created)))
	}

	items, err := repo.Scan(ctx, models.RequestFilter{})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"REQ-1000", "REQ-999", "REQ-098"}, []string{items[0].ID, items[1].ID, items[2].ID})

	assert.True(t, models.NewerRequestID("REQ-1000", "REQ-999"))
	assert.False(t, models.NewerRequestID("REQ-999", "REQ-1000"))
	_, ok := models.RequestSequence("TICKET-1")
	assert.False(t, ok)
}

func TestMemoryRequestRepositorySequenceIsUnique(t *testing.T) {
	repo := NewMemoryRequestRepository(0)
	repo.AdvanceSequence(3)

	var (
		mu   sync.Mutex
		seen = map[int64]bool{}
		wg   sync.WaitGroup
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq, err := repo.NextSequence(context.Background())
			assert.NoError(t, err)
			mu.Lock()
			seen[seq] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 50)
	for seq := range seen {
		assert.Greater(t, seq, int64(3), fmt.Sprint(seq))
	}
	repo.AdvanceSequence(1)
	next, err := repo.NextSequence(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(54), next)
}

func TestMemoryRequestRepositoryLatencyHonoursContext(t *testing.T) {
	repo := NewMemoryRequestRepository(time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := repo.FindByID(ctx, "REQ-001")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSeedDemo(t *testing.T) {
	ctx := context.Background()
	requests := NewMemoryRequestRepository(0)
	notifications := NewMemoryNotificationRepository()

	require.NoError(t, SeedDemo(ctx, requests, notifications))

	all, err := requests.Scan(ctx, models.RequestFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "REQ-003", all[0].ID)

	seq, err := requests.NextSequence(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), seq)

	unread, err := notifications.CountUnread(ctx, "mhs-001")
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	for _, req := range all {
		assert.Equal(t, req.Status == models.RequestStatusCompleted, req.CompletedAt != nil, req.ID)
	}
}
