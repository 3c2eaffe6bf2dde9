package repository

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/noah-isme/academic-help-api/internal/models"
)

// MemoryNotificationRepository keeps notifications in process memory.
type MemoryNotificationRepository struct {
	mu    sync.RWMutex
	items map[string]models.Notification
}

// NewMemoryNotificationRepository constructs an empty repository.
func NewMemoryNotificationRepository() *MemoryNotificationRepository {
	return &MemoryNotificationRepository{items: make(map[string]models.Notification)}
}

func (r *MemoryNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[n.ID] = *n
	return nil
}

func (r *MemoryNotificationRepository) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &n, nil
}

func (r *MemoryNotificationRepository) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	items := make([]models.Notification, 0)
	for _, n := range r.items {
		if n.UserID != filter.UserID || (filter.UnreadOnly && n.IsRead) {
			continue
		}
		items = append(items, n)
	}
	r.mu.RUnlock()
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})
	return items, nil
}

func (r *MemoryNotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	items, err := r.List(ctx, models.NotificationFilter{UserID: userID, UnreadOnly: true})
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

func (r *MemoryNotificationRepository) MarkRead(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	n.IsRead = true
	r.items[id] = n
	return nil
}

func (r *MemoryNotificationRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for id, n := range r.items {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			r.items[id] = n
			count++
		}
	}
	return count, nil
}

func (r *MemoryNotificationRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.items, id)
	return nil
}
