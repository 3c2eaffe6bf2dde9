package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-help-api/internal/models"
)

// AuditRepository stores audit trail entries in PostgreSQL.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository creates a new instance of AuditRepository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create stores an audit log entry.
func (r *AuditRepository) Create(ctx context.Context, log *models.AuditLog) error {
	prepareAudit(log)
	const query = `INSERT INTO audit_logs (id, user_id, action, resource, resource_id, old_values, new_values, ip_address, user_agent, created_at) VALUES (:id, :user_id, :action, :resource, :resource_id, :old_values, :new_values, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// ListByResource returns entries for one resource and action, oldest first.
func (r *AuditRepository) ListByResource(ctx context.Context, resource, resourceID, action string) ([]models.AuditLog, error) {
	const query = `SELECT id, user_id, action, resource, resource_id, old_values, new_values, ip_address, user_agent, created_at FROM audit_logs WHERE resource = $1 AND resource_id = $2 AND action = $3 ORDER BY created_at ASC`
	var logs []models.AuditLog
	if err := r.db.SelectContext(ctx, &logs, query, resource, resourceID, action); err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, nil
}

func prepareAudit(log *models.AuditLog) {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
}

// MemoryAuditRepository keeps audit entries in process memory.
type MemoryAuditRepository struct {
	mu   sync.RWMutex
	logs []models.AuditLog
}

// NewMemoryAuditRepository constructs an empty repository.
func NewMemoryAuditRepository() *MemoryAuditRepository {
	return &MemoryAuditRepository{}
}

func (r *MemoryAuditRepository) Create(ctx context.Context, log *models.AuditLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	prepareAudit(log)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, *log)
	return nil
}

func (r *MemoryAuditRepository) ListByResource(ctx context.Context, resource, resourceID, action string) ([]models.AuditLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var logs []models.AuditLog
	for _, entry := range r.logs {
		if entry.Resource != resource || entry.Action != action {
			continue
		}
		if entry.ResourceID == nil || *entry.ResourceID != resourceID {
			continue
		}
		logs = append(logs, entry)
	}
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].CreatedAt.Before(logs[j].CreatedAt)
	})
	return logs, nil
}
