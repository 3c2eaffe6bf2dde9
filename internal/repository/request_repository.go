package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/academic-help-api/internal/models"
)

const requestColumns = `id, owner_id, service_id, service_name, title, description, category, status, priority, created_at, updated_at, completed_at, notes, approved_by, attachments`

// requestRow maps attachments onto a Postgres text array.
type requestRow struct {
	models.ServiceRequest
	Attachments pq.StringArray `db:"attachments"`
}

func toRow(req *models.ServiceRequest) requestRow {
	return requestRow{ServiceRequest: *req, Attachments: pq.StringArray(req.Attachments)}
}

func (r requestRow) model() models.ServiceRequest {
	req := r.ServiceRequest
	req.Attachments = append([]string{}, r.Attachments...)
	return req
}

// RequestRepository persists service requests in PostgreSQL.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository creates a new instance of RequestRepository.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// NextSequence draws the next request number; values are never handed out twice.
func (r *RequestRepository) NextSequence(ctx context.Context) (int64, error) {
	var seq int64
	if err := r.db.GetContext(ctx, &seq, `SELECT nextval('service_request_seq')`); err != nil {
		return 0, fmt.Errorf("next request sequence: %w", err)
	}
	return seq, nil
}

// FindByID returns a request by identifier.
func (r *RequestRepository) FindByID(ctx context.Context, id string) (*models.ServiceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM service_requests WHERE id = $1 LIMIT 1`
	var row requestRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find request by id: %w", err)
	}
	req := row.model()
	return &req, nil
}

// Upsert writes the full record in one statement.
func (r *RequestRepository) Upsert(ctx context.Context, req *models.ServiceRequest) error {
	const query = `INSERT INTO service_requests (` + requestColumns + `)
VALUES (:id, :owner_id, :service_id, :service_name, :title, :description, :category, :status, :priority, :created_at, :updated_at, :completed_at, :notes, :approved_by, :attachments)
ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, description = EXCLUDED.description, priority = EXCLUDED.priority, status = EXCLUDED.status, updated_at = EXCLUDED.updated_at, completed_at = EXCLUDED.completed_at, notes = EXCLUDED.notes, approved_by = EXCLUDED.approved_by, attachments = EXCLUDED.attachments`
	if _, err := r.db.NamedExecContext(ctx, query, toRow(req)); err != nil {
		return fmt.Errorf("upsert request: %w", err)
	}
	return nil
}

// Delete removes a request; a missing row yields sql.ErrNoRows.
func (r *RequestRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM service_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	return requireAffected(res)
}

func requestConditions(filter models.RequestFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	where := "FROM service_requests WHERE 1=1"
	if len(conditions) > 0 {
		where += " AND " + strings.Join(conditions, " AND ")
	}
	return where, args
}

// List returns one page of requests, newest first, with the total match count.
func (r *RequestRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.ServiceRequest, int, error) {
	where, args := requestConditions(filter)
	page, pageSize := models.NormalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC, length(id) DESC, id DESC LIMIT %d OFFSET %d", requestColumns, where, pageSize, offset)
	var rows []requestRow
	if err := r.db.SelectContext(ctx, &rows, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list requests: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count requests: %w", err)
	}

	requests := make([]models.ServiceRequest, 0, len(rows))
	for _, row := range rows {
		requests = append(requests, row.model())
	}
	return requests, total, nil
}

// Scan returns every request matching the filter, ignoring pagination.
func (r *RequestRepository) Scan(ctx context.Context, filter models.RequestFilter) ([]models.ServiceRequest, error) {
	where, args := requestConditions(filter)
	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC, length(id) DESC, id DESC", requestColumns, where)
	var rows []requestRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("scan requests: %w", err)
	}
	requests := make([]models.ServiceRequest, 0, len(rows))
	for _, row := range rows {
		requests = append(requests, row.model())
	}
	return requests, nil
}
