package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/im7mortal/kmutex"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-help-api/internal/dto"
	"github.com/noah-isme/academic-help-api/internal/models"
	"github.com/noah-isme/academic-help-api/internal/workflow"
	appErrors "github.com/noah-isme/academic-help-api/pkg/errors"
)

const (
	defaultOperationTimeout = 5 * time.Second
	statsCachePattern       = "stats:*"
)

type requestRepository interface {
	NextSequence(ctx context.Context) (int64, error)
	FindByID(ctx context.Context, id string) (*models.ServiceRequest, error)
	Upsert(ctx context.Context, req *models.ServiceRequest) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.RequestFilter) ([]models.ServiceRequest, int, error)
	Scan(ctx context.Context, filter models.RequestFilter) ([]models.ServiceRequest, error)
}

type auditRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
	ListByResource(ctx context.Context, resource, resourceID, action string) ([]models.AuditLog, error)
}

type serviceCatalog interface {
	Get(ctx context.Context, id string) (*models.AcademicService, error)
}

// RequestService is the request store: every operation checks the access
// policy, then the lifecycle rules, and commits with a single write.
// Mutations of one request are serialised by id; different requests proceed
// in parallel.
type RequestService struct {
	repo      requestRepository
	catalog   serviceCatalog
	validator *validator.Validate
	logger    *zap.Logger
	engine    *workflow.Engine
	audit     auditRepository
	notifier  StatusNotifier
	cache     *CacheService
	statsTTL  time.Duration
	metrics   *MetricsService
	locks     *kmutex.Kmutex
	timeout   time.Duration
	now       func() time.Time

	// statsGen counts invalidations; a computed result is cached only if no
	// mutation committed while it was being computed.
	statsGen atomic.Uint64
	statsMu  sync.RWMutex
}

// RequestServiceOption customises a RequestService.
type RequestServiceOption func(*RequestService)

// WithLifecycle sets the transition engine; the default is strict.
func WithLifecycle(engine *workflow.Engine) RequestServiceOption {
	return func(s *RequestService) {
		if engine != nil {
			s.engine = engine
		}
	}
}

// WithAudit records create, update, status change and delete entries.
func WithAudit(repo auditRepository) RequestServiceOption {
	return func(s *RequestService) { s.audit = repo }
}

// WithNotifier receives committed status changes.
func WithNotifier(n StatusNotifier) RequestServiceOption {
	return func(s *RequestService) { s.notifier = n }
}

// WithStatisticsCache serves statistics from cache and invalidates it after mutations.
func WithStatisticsCache(cache *CacheService, ttl time.Duration) RequestServiceOption {
	return func(s *RequestService) {
		s.cache = cache
		s.statsTTL = ttl
	}
}

// WithRequestMetrics records store operation timings and transitions.
func WithRequestMetrics(m *MetricsService) RequestServiceOption {
	return func(s *RequestService) { s.metrics = m }
}

// WithOperationTimeout bounds every persistence call.
func WithOperationTimeout(d time.Duration) RequestServiceOption {
	return func(s *RequestService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) RequestServiceOption {
	return func(s *RequestService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewRequestService constructs a RequestService.
func NewRequestService(repo requestRepository, catalog serviceCatalog, validate *validator.Validate, logger *zap.Logger, opts ...RequestServiceOption) *RequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	s := &RequestService{
		repo:      repo,
		catalog:   catalog,
		validator: validate,
		logger:    logger,
		engine:    workflow.NewEngine(workflow.ModeStrict),
		locks:     kmutex.New(),
		timeout:   defaultOperationTimeout,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create submits a new request owned by the actor. It always starts pending.
func (s *RequestService) Create(ctx context.Context, actor models.Identity, input dto.CreateServiceRequest) (*models.ServiceRequest, error) {
	if workflow.Decide(actor, workflow.ActionCreate, nil) != workflow.Allow {
		return nil, forbidden("only students can submit requests")
	}

	input.ServiceID = strings.TrimSpace(input.ServiceID)
	input.Title = sanitizeText(input.Title)
	input.Description = sanitizeText(input.Description)
	input.Priority = strings.ToLower(strings.TrimSpace(input.Priority))
	attachments := make([]string, 0, len(input.Attachments))
	for _, a := range input.Attachments {
		attachments = append(attachments, strings.TrimSpace(a))
	}
	input.Attachments = attachments
	if err := s.validator.Struct(input); err != nil {
		return nil, validationError(err, "invalid request payload")
	}

	priority := models.PriorityMedium
	if input.Priority != "" {
		priority = models.RequestPriority(input.Priority)
	}

	svc, err := s.catalog.Get(ctx, input.ServiceID)
	if err != nil || !svc.IsAvailable {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "service is unknown or unavailable"), "serviceId:available")
	}

	var seq int64
	if err := s.call(ctx, "next_sequence", func(ctx context.Context) (err error) {
		seq, err = s.repo.NextSequence(ctx)
		return err
	}); err != nil {
		return nil, s.storeError(err, "failed to allocate request id")
	}

	now := s.clock()
	req := &models.ServiceRequest{
		ID:          models.FormatRequestID(seq),
		OwnerID:     actor.ID,
		ServiceID:   svc.ID,
		ServiceName: svc.Name,
		Title:       input.Title,
		Description: input.Description,
		Category:    svc.Category,
		Status:      models.RequestStatusPending,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
		Attachments: input.Attachments,
	}
	if err := s.put(ctx, req); err != nil {
		return nil, err
	}

	s.record(ctx, actor, models.AuditActionRequestCreate, req.ID, nil, req)
	s.invalidateStatistics(ctx)
	s.logger.Info("request created", zap.String("request_id", req.ID), zap.String("owner_id", req.OwnerID))
	created := req.Clone()
	return &created, nil
}

// Get returns a request the actor may read.
func (s *RequestService) Get(ctx context.Context, actor models.Identity, id string) (*models.ServiceRequest, error) {
	if !workflow.RolePermits(actor.Role, workflow.ActionRead) {
		return nil, forbidden("role cannot read requests")
	}
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if workflow.Decide(actor, workflow.ActionRead, req) != workflow.Allow {
		return nil, forbidden("request belongs to another user")
	}
	return req, nil
}

// ListByOwner pages through one owner's requests, newest first. Students may
// only list their own.
func (s *RequestService) ListByOwner(ctx context.Context, actor models.Identity, ownerID string, page, pageSize int) (models.Page[models.ServiceRequest], error) {
	ownerID = strings.TrimSpace(ownerID)
	switch {
	case actor.Role == models.RoleStudent:
		if ownerID != actor.ID {
			return models.Page[models.ServiceRequest]{}, forbidden("students can only list their own requests")
		}
	case !workflow.Can(actor, workflow.ActionViewAll, nil):
		return models.Page[models.ServiceRequest]{}, forbidden("role cannot list requests")
	}
	if ownerID == "" {
		return models.Page[models.ServiceRequest]{}, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "owner id is required"), "userId:required")
	}
	return s.list(ctx, models.RequestFilter{OwnerID: ownerID, Page: page, PageSize: pageSize})
}

// ListAll pages through every request, optionally filtered by status.
func (s *RequestService) ListAll(ctx context.Context, actor models.Identity, page, pageSize int, status string) (models.Page[models.ServiceRequest], error) {
	if !workflow.Can(actor, workflow.ActionViewAll, nil) {
		return models.Page[models.ServiceRequest]{}, forbidden("role cannot list all requests")
	}
	filter := models.RequestFilter{Page: page, PageSize: pageSize}
	if strings.TrimSpace(status) != "" {
		parsed, err := parseStatus(status)
		if err != nil {
			return models.Page[models.ServiceRequest]{}, err
		}
		filter.Status = parsed
	}
	return s.list(ctx, filter)
}

// Collect returns every request matching status, unpaged, for reviewers.
func (s *RequestService) Collect(ctx context.Context, actor models.Identity, status string) ([]models.ServiceRequest, error) {
	if !workflow.Can(actor, workflow.ActionViewAll, nil) {
		return nil, forbidden("role cannot list all requests")
	}
	var filter models.RequestFilter
	if strings.TrimSpace(status) != "" {
		parsed, err := parseStatus(status)
		if err != nil {
			return nil, err
		}
		filter.Status = parsed
	}
	var items []models.ServiceRequest
	if err := s.call(ctx, "scan", func(ctx context.Context) (err error) {
		items, err = s.repo.Scan(ctx, filter)
		return err
	}); err != nil {
		return nil, s.storeError(err, "failed to collect requests")
	}
	return items, nil
}

// UpdateContent lets the owner edit title, description and priority while
// the request is pending.
func (s *RequestService) UpdateContent(ctx context.Context, actor models.Identity, id string, patch dto.UpdateServiceRequest) (*models.ServiceRequest, error) {
	if !workflow.RolePermits(actor.Role, workflow.ActionEditContent) {
		return nil, forbidden("role cannot edit requests")
	}
	patch.Title = sanitizePtr(patch.Title)
	patch.Description = sanitizePtr(patch.Description)
	if patch.Priority != nil {
		p := strings.ToLower(strings.TrimSpace(*patch.Priority))
		patch.Priority = &p
	}
	if patch.Empty() {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "nothing to update"), "patch:empty")
	}
	if err := s.validator.Struct(patch); err != nil {
		return nil, validationError(err, "invalid update payload")
	}

	unlock := s.lock(id)
	defer unlock()

	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := decisionError(workflow.Decide(actor, workflow.ActionEditContent, current), "only pending requests can be edited"); err != nil {
		return nil, err
	}

	next := current.Clone()
	if patch.Title != nil {
		next.Title = *patch.Title
	}
	if patch.Description != nil {
		next.Description = *patch.Description
	}
	if patch.Priority != nil {
		next.Priority = models.RequestPriority(*patch.Priority)
	}
	next.UpdatedAt = workflow.Advance(current.UpdatedAt, s.now())

	if err := s.put(ctx, &next); err != nil {
		return nil, err
	}
	s.record(ctx, actor, models.AuditActionRequestUpdate, id, current, &next)
	s.invalidateStatistics(ctx)
	return &next, nil
}

// UpdateStatus moves a request through the lifecycle on behalf of a reviewer.
// Repeating the current status changes nothing unless new notes are given,
// and never notifies the owner.
func (s *RequestService) UpdateStatus(ctx context.Context, actor models.Identity, id string, input dto.UpdateRequestStatus) (*models.ServiceRequest, error) {
	if !workflow.RolePermits(actor.Role, workflow.ActionChangeStatus) {
		return nil, forbidden("only reviewers can change request status")
	}
	if err := s.validator.Struct(input); err != nil {
		return nil, validationError(err, "invalid status payload")
	}
	target, err := parseStatus(input.Status)
	if err != nil {
		return nil, err
	}
	notes := sanitizeText(input.Notes)

	unlock := s.lock(id)
	defer unlock()

	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := decisionError(workflow.Decide(actor, workflow.ActionChangeStatus, current), ""); err != nil {
		return nil, err
	}

	transition, err := s.engine.Apply(*current, target, notes, actor.ID, s.now())
	if err != nil {
		return nil, err
	}
	if !transition.Changed {
		return current, nil
	}
	next := transition.Request
	if err := s.put(ctx, &next); err != nil {
		return nil, err
	}

	if transition.StatusChanged {
		s.metrics.RecordTransition(transition.From, transition.To)
		s.record(ctx, actor, models.AuditActionRequestStatusChange, id,
			map[string]models.RequestStatus{"status": transition.From},
			models.StatusHistoryEntry{From: transition.From, To: transition.To, ChangedBy: actor.ID, Notes: notes, ChangedAt: next.UpdatedAt},
		)
		s.logger.Info("request status changed",
			zap.String("request_id", id),
			zap.String("from", string(transition.From)),
			zap.String("to", string(transition.To)),
			zap.String("changed_by", actor.ID),
		)
		if s.notifier != nil {
			s.notifier.StatusChanged(ctx, StatusChangeEvent{
				Request:   next.Clone(),
				From:      transition.From,
				To:        transition.To,
				ChangedBy: actor.ID,
				At:        next.UpdatedAt,
			})
		}
	} else {
		s.record(ctx, actor, models.AuditActionRequestUpdate, id, current, &next)
	}
	s.invalidateStatistics(ctx)
	return &next, nil
}

// Delete removes a pending request owned by the actor.
func (s *RequestService) Delete(ctx context.Context, actor models.Identity, id string) error {
	if !workflow.RolePermits(actor.Role, workflow.ActionDelete) {
		return forbidden("role cannot delete requests")
	}

	unlock := s.lock(id)
	defer unlock()

	current, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := decisionError(workflow.Decide(actor, workflow.ActionDelete, current), "only pending requests can be deleted"); err != nil {
		return err
	}
	if err := s.call(ctx, "delete", func(ctx context.Context) error {
		return s.repo.Delete(ctx, current.ID)
	}); err != nil {
		return s.storeError(err, "failed to delete request")
	}
	s.record(ctx, actor, models.AuditActionRequestDelete, current.ID, current, nil)
	s.invalidateStatistics(ctx)
	return nil
}

// Statistics aggregates per-status counts. Students are always scoped to
// their own requests; reviewers may pass an owner id or none for everything.
// The boolean reports whether the result came from cache.
func (s *RequestService) Statistics(ctx context.Context, actor models.Identity, ownerID string) (models.RequestStatistics, bool, error) {
	ownerID = strings.TrimSpace(ownerID)
	switch {
	case actor.Role == models.RoleStudent:
		ownerID = actor.ID
	case !workflow.Can(actor, workflow.ActionViewAll, nil):
		return models.RequestStatistics{}, false, forbidden("role cannot view statistics")
	}

	key := "stats:all"
	if ownerID != "" {
		key = "stats:owner:" + ownerID
	}
	var stats models.RequestStatistics
	if s.cache.Get(ctx, key, &stats) {
		return stats, true, nil
	}

	gen := s.statsGen.Load()
	var items []models.ServiceRequest
	if err := s.call(ctx, "scan", func(ctx context.Context) (err error) {
		items, err = s.repo.Scan(ctx, models.RequestFilter{OwnerID: ownerID})
		return err
	}); err != nil {
		return models.RequestStatistics{}, false, s.storeError(err, "failed to compute statistics")
	}
	stats = workflow.Aggregate(workflow.FilterByOwner(items, ownerID))
	s.cacheStatistics(ctx, key, stats, gen)
	return stats, false, nil
}

// History lists the effective status changes of a request, oldest first.
func (s *RequestService) History(ctx context.Context, actor models.Identity, id string) ([]models.StatusHistoryEntry, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	entries := []models.StatusHistoryEntry{}
	if s.audit == nil {
		return entries, nil
	}
	var logs []models.AuditLog
	if err := s.call(ctx, "history", func(ctx context.Context) (err error) {
		logs, err = s.audit.ListByResource(ctx, models.AuditResourceRequest, id, models.AuditActionRequestStatusChange)
		return err
	}); err != nil {
		return nil, s.storeError(err, "failed to load status history")
	}
	for _, entry := range logs {
		var item models.StatusHistoryEntry
		if err := json.Unmarshal(entry.NewValues, &item); err != nil {
			s.logger.Warn("skipping unreadable history entry", zap.String("audit_id", entry.ID), zap.Error(err))
			continue
		}
		entries = append(entries, item)
	}
	return entries, nil
}

func (s *RequestService) list(ctx context.Context, filter models.RequestFilter) (models.Page[models.ServiceRequest], error) {
	filter.Page, filter.PageSize = models.NormalizePage(filter.Page, filter.PageSize)
	var (
		items []models.ServiceRequest
		total int
	)
	if err := s.call(ctx, "list", func(ctx context.Context) (err error) {
		items, total, err = s.repo.List(ctx, filter)
		return err
	}); err != nil {
		return models.Page[models.ServiceRequest]{}, s.storeError(err, "failed to list requests")
	}
	return models.NewPage(items, total, filter.Page, filter.PageSize), nil
}

func (s *RequestService) load(ctx context.Context, id string) (*models.ServiceRequest, error) {
	var req *models.ServiceRequest
	if err := s.call(ctx, "get", func(ctx context.Context) (err error) {
		req, err = s.repo.FindByID(ctx, strings.TrimSpace(id))
		return err
	}); err != nil {
		return nil, s.storeError(err, "failed to load request")
	}
	return req, nil
}

func (s *RequestService) put(ctx context.Context, req *models.ServiceRequest) error {
	if err := s.call(ctx, "put", func(ctx context.Context) error {
		return s.repo.Upsert(ctx, req)
	}); err != nil {
		return s.storeError(err, "failed to save request")
	}
	return nil
}

// call runs one persistence operation under the operation timeout.
func (s *RequestService) call(ctx context.Context, op string, fn func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	start := time.Now()
	err := fn(callCtx)
	if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	s.metrics.ObserveStoreOperation(op, err, time.Since(start))
	return err
}

func (s *RequestService) storeError(err error, message string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "request not found")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return appErrors.Wrap(err, appErrors.ErrTimeout.Code, appErrors.ErrTimeout.Status, "request store did not respond in time")
	}
	s.logger.Error(message, zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func (s *RequestService) lock(id string) func() {
	key := strings.TrimSpace(id)
	s.locks.Lock(key)
	return func() { s.locks.Unlock(key) }
}

func (s *RequestService) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *RequestService) invalidateStatistics(ctx context.Context) {
	if !s.cache.Enabled() {
		return
	}
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	s.statsGen.Add(1)
	s.cache.Invalidate(context.WithoutCancel(ctx), statsCachePattern)
}

// cacheStatistics stores stats computed at generation gen unless a mutation
// has invalidated the cache since.
func (s *RequestService) cacheStatistics(ctx context.Context, key string, stats models.RequestStatistics, gen uint64) {
	if !s.cache.Enabled() {
		return
	}
	s.statsMu.RLock()
	defer s.statsMu.RUnlock()
	if s.statsGen.Load() != gen {
		return
	}
	s.cache.Set(ctx, key, stats, s.statsTTL)
}

// record writes an audit entry; failures are logged and never surface.
func (s *RequestService) record(ctx context.Context, actor models.Identity, action, id string, before, after interface{}) {
	if s.audit == nil {
		return
	}
	info := ClientInfoFromContext(ctx)
	entry := &models.AuditLog{
		UserID:     &actor.ID,
		Action:     action,
		Resource:   models.AuditResourceRequest,
		ResourceID: &id,
		OldValues:  marshalAudit(before),
		NewValues:  marshalAudit(after),
		IPAddress:  info.IP,
		UserAgent:  info.UserAgent,
		CreatedAt:  s.clock(),
	}
	if err := s.call(context.WithoutCancel(ctx), "audit", func(ctx context.Context) error {
		return s.audit.Create(ctx, entry)
	}); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.String("request_id", id), zap.Error(err))
	}
}

func marshalAudit(v interface{}) []byte {
	if v == nil {
		return nil
	}
	if req, ok := v.(*models.ServiceRequest); ok && req == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}

func parseStatus(raw string) (models.RequestStatus, error) {
	status, ok := models.ParseRequestStatus(raw)
	if !ok {
		return "", appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrInvalidStatus, fmt.Sprintf("unrecognized status %q", strings.TrimSpace(raw))),
			"unrecognized_status",
		)
	}
	return status, nil
}

func forbidden(message string) error {
	return appErrors.Clone(appErrors.ErrForbidden, message)
}

// decisionError maps a policy denial to an error: a state denial is an
// INVALID_STATE, every other denial is FORBIDDEN.
func decisionError(decision workflow.Decision, stateMessage string) error {
	switch decision {
	case workflow.Allow:
		return nil
	case workflow.DenyState:
		return appErrors.WithDetails(appErrors.Clone(appErrors.ErrInvalidState, stateMessage), "not_pending")
	case workflow.DenyOwner:
		return forbidden("request belongs to another user")
	}
	return forbidden("")
}
