package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-help-api/internal/dto"
	"github.com/noah-isme/academic-help-api/internal/models"
	"github.com/noah-isme/academic-help-api/internal/repository"
	"github.com/noah-isme/academic-help-api/internal/workflow"
	appErrors "github.com/noah-isme/academic-help-api/pkg/errors"
)

var (
	student  = models.Identity{ID: "mhs-001", Role: models.RoleStudent}
	student2 = models.Identity{ID: "mhs-002", Role: models.RoleStudent}
	admin    = models.Identity{ID: "admin-001", Role: models.RoleAdmin}
	reviewer = models.Identity{ID: "dosen-001", Role: models.RoleReviewer}
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []StatusChangeEvent
}

func (n *recordingNotifier) StatusChanged(_ context.Context, event StatusChangeEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

// flakyRepo fails writes on demand on top of the in-memory repository.
type flakyRepo struct {
	*repository.MemoryRequestRepository
	failUpsert bool
}

func (r *flakyRepo) Upsert(ctx context.Context, req *models.ServiceRequest) error {
	if r.failUpsert {
		return errors.New("disk full")
	}
	return r.MemoryRequestRepository.Upsert(ctx, req)
}

type fixture struct {
	svc      *RequestService
	repo     *flakyRepo
	notifier *recordingNotifier
	audit    *repository.MemoryAuditRepository
}

func newFixture(t *testing.T, opts ...RequestServiceOption) fixture {
	t.Helper()
	repo := &flakyRepo{MemoryRequestRepository: repository.NewMemoryRequestRepository(0)}
	notifier := &recordingNotifier{}
	audit := repository.NewMemoryAuditRepository()
	base := []RequestServiceOption{WithNotifier(notifier), WithAudit(audit)}
	svc := NewRequestService(repo, NewCatalogService(nil), nil, nil, append(base, opts...)...)
	return fixture{svc: svc, repo: repo, notifier: notifier, audit: audit}
}

func validCreate() dto.CreateServiceRequest {
	return dto.CreateServiceRequest{
		ServiceID:   "1",
		Title:       "Permohonan Surat Aktif Kuliah",
		Description: "Untuk keperluan pengajuan beasiswa",
		Attachments: []string{"ktm.pdf"},
	}
}

func mustCreate(t *testing.T, svc *RequestService, actor models.Identity) *models.ServiceRequest {
	t.Helper()
	req, err := svc.Create(context.Background(), actor, validCreate())
	require.NoError(t, err)
	return req
}

func assertKind(t *testing.T, err error, kind *appErrors.Error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, kind), "expected %s, got %v", kind.Code, err)
}

func TestCreateRequest(t *testing.T) {
	f := newFixture(t)

	input := validCreate()
	input.Title = "  <b>Surat aktif</b>  "
	req, err := f.svc.Create(context.Background(), student, input)
	require.NoError(t, err)

	assert.Equal(t, "REQ-001", req.ID)
	assert.Equal(t, student.ID, req.OwnerID)
	assert.Equal(t, models.RequestStatusPending, req.Status)
	assert.Equal(t, models.PriorityMedium, req.Priority)
	assert.Equal(t, "Surat Aktif Kuliah", req.ServiceName)
	assert.Equal(t, models.CategoryActiveLetter, req.Category)
	assert.Equal(t, "bSurat aktif/b", req.Title)
	assert.Equal(t, req.CreatedAt, req.UpdatedAt)
	assert.Nil(t, req.CompletedAt)

	second := mustCreate(t, f.svc, student)
	assert.Equal(t, "REQ-002", second.ID)
}

func TestCreateRequestValidation(t *testing.T) {
	f := newFixture(t)
	cases := map[string]func(*dto.CreateServiceRequest){
		"short description":  func(in *dto.CreateServiceRequest) { in.Description = "   singkat   " },
		"missing title":      func(in *dto.CreateServiceRequest) { in.Title = "  " },
		"bad priority":       func(in *dto.CreateServiceRequest) { in.Priority = "urgent" },
		"too many files":     func(in *dto.CreateServiceRequest) { in.Attachments = make([]string, 11) },
		"unknown service":    func(in *dto.CreateServiceRequest) { in.ServiceID = "99" },
		"missing service id": func(in *dto.CreateServiceRequest) { in.ServiceID = "" },
		"blank attachment":   func(in *dto.CreateServiceRequest) { in.Attachments = []string{" "} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			input := validCreate()
			mutate(&input)
			_, err := f.svc.Create(context.Background(), student, input)
			assertKind(t, err, appErrors.ErrValidation)
		})
	}

	all, err := f.repo.Scan(context.Background(), models.RequestFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateRequestForbiddenForReviewers(t *testing.T) {
	f := newFixture(t)
	for _, actor := range []models.Identity{admin, reviewer, {ID: "x", Role: "guest"}} {
		_, err := f.svc.Create(context.Background(), actor, validCreate())
		assertKind(t, err, appErrors.ErrForbidden)
	}
}

func TestGetRequestAccess(t *testing.T) {
	f := newFixture(t)
	req := mustCreate(t, f.svc, student)
	ctx := context.Background()

	got, err := f.svc.Get(ctx, student, req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, got.ID)

	_, err = f.svc.Get(ctx, admin, req.ID)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, student2, req.ID)
	assertKind(t, err, appErrors.ErrForbidden)

	_, err = f.svc.Get(ctx, student, "REQ-404")
	assertKind(t, err, appErrors.ErrNotFound)
}

func TestListByOwnerPaging(t *testing.T) {
	now := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	f := newFixture(t, WithClock(func() time.Time {
		now = now.Add(time.Minute)
		return now
	}))
	for i := 0; i < 12; i++ {
		mustCreate(t, f.svc, student)
	}
	mustCreate(t, f.svc, student2)
	ctx := context.Background()

	page, err := f.svc.ListByOwner(ctx, student, student.ID, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, 12, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 5, page.Limit)
	require.Len(t, page.Data, 5)
	assert.Equal(t, "REQ-007", page.Data[0].ID)

	page, err = f.svc.ListByOwner(ctx, student, student.ID, 0, 500)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, models.MaxPageSize, page.Limit)
	assert.Len(t, page.Data, 12)

	page, err = f.svc.ListByOwner(ctx, admin, student2.ID, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPageSize, page.Limit)
	assert.Equal(t, 1, page.Total)

	_, err = f.svc.ListByOwner(ctx, student, student2.ID, 1, 10)
	assertKind(t, err, appErrors.ErrForbidden)
}

func TestListAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := mustCreate(t, f.svc, student)
	mustCreate(t, f.svc, student2)
	_, err := f.svc.UpdateStatus(ctx, admin, first.ID, dto.UpdateRequestStatus{Status: "processing"})
	require.NoError(t, err)

	page, err := f.svc.ListAll(ctx, reviewer, 1, 10, "")
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	page, err = f.svc.ListAll(ctx, reviewer, 1, 10, "PROCESSING")
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, first.ID, page.Data[0].ID)

	_, err = f.svc.ListAll(ctx, admin, 1, 10, "archived")
	assertKind(t, err, appErrors.ErrInvalidStatus)

	_, err = f.svc.ListAll(ctx, student, 1, 10, "")
	assertKind(t, err, appErrors.ErrForbidden)
}

func TestUpdateContentOnlyWhilePending(t *testing.T) {
	fixed := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
	f := newFixture(t, WithClock(func() time.Time { return fixed }))
	ctx := context.Background()
	req := mustCreate(t, f.svc, student)

	title := "Judul baru"
	priority := "high"
	updated, err := f.svc.UpdateContent(ctx, student, req.ID, dto.UpdateServiceRequest{Title: &title, Priority: &priority})
	require.NoError(t, err)
	assert.Equal(t, "Judul baru", updated.Title)
	assert.Equal(t, models.PriorityHigh, updated.Priority)
	assert.Equal(t, req.Description, updated.Description)
	assert.True(t, updated.UpdatedAt.After(req.UpdatedAt), "updatedAt must advance even when the clock does not")

	_, err = f.svc.UpdateContent(ctx, student2, req.ID, dto.UpdateServiceRequest{Title: &title})
	assertKind(t, err, appErrors.ErrForbidden)

	_, err = f.svc.UpdateContent(ctx, admin, req.ID, dto.UpdateServiceRequest{Title: &title})
	assertKind(t, err, appErrors.ErrForbidden)

	_, err = f.svc.UpdateContent(ctx, student, req.ID, dto.UpdateServiceRequest{})
	assertKind(t, err, appErrors.ErrValidation)

	_, err = f.svc.UpdateStatus(ctx, admin, req.ID, dto.UpdateRequestStatus{Status: "processing"})
	require.NoError(t, err)

	_, err = f.svc.UpdateContent(ctx, student, req.ID, dto.UpdateServiceRequest{Title: &title})
	assertKind(t, err, appErrors.ErrInvalidState)
	assert.False(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestUpdateStatusFullLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := mustCreate(t, f.svc, student)

	processing, err := f.svc.UpdateStatus(ctx, reviewer, req.ID, dto.UpdateRequestStatus{Status: "processing", Notes: "Dokumen diverifikasi"})
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusProcessing, processing.Status)
	require.NotNil(t, processing.ApprovedBy)
	assert.Equal(t, reviewer.ID, *processing.ApprovedBy)

	approved, err := f.svc.UpdateStatus(ctx, admin, req.ID, dto.UpdateRequestStatus{Status: "approved"})
	require.NoError(t, err)
	require.NotNil(t, approved.Notes)
	assert.Equal(t, "Dokumen diverifikasi", *approved.Notes, "empty notes keep the previous ones")
	assert.Nil(t, approved.CompletedAt)

	completed, err := f.svc.UpdateStatus(ctx, admin, req.ID, dto.UpdateRequestStatus{Status: "completed", Notes: "Silakan ambil di loket"})
	require.NoError(t, err)
	require.NotNil(t, completed.CompletedAt)
	assert.Equal(t, completed.UpdatedAt, *completed.CompletedAt)
	assert.True(t, completed.UpdatedAt.After(approved.UpdatedAt))

	assert.Equal(t, 3, f.notifier.count())
	assert.Equal(t, models.RequestStatusCompleted, f.notifier.events[2].To)
	assert.Equal(t, student.ID, f.notifier.events[2].Request.OwnerID)

	history, err := f.svc.History(ctx, student, req.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, models.RequestStatusPending, history[0].From)
	assert.Equal(t, models.RequestStatusCompleted, history[2].To)
	assert.Equal(t, admin.ID, history[2].ChangedBy)

	_, err = f.svc.History(ctx, student2, req.ID)
	assertKind(t, err, appErrors.ErrForbidden)
}

func TestUpdateStatusRejectsIllegalRequests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := mustCreate(t, f.svc, student)

	_, err := f.svc.UpdateStatus(ctx, student, req.ID, dto.UpdateRequestStatus{Status: "processing"})
	assertKind(t, err, appErrors.ErrForbidden)

	_, err = f.svc.UpdateStatus(ctx, admin, req.ID, dto.UpdateRequestStatus{Status: "archived"})
	assertKind(t, err, appErrors.ErrInvalidStatus)

	_, err = f.svc.UpdateStatus(ctx, admin, req.ID, dto.UpdateRequestStatus{Status: "completed"})
	assertKind(t, err, appErrors.ErrInvalidState)

	_, err = f.svc.UpdateStatus(ctx, admin, req.ID, dto.UpdateRequestStatus{Status: "rejected"})
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, admin, req.ID, dto.UpdateRequestStatus{Status: "pending"})
	assertKind(t, err, appErrors.ErrInvalidState)

	_, err = f.svc.UpdateStatus(ctx, admin, "REQ-404", dto.UpdateRequestStatus{Status: "processing"})
	assertKind(t, err, appErrors.ErrNotFound)

	stored, err := f.svc.Get(ctx, admin, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusRejected, stored.Status)
	assert.Equal(t, 1, f.notifier.count())
}

func TestUpdateStatusPermissiveMode(t *testing.T) {
	f := newFixture(t, WithLifecycle(workflow.NewEngine(workflow.ModePermissive)))
	ctx := context.Background()
	req := mustCreate(t, f.svc, student)

	completed, err := f.svc.UpdateStatus(ctx, admin, req.ID, dto.UpdateRequestStatus{Status: "completed"})
	require.NoError(t, err)
	require.NotNil(t, completed.CompletedAt)

	reopened, err := f.svc.UpdateStatus(ctx, admin, req.ID, dto.UpdateRequestStatus{Status: "processing"})
	require.NoError(t, err)
	assert.Nil(t, reopened.CompletedAt)

	_, err = f.svc.UpdateStatus(ctx, admin, req.ID, dto.UpdateRequestStatus{Status: "pending"})
	assertKind(t, err, appErrors.ErrInvalidState)
}

func TestUpdateStatusSameStatusIsSilent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := mustCreate(t, f.svc, student)

	first, err := f.svc.UpdateStatus(ctx, admin, req.ID, dto.UpdateRequestStatus{Status: "processing"})
	require.NoError(t, err)

	again, err := f.svc.UpdateStatus(ctx, reviewer, req.ID, dto.UpdateRequestStatus{Status: "processing"})
	require.NoError(t, err)
	assert.Equal(t, first.UpdatedAt, again.UpdatedAt)
	assert.Equal(t, admin.ID, *again.ApprovedBy)

	withNotes, err := f.svc.UpdateStatus(ctx, reviewer, req.ID, dto.UpdateRequestStatus{Status: "processing", Notes: "menunggu tanda tangan"})
	require.NoError(t, err)
	assert.True(t, withNotes.UpdatedAt.After(first.UpdatedAt))
	assert.Equal(t, reviewer.ID, *withNotes.ApprovedBy)

	assert.Equal(t, 1, f.notifier.count())
	history, err := f.svc.History(ctx, admin, req.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestDeleteRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	processing := mustCreate(t, f.svc, student)
	pending := mustCreate(t, f.svc, student)

	_, err := f.svc.UpdateStatus(ctx, admin, processing.ID, dto.UpdateRequestStatus{Status: "processing"})
	require.NoError(t, err)

	assertKind(t, f.svc.Delete(ctx, student, processing.ID), appErrors.ErrInvalidState)
	assertKind(t, f.svc.Delete(ctx, student2, pending.ID), appErrors.ErrForbidden)
	assertKind(t, f.svc.Delete(ctx, admin, pending.ID), appErrors.ErrForbidden)

	require.NoError(t, f.svc.Delete(ctx, student, pending.ID))
	_, err = f.svc.Get(ctx, student, pending.ID)
	assertKind(t, err, appErrors.ErrNotFound)
	assertKind(t, f.svc.Delete(ctx, student, pending.ID), appErrors.ErrNotFound)

	next := mustCreate(t, f.svc, student)
	assert.Equal(t, "REQ-003", next.ID, "ids are never reused")

	stillThere, err := f.svc.Get(ctx, student, processing.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusProcessing, stillThere.Status)
}

func TestNonOwnerErrorsOnOwnerOnlyPaths(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := mustCreate(t, f.svc, student)
	title := "Judul lain"

	_, err := f.svc.UpdateContent(ctx, student2, req.ID, dto.UpdateServiceRequest{Title: &title})
	assertKind(t, err, appErrors.ErrForbidden)
	assertKind(t, f.svc.Delete(ctx, student2, req.ID), appErrors.ErrForbidden)

	_, err = f.svc.UpdateContent(ctx, student2, "REQ-404", dto.UpdateServiceRequest{Title: &title})
	assertKind(t, err, appErrors.ErrNotFound)
	assertKind(t, f.svc.Delete(ctx, student2, "REQ-404"), appErrors.ErrNotFound)

	stored, err := f.svc.Get(ctx, student, req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.Title, stored.Title)
}

func TestStatistics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := mustCreate(t, f.svc, student)
	mustCreate(t, f.svc, student)
	mustCreate(t, f.svc, student2)
	_, err := f.svc.UpdateStatus(ctx, admin, a.ID, dto.UpdateRequestStatus{Status: "rejected"})
	require.NoError(t, err)

	own, _, err := f.svc.Statistics(ctx, student, student2.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatistics{Total: 2, Pending: 1, Rejected: 1}, own, "students are scoped to themselves")

	all, _, err := f.svc.Statistics(ctx, admin, "")
	require.NoError(t, err)
	assert.Equal(t, 3, all.Total)
	assert.Equal(t, all.Total, all.Pending+all.Processing+all.Approved+all.Rejected+all.Completed)

	scoped, _, err := f.svc.Statistics(ctx, reviewer, student2.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, scoped.Total)

	_, _, err = f.svc.Statistics(ctx, models.Identity{ID: "x", Role: "guest"}, "")
	assertKind(t, err, appErrors.ErrForbidden)
}

func TestStatisticsCacheInvalidatedByMutations(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCacheService(repository.NewCacheRepository(client, "test", nil), nil, time.Minute, nil, true)

	f := newFixture(t, WithStatisticsCache(cache, time.Minute))
	ctx := context.Background()
	mustCreate(t, f.svc, student)

	stats, hit, err := f.svc.Statistics(ctx, admin, "")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, stats.Total)

	stats, hit, err = f.svc.Statistics(ctx, admin, "")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, stats.Total)

	mustCreate(t, f.svc, student)
	stats, hit, err = f.svc.Statistics(ctx, admin, "")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, stats.Total)
}

// pausingScanRepo holds the first Scan after it has read the store, until released.
type pausingScanRepo struct {
	*repository.MemoryRequestRepository
	once    sync.Once
	scanned chan struct{}
	release chan struct{}
}

func (r *pausingScanRepo) Scan(ctx context.Context, filter models.RequestFilter) ([]models.ServiceRequest, error) {
	items, err := r.MemoryRequestRepository.Scan(ctx, filter)
	r.once.Do(func() {
		close(r.scanned)
		<-r.release
	})
	return items, err
}

func TestStatisticsNotCachedAcrossConcurrentMutation(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCacheService(repository.NewCacheRepository(client, "test", nil), nil, time.Minute, nil, true)

	repo := &pausingScanRepo{
		MemoryRequestRepository: repository.NewMemoryRequestRepository(0),
		scanned:                 make(chan struct{}),
		release:                 make(chan struct{}),
	}
	svc := NewRequestService(repo, NewCatalogService(nil), nil, nil, WithStatisticsCache(cache, time.Minute))
	ctx := context.Background()
	mustCreate(t, svc, student)

	type result struct {
		stats models.RequestStatistics
		err   error
	}
	done := make(chan result, 1)
	go func() {
		stats, _, err := svc.Statistics(ctx, admin, "")
		done <- result{stats, err}
	}()

	<-repo.scanned
	mustCreate(t, svc, student)
	close(repo.release)

	first := <-done
	require.NoError(t, first.err)
	assert.Equal(t, 1, first.stats.Total)

	stats, hit, err := svc.Statistics(ctx, admin, "")
	require.NoError(t, err)
	assert.False(t, hit, "a result computed before the mutation must not be cached")
	assert.Equal(t, 2, stats.Total)

	stats, hit, err = svc.Statistics(ctx, admin, "")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 2, stats.Total)
}

func TestConcurrentCreatesGetUniqueIDs(t *testing.T) {
	f := newFixture(t)
	var wg sync.WaitGroup
	ids := make(chan string, 40)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, err := f.svc.Create(context.Background(), student, validCreate())
			if assert.NoError(t, err) {
				ids <- req.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		assert.False(t, seen[id], id)
		seen[id] = true
	}
	assert.Len(t, seen, 40)
}

func TestConcurrentStatusChangesAreSerialised(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := mustCreate(t, f.svc, student)
	_, err := f.svc.UpdateStatus(ctx, admin, req.ID, dto.UpdateRequestStatus{Status: "processing"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		target := "approved"
		if i%2 == 1 {
			target = "rejected"
		}
		wg.Add(1)
		go func(target string) {
			defer wg.Done()
			_, err := f.svc.UpdateStatus(ctx, admin, req.ID, dto.UpdateRequestStatus{Status: target})
			if err != nil {
				assert.True(t, errors.Is(err, appErrors.ErrInvalidState), err.Error())
			}
		}(target)
	}
	wg.Wait()

	assert.Equal(t, 2, f.notifier.count(), "exactly one of the competing transitions is applied")
	final, err := f.svc.Get(ctx, admin, req.ID)
	require.NoError(t, err)
	assert.Contains(t, []models.RequestStatus{models.RequestStatusApproved, models.RequestStatusRejected}, final.Status)
}

func TestStoreTimeout(t *testing.T) {
	repo := repository.NewMemoryRequestRepository(200 * time.Millisecond)
	svc := NewRequestService(repo, NewCatalogService(nil), nil, nil, WithOperationTimeout(10*time.Millisecond))

	_, err := svc.Create(context.Background(), student, validCreate())
	assertKind(t, err, appErrors.ErrTimeout)
}

func TestFailedWriteLeavesStoreUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := mustCreate(t, f.svc, student)

	f.repo.failUpsert = true
	_, err := f.svc.UpdateStatus(ctx, admin, req.ID, dto.UpdateRequestStatus{Status: "processing"})
	assertKind(t, err, appErrors.ErrInternal)
	f.repo.failUpsert = false

	stored, err := f.svc.Get(ctx, student, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, stored.Status)
	assert.Equal(t, req.UpdatedAt, stored.UpdatedAt)
	assert.Zero(t, f.notifier.count())
}

func TestAuditEntriesCarryClientInfo(t *testing.T) {
	f := newFixture(t)
	ctx := ContextWithClientInfo(context.Background(), ClientInfo{IP: "10.0.0.1", UserAgent: "test-agent"})
	req, err := f.svc.Create(ctx, student, validCreate())
	require.NoError(t, err)

	logs, err := f.audit.ListByResource(context.Background(), models.AuditResourceRequest, req.ID, models.AuditActionRequestCreate)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "10.0.0.1", logs[0].IPAddress)
	assert.True(t, strings.Contains(string(logs[0].NewValues), req.ID))
}
