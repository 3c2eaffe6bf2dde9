package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-help-api/internal/models"
	"github.com/noah-isme/academic-help-api/internal/repository"
	"github.com/noah-isme/academic-help-api/internal/service"
)

type apiClient struct {
	t      *testing.T
	router *gin.Engine
}

func newAPI(t *testing.T) apiClient {
	t.Helper()
	gin.SetMode(gin.TestMode)

	requests := repository.NewMemoryRequestRepository(0)
	notifications := repository.NewMemoryNotificationRepository()
	require.NoError(t, repository.SeedDemo(context.Background(), requests, notifications))

	metrics := service.NewMetricsService()
	emitter := service.NewNotificationEmitter(notifications, nil, service.WithEmitterMetrics(metrics))
	requestSvc := service.NewRequestService(requests, service.NewCatalogService(nil), nil, nil,
		service.WithNotifier(emitter),
		service.WithAudit(repository.NewMemoryAuditRepository()),
		service.WithRequestMetrics(metrics),
	)
	auth := service.NewAuthService(nil, nil, service.AuthConfig{AccessTokenSecret: "test", Issuer: "academic-help-api", AllowDevTokens: true})

	r := gin.New()
	RegisterRoutes(r.Group("/api/v1"), Handlers{
		Auth:          NewAuthHandler(auth),
		Catalog:       NewCatalogHandler(service.NewCatalogService(nil)),
		Requests:      NewRequestHandler(requestSvc, service.NewExportService(requestSvc, nil, nil, nil)),
		Notifications: NewNotificationHandler(service.NewNotificationService(notifications, nil)),
		Metrics:       NewMetricsHandler(metrics, nil),
	}, auth)
	return apiClient{t: t, router: r}
}

func (a apiClient) token(userID, role string) string {
	rec := a.call("", http.MethodPost, "/auth/dev-token", models.DevTokenRequest{UserID: userID, Role: role})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	var token models.TokenResponse
	require.NoError(a.t, json.Unmarshal(decode(a.t, rec).Data, &token))
	return token.AccessToken
}

func (a apiClient) call(token, method, path string, body interface{}) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func TestRequestLifecycleOverHTTP(t *testing.T) {
	api := newAPI(t)
	student := api.token("mhs-001", "mahasiswa")
	other := api.token("mhs-002", "student")
	reviewer := api.token("dosen-001", "dosen")
	admin := api.token("admin-001", "admin")

	rec := api.call(student, http.MethodPost, "/requests", map[string]interface{}{
		"serviceId":   "2",
		"title":       "Cuti semester genap",
		"description": "Alasan kesehatan, terlampir surat dokter",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.ServiceRequest
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &created))
	assert.Equal(t, "REQ-004", created.ID)
	assert.Equal(t, models.CategoryLeave, created.Category)

	assert.Equal(t, http.StatusForbidden, api.call(reviewer, http.MethodPost, "/requests", map[string]string{"serviceId": "1"}).Code)
	assert.Equal(t, http.StatusForbidden, api.call(other, http.MethodGet, "/requests/REQ-004", nil).Code)
	assert.Equal(t, http.StatusForbidden, api.call(student, http.MethodGet, "/requests", nil).Code)
	assert.Equal(t, http.StatusForbidden, api.call(student, http.MethodPatch, "/requests/REQ-004/status", map[string]string{"status": "processing"}).Code)

	rec = api.call(reviewer, http.MethodPatch, "/requests/REQ-004/status", map[string]string{"status": "processing", "notes": "Sedang diverifikasi"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.call(student, http.MethodPatch, "/requests/REQ-004", map[string]string{"title": "Judul baru"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, http.StatusConflict, api.call(student, http.MethodDelete, "/requests/REQ-004", nil).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, api.call(admin, http.MethodPatch, "/requests/REQ-004/status", map[string]string{"status": "archived"}).Code)
	assert.Equal(t, http.StatusConflict, api.call(admin, http.MethodPatch, "/requests/REQ-004/status", map[string]string{"status": "completed"}).Code)

	rec = api.call(student, http.MethodGet, "/requests/REQ-004/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []models.StatusHistoryEntry
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &history))
	require.Len(t, history, 1)
	assert.Equal(t, "dosen-001", history[0].ChangedBy)

	rec = api.call(student, http.MethodGet, "/notifications?unreadOnly=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var inbox []models.Notification
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &inbox))
	require.Len(t, inbox, 2)
	assert.Equal(t, "REQ-004", *inbox[0].RelatedRequestID)
	assert.Contains(t, inbox[0].Message, `"Diproses"`)

	rec = api.call(student, http.MethodPost, "/notifications/read-all", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"updated":2}`, string(decode(t, rec).Data))
	assert.Equal(t, http.StatusForbidden, api.call(other, http.MethodDelete, "/notifications/notif-001", nil).Code)
}

func TestListingAndStatisticsOverHTTP(t *testing.T) {
	api := newAPI(t)
	student := api.token("mhs-001", "student")
	admin := api.token("admin-001", "admin")

	rec := api.call(student, http.MethodGet, "/requests/mine?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page models.Page[models.ServiceRequest]
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &page))
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, "REQ-003", page.Data[0].ID)

	assert.Equal(t, http.StatusForbidden, api.call(student, http.MethodGet, "/users/mhs-002/requests", nil).Code)
	assert.Equal(t, http.StatusOK, api.call(admin, http.MethodGet, "/users/mhs-001/requests", nil).Code)

	rec = api.call(admin, http.MethodGet, "/requests/statistics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, false, env.Meta["cache_hit"])
	var stats models.RequestStatistics
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, models.RequestStatistics{Total: 3, Pending: 1, Processing: 1, Completed: 1}, stats)

	rec = api.call(admin, http.MethodGet, "/requests/export?format=csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Equal(t, http.StatusForbidden, api.call(student, http.MethodGet, "/requests/export", nil).Code)

	assert.Equal(t, http.StatusOK, api.call(admin, http.MethodGet, "/system/metrics", nil).Code)
	assert.Equal(t, http.StatusForbidden, api.call(student, http.MethodGet, "/system/metrics", nil).Code)
}

func TestCatalogAndAuthOverHTTP(t *testing.T) {
	api := newAPI(t)

	assert.Equal(t, http.StatusUnauthorized, api.call("", http.MethodGet, "/services", nil).Code)
	assert.Equal(t, http.StatusBadRequest, api.call("", http.MethodPost, "/auth/dev-token", map[string]string{"role": "student"}).Code)
	assert.Equal(t, http.StatusBadRequest, api.call("", http.MethodPost, "/auth/dev-token", map[string]string{"userId": "x", "role": "janitor"}).Code)

	student := api.token("mhs-001", "student")
	rec := api.call(student, http.MethodGet, "/services?available=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var services []models.AcademicService
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &services))
	assert.Len(t, services, 4)

	assert.Equal(t, http.StatusNotFound, api.call(student, http.MethodGet, "/services/42", nil).Code)
}

func TestReadinessChecks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewMetricsHandler(nil, map[string]ReadinessCheck{
		"store": func(context.Context) error { return nil },
		"redis": func(context.Context) error { return assert.AnError },
	})
	r := gin.New()
	r.GET("/ready", h.Ready)
	r.GET("/health", h.Health)
	r.GET("/metrics", h.Prometheus)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"store":"ok"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
