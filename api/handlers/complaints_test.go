package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportos/complaintstack/dto"
	"github.com/supportos/complaintstack/interfaces"
	"github.com/supportos/complaintstack/internal/enum"
	er "github.com/supportos/complaintstack/internal/errors"
	"github.com/supportos/complaintstack/internal/models"
	"github.com/supportos/complaintstack/internal/repository"
)

type fakeComplaintRepo struct {
	complaints  map[string]*models.Complaint
	attachments map[string]*models.ComplaintAttachment
	lastFilter  interfaces.ComplaintFilter
}

func newFakeRepo() *fakeComplaintRepo {
	return &fakeComplaintRepo{
		complaints:  make(map[string]*models.Complaint),
		attachments: make(map[string]*models.ComplaintAttachment),
	}
}

func (r *fakeComplaintRepo) Create(ctx context.Context, complaint *models.Complaint) error {
	r.complaints[complaint.ID] = complaint
	return nil
}

func (r *fakeComplaintRepo) Update(ctx context.Context, complaint *models.Complaint) error {
	r.complaints[complaint.ID] = complaint
	return nil
}

func (r *fakeComplaintRepo) GetByID(ctx context.Context, id string) (*models.Complaint, error) {
	complaint, ok := r.complaints[id]
	if !ok {
		return nil, er.ErrComplaintNotFound
	}
	return complaint, nil
}

func (r *fakeComplaintRepo) GetByMessageID(ctx context.Context, messageID string) (*models.Complaint, error) {
	return nil, nil
}

func (r *fakeComplaintRepo) List(ctx context.Context, filter interfaces.ComplaintFilter) ([]models.Complaint, int64, error) {
	r.lastFilter = filter
	out := make([]models.Complaint, 0, len(r.complaints))
	for _, c := range r.complaints {
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (r *fakeComplaintRepo) GetAttachment(ctx context.Context, complaintID, attachmentID string) (*models.ComplaintAttachment, error) {
	attachment, ok := r.attachments[complaintID+"/"+attachmentID]
	if !ok {
		return nil, er.ErrAttachmentNotFound
	}
	return attachment, nil
}

func (r *fakeComplaintRepo) CountByStatus(ctx context.Context) (map[enum.ComplaintStatus]int64, error) {
	return map[enum.ComplaintStatus]int64{}, nil
}

type fakeStorage struct{}

func (s *fakeStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	return nil
}

func (s *fakeStorage) Download(ctx context.Context, key string) ([]byte, error) {
	return nil, nil
}

func (s *fakeStorage) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://bucket.example/" + key + "?signed", nil
}

func (s *fakeStorage) Bucket() string { return "bucket" }

type fakePipeline struct {
	reprocessErr error
	reprocessed  []string
	status       *dto.PipelineStatus
}

func (p *fakePipeline) RunCycle(ctx context.Context) error { return nil }

func (p *fakePipeline) Reprocess(ctx context.Context, complaintID string) error {
	if p.reprocessErr != nil {
		return p.reprocessErr
	}
	p.reprocessed = append(p.reprocessed, complaintID)
	return nil
}

func (p *fakePipeline) Status(ctx context.Context) (*dto.PipelineStatus, error) {
	return p.status, nil
}

func (p *fakePipeline) Stop(ctx context.Context) {}

func setupRouter(repo *fakeComplaintRepo, pipeline *fakePipeline) *gin.Engine {
	gin.SetMode(gin.TestMode)
	repos := &repository.Repositories{ComplaintRepository: repo}
	complaints := NewComplaintsHandler(repos, &fakeStorage{}, pipeline)
	pipelineHandler := NewPipelineHandler(pipeline)

	r := gin.New()
	r.GET("/v1/complaints", complaints.List())
	r.GET("/v1/complaints/:id", complaints.Get())
	r.GET("/v1/complaints/:id/attachments/:attachmentId/url", complaints.AttachmentURL())
	r.POST("/v1/complaints/:id/reprocess", complaints.Reprocess())
	r.GET("/v1/pipeline/status", pipelineHandler.Status())
	return r
}

func doRequest(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestListComplaints(t *testing.T) {
	// Arrange
	repo := newFakeRepo()
	repo.complaints["cmp-1"] = &models.Complaint{ID: "cmp-1", Subject: "Damaged box", Status: enum.ComplaintStatusCompleted}
	router := setupRouter(repo, &fakePipeline{})

	// Act
	w := doRequest(router, http.MethodGet, "/v1/complaints?status=pending&category=delivery&priority=high&limit=10&offset=5")

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Complaints []models.Complaint `json:"complaints"`
		Total      int64              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(1), body.Total)
	require.Len(t, body.Complaints, 1)
	assert.Equal(t, "cmp-1", body.Complaints[0].ID)

	assert.Equal(t, enum.ComplaintStatusPending, repo.lastFilter.Status)
	assert.Equal(t, enum.CategoryDelivery, repo.lastFilter.Category)
	assert.Equal(t, enum.PriorityHigh, repo.lastFilter.Priority)
	assert.Equal(t, 10, repo.lastFilter.Limit)
	assert.Equal(t, 5, repo.lastFilter.Offset)
}

func TestListComplaints_InvalidFilters(t *testing.T) {
	router := setupRouter(newFakeRepo(), &fakePipeline{})

	tests := []struct {
		name string
		path string
	}{
		{"unknown status", "/v1/complaints?status=archived"},
		{"unknown category", "/v1/complaints?category=gardening"},
		{"unknown priority", "/v1/complaints?priority=urgent"},
		{"bad date", "/v1/complaints?receivedAfter=yesterday"},
		{"negative limit", "/v1/complaints?limit=-1"},
		{"non-numeric offset", "/v1/complaints?offset=abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodGet, tt.path)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestGetComplaint(t *testing.T) {
	// Arrange
	repo := newFakeRepo()
	repo.complaints["cmp-1"] = &models.Complaint{ID: "cmp-1", Subject: "Late delivery"}
	router := setupRouter(repo, &fakePipeline{})

	// Act
	found := doRequest(router, http.MethodGet, "/v1/complaints/cmp-1")
	missing := doRequest(router, http.MethodGet, "/v1/complaints/cmp-404")

	// Assert
	require.Equal(t, http.StatusOK, found.Code)
	var complaint models.Complaint
	require.NoError(t, json.Unmarshal(found.Body.Bytes(), &complaint))
	assert.Equal(t, "Late delivery", complaint.Subject)

	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestAttachmentURL(t *testing.T) {
	// Arrange
	repo := newFakeRepo()
	repo.attachments["cmp-1/att-1"] = &models.ComplaintAttachment{
		ID:         "att-1",
		Filename:   "receipt.pdf",
		StorageKey: "attachments/msg-1/receipt.pdf",
	}
	repo.attachments["cmp-1/att-2"] = &models.ComplaintAttachment{
		ID:       "att-2",
		Filename: "lost.pdf",
	}
	router := setupRouter(repo, &fakePipeline{})

	// Act
	ok := doRequest(router, http.MethodGet, "/v1/complaints/cmp-1/attachments/att-1/url")
	noCopy := doRequest(router, http.MethodGet, "/v1/complaints/cmp-1/attachments/att-2/url")
	missing := doRequest(router, http.MethodGet, "/v1/complaints/cmp-1/attachments/att-404/url")

	// Assert
	require.Equal(t, http.StatusOK, ok.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(ok.Body.Bytes(), &body))
	assert.Equal(t, "https://bucket.example/attachments/msg-1/receipt.pdf?signed", body["url"])
	assert.Equal(t, "receipt.pdf", body["filename"])

	assert.Equal(t, http.StatusNotFound, noCopy.Code)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestReprocessComplaint(t *testing.T) {
	// Arrange
	pipeline := &fakePipeline{}
	router := setupRouter(newFakeRepo(), pipeline)

	// Act
	w := doRequest(router, http.MethodPost, "/v1/complaints/cmp-1/reprocess")

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"cmp-1"}, pipeline.reprocessed)
}

func TestReprocessComplaint_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"not found", er.ErrComplaintNotFound, http.StatusNotFound},
		{"not failed", er.ErrComplaintNotFailed, http.StatusConflict},
		{"analyzer down", er.ErrAnalyzerUnavailable, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupRouter(newFakeRepo(), &fakePipeline{reprocessErr: tt.err})
			w := doRequest(router, http.MethodPost, "/v1/complaints/cmp-1/reprocess")
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestPipelineStatus(t *testing.T) {
	// Arrange
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	pipeline := &fakePipeline{status: &dto.PipelineStatus{
		Running:        true,
		InFlight:       3,
		LastCycleAt:    &now,
		LastCycleCount: 7,
		Counts:         map[string]int64{"completed": 12},
	}}
	router := setupRouter(newFakeRepo(), pipeline)

	// Act
	w := doRequest(router, http.MethodGet, "/v1/pipeline/status")

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	var status dto.PipelineStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.True(t, status.Running)
	assert.Equal(t, 3, status.InFlight)
	assert.Equal(t, 7, status.LastCycleCount)
	assert.Equal(t, int64(12), status.Counts["completed"])
}
