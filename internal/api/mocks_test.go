package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"primoboost-workers/internal/common/auth"
	"primoboost-workers/internal/common/config"
	apperrors "primoboost-workers/internal/common/errors"
	"primoboost-workers/internal/common/logger"
	"primoboost-workers/internal/models"
	autoapplystatus "primoboost-workers/internal/workers/applications/auto-apply-status"
	llmgenerate "primoboost-workers/internal/workers/ai/llm-generate"
	browserproxy "primoboost-workers/internal/workers/automation/browser-proxy"
	createorder "primoboost-workers/internal/workers/payments/create-order"
	"primoboost-workers/internal/workers/users/preferences"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Server
// ==========================

const (
	userToken  = "user-token"
	adminToken = "admin-token"
)

type fakeAuth struct{}

func (fakeAuth) ValidateToken(ctx context.Context, token string) (*auth.User, error) {
	switch token {
	case userToken:
		return &auth.User{ID: "user-1", Email: "asha@example.com"}, nil
	case adminToken:
		return &auth.User{ID: "admin-1", Email: "editor@example.com"}, nil
	default:
		return nil, apperrors.NewAuthenticationError("invalid or expired token")
	}
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Name = "primoboost-workers"
	cfg.Auth.AdminUserIDs = []string{"admin-1"}
	cfg.Server.AllowedOrigins = []string{"https://primoboost.ai"}
	return cfg
}

func newTestRouter(t *testing.T, services Services) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if services.Auth == nil {
		services.Auth = fakeAuth{}
	}
	return NewServer(testConfig(), services, logger.NewTestLogger(t)).Router()
}

func doRequest(r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			data, _ := json.Marshal(b)
			reader = bytes.NewReader(data)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// ==========================
// Mock Services
// ==========================

type MockStatus struct {
	mock.Mock
}

func (m *MockStatus) Execute(ctx context.Context, input *autoapplystatus.Input) (*autoapplystatus.Output, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*autoapplystatus.Output), args.Error(1)
}

type MockOrders struct {
	mock.Mock
}

func (m *MockOrders) Execute(ctx context.Context, input *createorder.Input) (*createorder.Output, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*createorder.Output), args.Error(1)
}

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Execute(ctx context.Context, input *llmgenerate.Input) (*llmgenerate.Output, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llmgenerate.Output), args.Error(1)
}

type MockBlog struct {
	mock.Mock
}

func (m *MockBlog) ListPublished(ctx context.Context, f models.BlogPostFilters) (*models.BlogPostsResponse, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BlogPostsResponse), args.Error(1)
}

func (m *MockBlog) GetBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BlogPost), args.Error(1)
}

func (m *MockBlog) Related(ctx context.Context, slug string, limit int) ([]models.BlogPost, error) {
	args := m.Called(ctx, slug, limit)
	return args.Get(0).([]models.BlogPost), args.Error(1)
}

func (m *MockBlog) Categories(ctx context.Context) ([]models.BlogCategory, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.BlogCategory), args.Error(1)
}

func (m *MockBlog) Tags(ctx context.Context) ([]models.BlogTag, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.BlogTag), args.Error(1)
}

func (m *MockBlog) CategoryBySlug(ctx context.Context, slug string) (*models.BlogCategory, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BlogCategory), args.Error(1)
}

func (m *MockBlog) TagBySlug(ctx context.Context, slug string) (*models.BlogTag, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BlogTag), args.Error(1)
}

func (m *MockBlog) CreatePost(ctx context.Context, in *models.BlogPostInput, authorID string) (*models.BlogPost, error) {
	args := m.Called(ctx, in, authorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BlogPost), args.Error(1)
}

func (m *MockBlog) UpdatePost(ctx context.Context, id string, in *models.BlogPostInput) (*models.BlogPost, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BlogPost), args.Error(1)
}

func (m *MockBlog) DeletePost(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockBlog) ListAll(ctx context.Context, page, pageSize int) (*models.BlogPostsResponse, error) {
	args := m.Called(ctx, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BlogPostsResponse), args.Error(1)
}

type MockWebinars struct {
	mock.Mock
}

func (m *MockWebinars) List(ctx context.Context, webinarID, userID string) ([]models.WebinarUpdate, error) {
	args := m.Called(ctx, webinarID, userID)
	return args.Get(0).([]models.WebinarUpdate), args.Error(1)
}

func (m *MockWebinars) UnreadCount(ctx context.Context, webinarID, userID string) int {
	return m.Called(ctx, webinarID, userID).Int(0)
}

func (m *MockWebinars) MarkViewed(ctx context.Context, updateID, userID string) error {
	return m.Called(ctx, updateID, userID).Error(0)
}

func (m *MockWebinars) MarkAllViewed(ctx context.Context, webinarID, userID string) (int64, error) {
	args := m.Called(ctx, webinarID, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockWebinars) Create(ctx context.Context, in *models.WebinarUpdateInput, createdBy string) (*models.WebinarUpdate, error) {
	args := m.Called(ctx, in, createdBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WebinarUpdate), args.Error(1)
}

func (m *MockWebinars) Update(ctx context.Context, id string, in *models.WebinarUpdateInput) (*models.WebinarUpdate, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WebinarUpdate), args.Error(1)
}

func (m *MockWebinars) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockWebinars) ListAll(ctx context.Context, webinarID string) ([]models.WebinarUpdate, error) {
	args := m.Called(ctx, webinarID)
	return args.Get(0).([]models.WebinarUpdate), args.Error(1)
}

type MockPreferences struct {
	mock.Mock
}

func (m *MockPreferences) Get(ctx context.Context, userID string) (*models.UserJobPreferences, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserJobPreferences), args.Error(1)
}

func (m *MockPreferences) Save(ctx context.Context, userID string, in *preferences.Input) (*models.UserJobPreferences, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserJobPreferences), args.Error(1)
}

func (m *MockPreferences) UpdateField(ctx context.Context, userID, field string, value interface{}) error {
	return m.Called(ctx, userID, field, value).Error(0)
}

func (m *MockPreferences) Delete(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockPreferences) HasCompletedOnboarding(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPreferences) CompleteOnboarding(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockPreferences) UploadResume(ctx context.Context, userID, filename, contentType string, data []byte) (string, error) {
	args := m.Called(ctx, userID, filename, contentType, data)
	return args.String(0), args.Error(1)
}

func (m *MockPreferences) DeleteResume(ctx context.Context, userID, resumeURL string) error {
	return m.Called(ctx, userID, resumeURL).Error(0)
}

type MockBrowser struct {
	mock.Mock
}

func (m *MockBrowser) AnalyzeForm(ctx context.Context, applicationURL string) (browserproxy.FormAnalysis, error) {
	args := m.Called(ctx, applicationURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(browserproxy.FormAnalysis), args.Error(1)
}

func (m *MockBrowser) AutoApply(ctx context.Context, req *browserproxy.AutoApplyRequest) (*browserproxy.AutoApplyResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*browserproxy.AutoApplyResponse), args.Error(1)
}

func (m *MockBrowser) Status(ctx context.Context, applicationID string) models.StatusProjection {
	return m.Called(ctx, applicationID).Get(0).(models.StatusProjection)
}

func (m *MockBrowser) Cancel(ctx context.Context, applicationID string) bool {
	return m.Called(ctx, applicationID).Bool(0)
}

func (m *MockBrowser) Health(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}
