// Package api exposes the job-application, checkout, blog, webinar,
// preference, automation and text-generation operations over HTTP.
package api

import (
	"context"
	"time"

	"primoboost-workers/internal/common/auth"
	"primoboost-workers/internal/common/config"
	"primoboost-workers/internal/common/logger"
	"primoboost-workers/internal/common/observability"
	"primoboost-workers/internal/models"
	autoapplystatus "primoboost-workers/internal/workers/applications/auto-apply-status"
	llmgenerate "primoboost-workers/internal/workers/ai/llm-generate"
	browserproxy "primoboost-workers/internal/workers/automation/browser-proxy"
	createorder "primoboost-workers/internal/workers/payments/create-order"
	"primoboost-workers/internal/workers/users/preferences"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type StatusProjector interface {
	Execute(ctx context.Context, input *autoapplystatus.Input) (*autoapplystatus.Output, error)
}

type OrderCreator interface {
	Execute(ctx context.Context, input *createorder.Input) (*createorder.Output, error)
}

type TextGenerator interface {
	Execute(ctx context.Context, input *llmgenerate.Input) (*llmgenerate.Output, error)
}

// BlogService is satisfied by *blog.Store.
type BlogService interface {
	ListPublished(ctx context.Context, f models.BlogPostFilters) (*models.BlogPostsResponse, error)
	GetBySlug(ctx context.Context, slug string) (*models.BlogPost, error)
	Related(ctx context.Context, slug string, limit int) ([]models.BlogPost, error)
	Categories(ctx context.Context) ([]models.BlogCategory, error)
	Tags(ctx context.Context) ([]models.BlogTag, error)
	CategoryBySlug(ctx context.Context, slug string) (*models.BlogCategory, error)
	TagBySlug(ctx context.Context, slug string) (*models.BlogTag, error)
	CreatePost(ctx context.Context, in *models.BlogPostInput, authorID string) (*models.BlogPost, error)
	UpdatePost(ctx context.Context, id string, in *models.BlogPostInput) (*models.BlogPost, error)
	DeletePost(ctx context.Context, id string) error
	ListAll(ctx context.Context, page, pageSize int) (*models.BlogPostsResponse, error)
}

// WebinarUpdates is satisfied by *updates.Service.
type WebinarUpdates interface {
	List(ctx context.Context, webinarID, userID string) ([]models.WebinarUpdate, error)
	UnreadCount(ctx context.Context, webinarID, userID string) int
	MarkViewed(ctx context.Context, updateID, userID string) error
	MarkAllViewed(ctx context.Context, webinarID, userID string) (int64, error)
	Create(ctx context.Context, in *models.WebinarUpdateInput, createdBy string) (*models.WebinarUpdate, error)
	Update(ctx context.Context, id string, in *models.WebinarUpdateInput) (*models.WebinarUpdate, error)
	Delete(ctx context.Context, id string) error
	ListAll(ctx context.Context, webinarID string) ([]models.WebinarUpdate, error)
}

// PreferenceService is satisfied by *preferences.Service.
type PreferenceService interface {
	Get(ctx context.Context, userID string) (*models.UserJobPreferences, error)
	Save(ctx context.Context, userID string, in *preferences.Input) (*models.UserJobPreferences, error)
	UpdateField(ctx context.Context, userID, field string, value interface{}) error
	Delete(ctx context.Context, userID string) error
	HasCompletedOnboarding(ctx context.Context, userID string) (bool, error)
	CompleteOnboarding(ctx context.Context, userID string) error
	UploadResume(ctx context.Context, userID, filename, contentType string, data []byte) (string, error)
	DeleteResume(ctx context.Context, userID, resumeURL string) error
}

// BrowserAutomation is satisfied by *browserproxy.Client.
type BrowserAutomation interface {
	AnalyzeForm(ctx context.Context, applicationURL string) (browserproxy.FormAnalysis, error)
	AutoApply(ctx context.Context, req *browserproxy.AutoApplyRequest) (*browserproxy.AutoApplyResponse, error)
	Status(ctx context.Context, applicationID string) models.StatusProjection
	Cancel(ctx context.Context, applicationID string) bool
	Health(ctx context.Context) bool
}

// Services groups the operations the router dispatches to. A nil member
// leaves its routes unregistered.
type Services struct {
	Auth        auth.TokenValidator
	Status      StatusProjector
	Orders      OrderCreator
	Blog        BlogService
	Webinars    WebinarUpdates
	Preferences PreferenceService
	Browser     BrowserAutomation
	Generator   TextGenerator
}

// ReadinessCheck reports whether one dependency is reachable.
type ReadinessCheck func(ctx context.Context) error

type Server struct {
	config   *config.Config
	services Services
	obs      *observability.Observability
	checks   map[string]ReadinessCheck
	logger   logger.Logger
	now      func() time.Time
}

func NewServer(cfg *config.Config, services Services, log logger.Logger) *Server {
	return &Server{
		config:   cfg,
		services: services,
		checks:   make(map[string]ReadinessCheck),
		logger:   log.WithFields(map[string]interface{}{"component": "api"}),
		now:      time.Now,
	}
}

// WithObservability records request counts and latency on the otel meter too.
func (s *Server) WithObservability(o *observability.Observability) *Server {
	s.obs = o
	return s
}

// WithReadinessCheck adds a dependency probed by /ready.
func (s *Server) WithReadinessCheck(name string, check ReadinessCheck) *Server {
	s.checks[name] = check
	return s
}

// Router builds the gin engine with every route whose service is configured.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = 8 << 20
	r.Use(gin.Recovery(), s.requestID(), s.accessLog(), s.recordMetrics(), s.cors())

	r.GET("/health", s.health)
	r.GET("/ready", s.ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if s.services.Status != nil {
		r.GET("/status", s.getStatus)
		r.GET("/status/:applicationId", s.getStatus)
	}

	authed := r.Group("/", s.requireAuth())
	admin := r.Group("/admin", s.requireAuth(), s.requireAdmin())

	if s.services.Orders != nil {
		authed.POST("/order", s.createOrder)
	}

	if s.services.Blog != nil {
		blog := r.Group("/blog")
		blog.GET("/posts", s.listPosts)
		blog.GET("/posts/:slug", s.getPost)
		blog.GET("/posts/:slug/related", s.relatedPosts)
		blog.GET("/categories", s.listCategories)
		blog.GET("/categories/:slug", s.getCategory)
		blog.GET("/tags", s.listTags)
		blog.GET("/tags/:slug", s.getTag)

		admin.GET("/blog/posts", s.adminListPosts)
		admin.POST("/blog/posts", s.createPost)
		admin.PUT("/blog/posts/:id", s.updatePost)
		admin.DELETE("/blog/posts/:id", s.deletePost)
	}

	if s.services.Webinars != nil {
		r.GET("/webinars/:webinarId/updates", s.optionalAuth(), s.listWebinarUpdates)
		authed.GET("/webinars/:webinarId/updates/unread", s.unreadWebinarUpdates)
		authed.POST("/webinars/:webinarId/updates/view-all", s.markAllWebinarUpdatesViewed)
		authed.POST("/webinars/updates/:updateId/view", s.markWebinarUpdateViewed)

		admin.GET("/webinars/:webinarId/updates", s.adminListWebinarUpdates)
		admin.POST("/webinars/updates", s.createWebinarUpdate)
		admin.PUT("/webinars/updates/:id", s.updateWebinarUpdate)
		admin.DELETE("/webinars/updates/:id", s.deleteWebinarUpdate)
	}

	if s.services.Preferences != nil {
		prefs := authed.Group("/preferences")
		prefs.GET("", s.getPreferences)
		prefs.PUT("", s.savePreferences)
		prefs.DELETE("", s.deletePreferences)
		prefs.PATCH("/:field", s.updatePreferenceField)
		prefs.GET("/onboarding", s.onboardingStatus)
		prefs.POST("/onboarding", s.completeOnboarding)
		prefs.POST("/resume", s.uploadResume)
		prefs.DELETE("/resume", s.deleteResume)
	}

	if s.services.Browser != nil {
		r.GET("/automation/health", s.browserHealth)
		automation := authed.Group("/automation")
		automation.POST("/analyze-form", s.analyzeForm)
		automation.POST("/auto-apply", s.autoApply)
		automation.GET("/status/:id", s.automationStatus)
		automation.POST("/cancel/:id", s.cancelAutoApply)
	}

	if s.services.Generator != nil {
		authed.POST("/ai/generate", s.generate)
	}

	return r
}
