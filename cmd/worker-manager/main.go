// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"primoboost-workers/internal/api"
	"primoboost-workers/internal/catalog"
	"primoboost-workers/internal/common/auth"
	awsclient "primoboost-workers/internal/common/aws"
	"primoboost-workers/internal/common/camunda"
	"primoboost-workers/internal/common/config"
	"primoboost-workers/internal/common/database"
	"primoboost-workers/internal/common/logger"
	"primoboost-workers/internal/common/observability"
	"primoboost-workers/internal/scheduler"

	llmgenerate "primoboost-workers/internal/workers/ai/llm-generate"
	autoapplystatus "primoboost-workers/internal/workers/applications/auto-apply-status"
	browserproxy "primoboost-workers/internal/workers/automation/browser-proxy"
	"primoboost-workers/internal/workers/content/blog"
	createorder "primoboost-workers/internal/workers/payments/create-order"
	"primoboost-workers/internal/workers/users/preferences"
	"primoboost-workers/internal/workers/webinars/updates"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("info", "console")
		boot.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	if cfg.Observability.JaegerEndpoint != "" {
		shutdownTracing, err := observability.InitTracing(cfg.Observability.ServiceName, cfg.App.Version, cfg.Observability.JaegerEndpoint)
		if err != nil {
			zapLog.Warn("tracing disabled", zap.Error(err))
		} else {
			defer shutdownTracing()
		}
	}

	obs := observability.New(cfg.Observability.ServiceName)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	if cfg.Database.Postgres.AutoMigrate {
		if err := database.Migrate(ctx, pg.DB); err != nil {
			zapLog.Fatal("schema migration failed", zap.Error(err))
		}
		zapLog.Info("Schema migrated")
	}

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch with retry (blog search only) ---
	var esClient *database.ElasticsearchClient
	if cfg.Database.Elasticsearch.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		if err := esClient.EnsureIndex(ctx, cfg.Database.Elasticsearch.BlogIndex, blog.IndexMapping); err != nil {
			zapLog.Fatal("blog index setup failed", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: true,
				ConnectionTimeout:      config.GetDuration(cfg.Camunda.Timeout),
				RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
			})
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		defer zeebe.Close()
		zapLog.Info("Zeebe client connected successfully")
	}

	// --- Outbound notification channels (best effort) ---
	var mailer *awsclient.Mailer
	if ses := cfg.Integrations.AWS.SES; ses.Enabled {
		client, err := awsclient.NewSESClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Warn("SES disabled", zap.Error(err))
		} else {
			mailer = awsclient.NewMailer(client, ses.FromEmail)
		}
	}

	var webinarTopic *awsclient.TopicPublisher
	if sns := cfg.Integrations.AWS.SNS; sns.Enabled {
		client, err := awsclient.NewSNSClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Warn("SNS disabled", zap.Error(err))
		} else {
			webinarTopic = awsclient.NewTopicPublisher(client, sns.WebinarTopicARN)
		}
	}

	// --- Domain services ---
	cat, err := catalog.New(cfg.Catalog)
	if err != nil {
		zapLog.Fatal("catalog load failed", zap.Error(err))
	}

	authClient := auth.NewProviderClient(
		cfg.Auth.BaseURL,
		cfg.Auth.ServiceKey,
		config.GetDuration(cfg.Auth.Timeout),
		time.Duration(cfg.Auth.CacheTTL)*time.Second,
		redis.Client,
		log,
	)

	statusHandler := autoapplystatus.NewHandler(autoapplystatus.LoadConfig(), pg.DB, redis.Client, log)

	razorpay := cfg.Payments.Razorpay
	orderHandler := createorder.NewHandler(
		createorder.LoadConfig(),
		pg.DB,
		cat,
		createorder.NewRazorpayClient(razorpay.BaseURL, razorpay.KeyID, razorpay.KeySecret, config.GetDuration(razorpay.Timeout)),
		log,
	)
	if zeebe != nil {
		orderHandler.WithPublisher(zeebe)
	}
	if mailer != nil {
		orderHandler.WithMailer(mailer)
	}

	blogConfig := blog.LoadConfig()
	blogConfig.IndexName = cfg.Database.Elasticsearch.BlogIndex
	var blogSearch blog.SearchIndex
	if esClient != nil {
		blogSearch = blog.NewElasticsearchIndex(esClient.Client, blogConfig.IndexName)
	}
	blogStore := blog.NewStore(blogConfig, pg.DB, redis.Client, blogSearch, log)

	var notifier updates.Notifier
	if webinarTopic != nil {
		notifier = webinarTopic
	}
	webinarService := updates.NewService(updates.LoadConfig(), pg.DB, redis.Client, notifier, log)

	prefConfig := preferences.LoadConfig()
	if cfg.Storage.ResumeBucket != "" {
		prefConfig.ResumeBucket = cfg.Storage.ResumeBucket
	}
	prefService := preferences.NewService(
		prefConfig,
		pg.DB,
		preferences.NewStorageClient(cfg.Storage.BaseURL, cfg.Storage.ServiceKey, config.GetDuration(cfg.Storage.Timeout)),
		log,
	)

	browser := browserproxy.NewClient(browserproxy.ConfigFrom(cfg), log)

	llmConfig := llmgenerate.ConfigFrom(cfg)
	generateHandler := llmgenerate.NewHandler(llmConfig, llmgenerate.NewOpenRouterClient(llmConfig, log), log)

	zapLog.Info("All domain services initialized")

	// --- Register Zeebe workers ---
	var workers []worker.JobWorker
	if zeebe != nil {
		zbClient := zeebe.GetClient()
		register := []struct {
			taskType string
			handler  camunda.HandlerFunc
		}{
			{autoapplystatus.TaskType, statusHandler.Handle},
			{createorder.TaskType, orderHandler.Handle},
			{llmgenerate.TaskType, generateHandler.Handle},
			{blog.TaskType, blog.NewPublishHandler(blogConfig, blogStore, log).Handle},
		}
		for _, w := range register {
			if jw := camunda.StartWorker(zbClient, w.taskType, config.GetWorkerConfig(cfg, w.taskType), w.handler, obs, zapLog); jw != nil {
				workers = append(workers, jw)
			}
		}
		zapLog.Info("Zeebe workers registered", zap.Int("count", len(workers)))
	}

	// --- Scheduler ---
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(cfg.Scheduler, blogStore, log)
		if err := sched.Start(ctx); err != nil {
			zapLog.Fatal("scheduler start failed", zap.Error(err))
		}
	}

	// --- HTTP API ---
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	server := api.NewServer(cfg, api.Services{
		Auth:        authClient,
		Status:      statusHandler,
		Orders:      orderHandler,
		Blog:        blogStore,
		Webinars:    webinarService,
		Preferences: prefService,
		Browser:     browser,
		Generator:   generateHandler,
	}, log).
		WithObservability(obs).
		WithReadinessCheck("postgres", pg.Ping).
		WithReadinessCheck("redis", redis.Ping)
	if esClient != nil {
		server.WithReadinessCheck("elasticsearch", esClient.Ping)
	}
	if zeebe != nil {
		server.WithReadinessCheck("zeebe", zeebe.HealthCheck)
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      server.Router(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	zapLog.Info("Shutdown signal received", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown failed", zap.Error(err))
	}
	if sched != nil {
		sched.Stop(shutdownCtx)
	}
	for _, jw := range workers {
		jw.Close()
		jw.AwaitClose()
	}

	zapLog.Info("Worker manager stopped")
}
