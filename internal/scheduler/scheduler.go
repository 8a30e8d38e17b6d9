// Package scheduler runs the periodic blog jobs: publishing posts whose
// scheduled time has passed and refreshing the search index.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"primoboost-workers/internal/common/config"
	"primoboost-workers/internal/common/logger"

	"github.com/robfig/cron/v3"
)

// BlogJobs is satisfied by *blog.Store.
type BlogJobs interface {
	PublishScheduled(ctx context.Context) (int, error)
	Reindex(ctx context.Context) (int, error)
}

// Scheduler wraps robfig/cron. Overlapping runs of one job are skipped.
type Scheduler struct {
	cron       *cron.Cron
	config     config.SchedulerConfig
	blog       BlogJobs
	logger     logger.Logger
	jobTimeout time.Duration
}

func New(cfg config.SchedulerConfig, blog BlogJobs, log logger.Logger) *Scheduler {
	l := log.WithFields(map[string]interface{}{"component": "scheduler"})
	cl := cronLogger{l}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		config:     cfg,
		blog:       blog,
		logger:     l,
		jobTimeout: 5 * time.Minute,
	}
}

// Start registers the configured jobs and starts the cron loop. An empty
// spec leaves that job unscheduled.
func (s *Scheduler) Start(ctx context.Context) error {
	jobs := []struct {
		name string
		spec string
		run  func(context.Context)
	}{
		{"publish-scheduled-posts", s.config.PublishScheduled, s.publishScheduled},
		{"reindex-blog", s.config.ReindexBlog, s.reindex},
	}

	for _, job := range jobs {
		if job.spec == "" {
			continue
		}
		run := job.run
		if _, err := s.cron.AddFunc(job.spec, func() { run(ctx) }); err != nil {
			return fmt.Errorf("schedule %s (%q): %w", job.name, job.spec, err)
		}
		s.logger.Info("job scheduled", map[string]interface{}{"job": job.name, "spec": job.spec})
	}

	s.cron.Start()
	return nil
}

// Stop halts the loop and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stopped before running jobs finished", nil)
	}
}

func (s *Scheduler) publishScheduled(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()

	n, err := s.blog.PublishScheduled(ctx)
	if err != nil {
		s.logger.Error("publishing scheduled posts failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if n > 0 {
		s.logger.Info("scheduled posts published", map[string]interface{}{"count": n})
	}
}

func (s *Scheduler) reindex(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()

	n, err := s.blog.Reindex(ctx)
	if err != nil {
		s.logger.Error("blog reindex failed", map[string]interface{}{"error": err.Error()})
		return
	}
	s.logger.Info("blog reindexed", map[string]interface{}{"count": n})
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	l logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, pairs(keysAndValues))
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := pairs(keysAndValues)
	fields["error"] = err.Error()
	c.l.Error(msg, fields)
}

func pairs(kv []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(kv)/2+1)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}
