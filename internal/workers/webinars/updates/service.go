// internal/workers/webinars/updates/service.go
package updates

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"primoboost-workers/internal/common/database"
	apperrors "primoboost-workers/internal/common/errors"
	"primoboost-workers/internal/common/logger"
	"primoboost-workers/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrUpdateNotFound = errors.New("UPDATE_NOT_FOUND")
	ErrQueryFailed    = errors.New("WEBINAR_QUERY_FAILED")
)

const updateColumns = `u.id, u.webinar_id, u.update_type, u.title, u.description, u.link_url, u.attachment_url, u.is_published, u.publish_at, u.created_by, u.created_at, u.updated_at`

const (
	visibleClause = `u.webinar_id = $1 AND u.is_published = true AND (u.publish_at IS NULL OR u.publish_at <= $2)`

	selectVisibleQuery = `SELECT ` + updateColumns + ` FROM webinar_updates u WHERE ` + visibleClause + ` ORDER BY u.created_at DESC`

	selectVisibleForUserQuery = `SELECT ` + updateColumns + `, (v.update_id IS NOT NULL) AS is_viewed FROM webinar_updates u LEFT JOIN webinar_update_views v ON v.update_id = u.id AND v.user_id = $3 WHERE ` + visibleClause + ` ORDER BY u.created_at DESC`

	unreadCountQuery = `SELECT COUNT(*) FROM webinar_updates u WHERE ` + visibleClause + ` AND NOT EXISTS (SELECT 1 FROM webinar_update_views v WHERE v.update_id = u.id AND v.user_id = $3)`

	selectWebinarIDQuery = `SELECT webinar_id FROM webinar_updates WHERE id = $1`

	upsertViewQuery = `INSERT INTO webinar_update_views (update_id, user_id, viewed_at) VALUES ($1, $2, $3) ON CONFLICT (update_id, user_id) DO UPDATE SET viewed_at = EXCLUDED.viewed_at`

	markAllViewedQuery = `INSERT INTO webinar_update_views (update_id, user_id, viewed_at) SELECT u.id, $3, $4 FROM webinar_updates u WHERE u.webinar_id = $1 AND u.is_published = true AND (u.publish_at IS NULL OR u.publish_at <= $2) ON CONFLICT (update_id, user_id) DO NOTHING`

	insertUpdateQuery = `INSERT INTO webinar_updates AS u (id, webinar_id, update_type, title, description, link_url, attachment_url, is_published, publish_at, created_by, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11) RETURNING ` + updateColumns

	deleteUpdateQuery = `DELETE FROM webinar_updates WHERE id = $1`

	selectAllQuery = `SELECT ` + updateColumns + ` FROM webinar_updates u WHERE u.webinar_id = $1 ORDER BY u.created_at DESC`
)

func unreadCacheKey(webinarID, userID string) string {
	return fmt.Sprintf("webinar:unread:%s:%s", webinarID, userID)
}

// Notifier is satisfied by *aws.TopicPublisher.
type Notifier interface {
	PublishJSON(ctx context.Context, eventType, subject string, payload interface{}) (string, error)
}

// Service owns webinar updates and per-user read receipts.
type Service struct {
	config   *Config
	db       *sql.DB
	redis    *redis.Client
	notifier Notifier
	logger   logger.Logger
	now      func() time.Time
	newID    func() string
}

func NewService(config *Config, db *sql.DB, redis *redis.Client, notifier Notifier, log logger.Logger) *Service {
	return &Service{
		config:   config,
		db:       db,
		redis:    redis,
		notifier: notifier,
		logger:   log.WithFields(map[string]interface{}{"service": "webinar-updates"}),
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUpdate(row rowScanner, extra ...interface{}) (models.WebinarUpdate, error) {
	var u models.WebinarUpdate
	dest := []interface{}{&u.ID, &u.WebinarID, &u.UpdateType, &u.Title, &u.Description, &u.LinkURL,
		&u.AttachmentURL, &u.IsPublished, &u.PublishAt, &u.CreatedBy, &u.CreatedAt, &u.UpdatedAt}
	err := row.Scan(append(dest, extra...)...)
	return u, err
}

// List returns the visible updates of a webinar, newest first. With a
// userID each update carries is_viewed.
func (s *Service) List(ctx context.Context, webinarID, userID string) ([]models.WebinarUpdate, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if userID == "" {
		rows, err = s.db.QueryContext(ctx, selectVisibleQuery, webinarID, s.now())
	} else {
		rows, err = s.db.QueryContext(ctx, selectVisibleForUserQuery, webinarID, s.now(), userID)
	}
	if err != nil {
		return nil, toStandardError(fmt.Errorf("%w: %v", ErrQueryFailed, err))
	}
	defer rows.Close()

	updates := []models.WebinarUpdate{}
	for rows.Next() {
		var (
			u      models.WebinarUpdate
			viewed bool
		)
		if userID == "" {
			u, err = scanUpdate(rows)
		} else {
			u, err = scanUpdate(rows, &viewed)
			u.IsViewed = &viewed
		}
		if err != nil {
			return nil, toStandardError(fmt.Errorf("%w: %v", ErrQueryFailed, err))
		}
		updates = append(updates, u)
	}
	if err := rows.Err(); err != nil {
		return nil, toStandardError(fmt.Errorf("%w: %v", ErrQueryFailed, err))
	}
	return updates, nil
}

// UnreadCount counts visible updates the user has not opened. Failures are
// logged and read as zero so a badge never breaks the page.
func (s *Service) UnreadCount(ctx context.Context, webinarID, userID string) int {
	key := unreadCacheKey(webinarID, userID)
	if s.redis != nil {
		var cached int
		found, err := database.GetJSON(ctx, s.redis, key, &cached)
		if err == nil && found {
			return cached
		}
	}

	var count int
	if err := s.db.QueryRowContext(ctx, unreadCountQuery, webinarID, s.now(), userID).Scan(&count); err != nil {
		s.logger.Warn("unread count failed", map[string]interface{}{
			"webinarId": webinarID,
			"userId":    userID,
			"error":     err.Error(),
		})
		return 0
	}

	if s.redis != nil && s.config.UnreadCacheTTL > 0 {
		if err := database.SetJSON(ctx, s.redis, key, count, s.config.UnreadCacheTTL); err != nil {
			s.logger.Debug("unread count not cached", map[string]interface{}{"error": err.Error()})
		}
	}
	return count
}

// MarkViewed records that userID opened the update. Repeat views refresh
// viewed_at.
func (s *Service) MarkViewed(ctx context.Context, updateID, userID string) error {
	var webinarID string
	err := s.db.QueryRowContext(ctx, selectWebinarIDQuery, updateID).Scan(&webinarID)
	if errors.Is(err, sql.ErrNoRows) {
		return toStandardError(ErrUpdateNotFound)
	}
	if err != nil {
		return toStandardError(fmt.Errorf("%w: %v", ErrQueryFailed, err))
	}

	if _, err := s.db.ExecContext(ctx, upsertViewQuery, updateID, userID, s.now()); err != nil {
		return toStandardError(fmt.Errorf("%w: mark viewed: %v", ErrQueryFailed, err))
	}
	s.invalidateUnread(ctx, webinarID, userID)
	return nil
}

// MarkAllViewed marks every visible update of the webinar as read and
// returns how many receipts were added.
func (s *Service) MarkAllViewed(ctx context.Context, webinarID, userID string) (int64, error) {
	now := s.now()
	res, err := s.db.ExecContext(ctx, markAllViewedQuery, webinarID, now, userID, now)
	if err != nil {
		return 0, toStandardError(fmt.Errorf("%w: mark all viewed: %v", ErrQueryFailed, err))
	}
	s.invalidateUnread(ctx, webinarID, userID)
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *Service) invalidateUnread(ctx context.Context, webinarID, userID string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, unreadCacheKey(webinarID, userID)).Err(); err != nil {
		s.logger.Warn("unread cache not invalidated", map[string]interface{}{"error": err.Error()})
	}
}

// Create adds an update. Published updates are announced on SNS.
func (s *Service) Create(ctx context.Context, in *models.WebinarUpdateInput, createdBy string) (*models.WebinarUpdate, error) {
	if result := createSchema.Validate(in); !result.Valid {
		return nil, apperrors.NewValidationError("Invalid webinar update", strings.Join(result.GetErrorMessages(), "; "))
	}

	published := in.IsPublished != nil && *in.IsPublished
	var author interface{}
	if createdBy != "" {
		author = createdBy
	}

	u, err := scanUpdate(s.db.QueryRowContext(ctx, insertUpdateQuery,
		s.newID(), *in.WebinarID, *in.UpdateType, strings.TrimSpace(*in.Title), in.Description, in.LinkURL,
		in.AttachmentURL, published, in.PublishAt, author, s.now(),
	))
	if err != nil {
		return nil, toStandardError(fmt.Errorf("%w: insert update: %v", ErrQueryFailed, err))
	}

	s.logger.Info("webinar update created", map[string]interface{}{
		"updateId":  u.ID,
		"webinarId": u.WebinarID,
		"type":      u.UpdateType,
		"published": u.IsPublished,
	})
	if u.IsPublished {
		s.notify(ctx, &u)
	}
	return &u, nil
}

// Update applies the non-nil fields of in. Flipping is_published from false
// to true announces the update.
func (s *Service) Update(ctx context.Context, id string, in *models.WebinarUpdateInput) (*models.WebinarUpdate, error) {
	if result := updateSchema.Validate(in); !result.Valid {
		return nil, apperrors.NewValidationError("Invalid webinar update", strings.Join(result.GetErrorMessages(), "; "))
	}

	var sets []string
	var args []interface{}
	set := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if in.WebinarID != nil {
		set("webinar_id", *in.WebinarID)
	}
	if in.UpdateType != nil {
		set("update_type", *in.UpdateType)
	}
	if in.Title != nil {
		set("title", strings.TrimSpace(*in.Title))
	}
	if in.Description != nil {
		set("description", *in.Description)
	}
	if in.LinkURL != nil {
		set("link_url", *in.LinkURL)
	}
	if in.AttachmentURL != nil {
		set("attachment_url", *in.AttachmentURL)
	}
	if in.IsPublished != nil {
		set("is_published", *in.IsPublished)
	}
	if in.PublishAt != nil {
		set("publish_at", *in.PublishAt)
	}
	set("updated_at", s.now())
	args = append(args, id)

	// prev is read under the row lock so two admins cannot both announce
	query := fmt.Sprintf(`UPDATE webinar_updates u SET %s FROM (SELECT id, is_published FROM webinar_updates WHERE id = $%d FOR UPDATE) prev WHERE u.id = prev.id RETURNING %s, prev.is_published`,
		strings.Join(sets, ", "), len(args), updateColumns)

	var wasPublished bool
	u, err := scanUpdate(s.db.QueryRowContext(ctx, query, args...), &wasPublished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, toStandardError(ErrUpdateNotFound)
	}
	if err != nil {
		return nil, toStandardError(fmt.Errorf("%w: update: %v", ErrQueryFailed, err))
	}

	if u.IsPublished && !wasPublished {
		s.notify(ctx, &u)
	}
	return &u, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, deleteUpdateQuery, id)
	if err != nil {
		return toStandardError(fmt.Errorf("%w: delete: %v", ErrQueryFailed, err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return toStandardError(ErrUpdateNotFound)
	}
	s.logger.Info("webinar update deleted", map[string]interface{}{"updateId": id})
	return nil
}

// ListAll returns every update of a webinar, drafts included.
func (s *Service) ListAll(ctx context.Context, webinarID string) ([]models.WebinarUpdate, error) {
	rows, err := s.db.QueryContext(ctx, selectAllQuery, webinarID)
	if err != nil {
		return nil, toStandardError(fmt.Errorf("%w: %v", ErrQueryFailed, err))
	}
	defer rows.Close()

	updates := []models.WebinarUpdate{}
	for rows.Next() {
		u, err := scanUpdate(rows)
		if err != nil {
			return nil, toStandardError(fmt.Errorf("%w: %v", ErrQueryFailed, err))
		}
		updates = append(updates, u)
	}
	if err := rows.Err(); err != nil {
		return nil, toStandardError(fmt.Errorf("%w: %v", ErrQueryFailed, err))
	}
	return updates, nil
}

// notify is best-effort: the update is already stored.
func (s *Service) notify(ctx context.Context, u *models.WebinarUpdate) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.NotifyTimeout)
	defer cancel()

	event := PublishedEvent{
		UpdateID:    u.ID,
		WebinarID:   u.WebinarID,
		UpdateType:  u.UpdateType,
		Title:       u.Title,
		LinkURL:     u.LinkURL,
		PublishAt:   u.PublishAt,
		PublishedAt: s.now(),
	}
	messageID, err := s.notifier.PublishJSON(ctx, EventUpdatePublished, "Webinar update: "+u.Title, event)
	if err != nil {
		s.logger.Warn("webinar update notification failed", map[string]interface{}{
			"updateId": u.ID,
			"error":    err.Error(),
		})
		return
	}
	s.logger.Debug("webinar update announced", map[string]interface{}{"updateId": u.ID, "messageId": messageID})
}

func toStandardError(err error) error {
	if err == nil {
		return nil
	}
	var stdErr *apperrors.StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	switch {
	case errors.Is(err, ErrUpdateNotFound):
		return apperrors.NewNotFoundError("Webinar update not found", "")
	default:
		return apperrors.NewUpstreamError("database", err)
	}
}
