// internal/workers/webinars/updates/service_test.go
package updates

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	apperrors "primoboost-workers/internal/common/errors"
	"primoboost-workers/internal/common/logger"
	"primoboost-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 5, 10, 9, 30, 0, 0, time.UTC)

const (
	webinarID = "6f1d7c38-2a8e-4a3b-9d55-0c1f4c7f0a11"
	userID    = "b3c2a1d0-1111-4222-8333-944455556666"
)

type fakeNotifier struct {
	events []PublishedEvent
	err    error
}

func (f *fakeNotifier) PublishJSON(ctx context.Context, eventType, subject string, payload interface{}) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.events = append(f.events, payload.(PublishedEvent))
	return "msg-1", nil
}

func createTestService(t *testing.T, db *sql.DB, rdb *redis.Client, n Notifier) *Service {
	s := NewService(LoadConfig(), db, rdb, n, logger.NewTestLogger(t))
	s.now = func() time.Time { return fixedNow }
	s.newID = func() string { return "upd-new" }
	return s
}

var updateColumnNames = []string{"id", "webinar_id", "update_type", "title", "description", "link_url",
	"attachment_url", "is_published", "publish_at", "created_by", "created_at", "updated_at"}

func updateRow(id string, published bool) []driver.Value {
	return []driver.Value{id, webinarID, models.WebinarUpdateMeetLink, "Join link", nil, "https://meet.example.com/x",
		nil, published, nil, nil, fixedNow, fixedNow}
}

func requireCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	var stdErr *apperrors.StandardError
	require.True(t, errors.As(err, &stdErr), "expected StandardError, got %v", err)
	assert.Equal(t, code, stdErr.Code)
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool     { return &b }

func TestService_List(t *testing.T) {
	t.Run("anonymous", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta(selectVisibleQuery)).
			WithArgs(webinarID, fixedNow).
			WillReturnRows(sqlmock.NewRows(updateColumnNames).AddRow(updateRow("upd-1", true)...))

		updates, err := createTestService(t, db, nil, nil).List(context.Background(), webinarID, "")
		require.NoError(t, err)
		require.Len(t, updates, 1)
		assert.Nil(t, updates[0].IsViewed)
		assert.Equal(t, "https://meet.example.com/x", *updates[0].LinkURL)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("with view status", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		cols := append(append([]string{}, updateColumnNames...), "is_viewed")
		mock.ExpectQuery(regexp.QuoteMeta(selectVisibleForUserQuery)).
			WithArgs(webinarID, fixedNow, userID).
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow(append(updateRow("upd-2", true), true)...).
				AddRow(append(updateRow("upd-1", true), false)...))

		updates, err := createTestService(t, db, nil, nil).List(context.Background(), webinarID, userID)
		require.NoError(t, err)
		require.Len(t, updates, 2)
		assert.True(t, *updates[0].IsViewed)
		assert.False(t, *updates[1].IsViewed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestService_UnreadCount(t *testing.T) {
	key := unreadCacheKey(webinarID, userID)

	t.Run("miss queries and caches", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		rdb, rmock := redismock.NewClientMock()

		rmock.ExpectGet(key).RedisNil()
		mock.ExpectQuery(regexp.QuoteMeta(unreadCountQuery)).
			WithArgs(webinarID, fixedNow, userID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
		rmock.ExpectSet(key, []byte("3"), 30*time.Second).SetVal("OK")

		n := createTestService(t, db, rdb, nil).UnreadCount(context.Background(), webinarID, userID)
		assert.Equal(t, 3, n)
		assert.NoError(t, mock.ExpectationsWereMet())
		assert.NoError(t, rmock.ExpectationsWereMet())
	})

	t.Run("hit skips the database", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		rdb, rmock := redismock.NewClientMock()

		rmock.ExpectGet(key).SetVal("5")

		assert.Equal(t, 5, createTestService(t, db, rdb, nil).UnreadCount(context.Background(), webinarID, userID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query failure reads as zero", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta(unreadCountQuery)).WillReturnError(errors.New("connection reset"))

		assert.Equal(t, 0, createTestService(t, db, nil, nil).UnreadCount(context.Background(), webinarID, userID))
	})
}

func TestService_MarkViewed(t *testing.T) {
	t.Run("upserts and clears the badge", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		rdb, rmock := redismock.NewClientMock()

		mock.ExpectQuery(regexp.QuoteMeta(selectWebinarIDQuery)).
			WithArgs("upd-1").
			WillReturnRows(sqlmock.NewRows([]string{"webinar_id"}).AddRow(webinarID))
		mock.ExpectExec(regexp.QuoteMeta(upsertViewQuery)).
			WithArgs("upd-1", userID, fixedNow).
			WillReturnResult(sqlmock.NewResult(0, 1))
		rmock.ExpectDel(unreadCacheKey(webinarID, userID)).SetVal(1)

		require.NoError(t, createTestService(t, db, rdb, nil).MarkViewed(context.Background(), "upd-1", userID))
		assert.NoError(t, mock.ExpectationsWereMet())
		assert.NoError(t, rmock.ExpectationsWereMet())
	})

	t.Run("unknown update", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta(selectWebinarIDQuery)).WithArgs("nope").WillReturnError(sql.ErrNoRows)

		err = createTestService(t, db, nil, nil).MarkViewed(context.Background(), "nope", userID)
		requireCode(t, err, apperrors.ErrCodeNotFound)
	})
}

func TestService_MarkAllViewed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(markAllViewedQuery)).
		WithArgs(webinarID, fixedNow, userID, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := createTestService(t, db, nil, nil).MarkAllViewed(context.Background(), webinarID, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Create(t *testing.T) {
	t.Run("published update is announced", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta(insertUpdateQuery)).
			WithArgs("upd-new", webinarID, "meet_link", "Join link", nil, "https://meet.example.com/x",
				nil, true, nil, "admin-1", fixedNow).
			WillReturnRows(sqlmock.NewRows(updateColumnNames).AddRow(updateRow("upd-new", true)...))

		n := &fakeNotifier{}
		u, err := createTestService(t, db, nil, n).Create(context.Background(), &models.WebinarUpdateInput{
			WebinarID:   strPtr(webinarID),
			UpdateType:  strPtr("meet_link"),
			Title:       strPtr("  Join link "),
			LinkURL:     strPtr("https://meet.example.com/x"),
			IsPublished: boolPtr(true),
		}, "admin-1")

		require.NoError(t, err)
		assert.Equal(t, "upd-new", u.ID)
		require.Len(t, n.events, 1)
		assert.Equal(t, webinarID, n.events[0].WebinarID)
		assert.Equal(t, fixedNow, n.events[0].PublishedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("notification failure does not fail the create", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta(insertUpdateQuery)).
			WillReturnRows(sqlmock.NewRows(updateColumnNames).AddRow(updateRow("upd-new", true)...))

		_, err = createTestService(t, db, nil, &fakeNotifier{err: errors.New("throttled")}).
			Create(context.Background(), &models.WebinarUpdateInput{
				WebinarID: strPtr(webinarID), UpdateType: strPtr("reminder"), Title: strPtr("Tomorrow"),
				IsPublished: boolPtr(true),
			}, "")
		require.NoError(t, err)
	})

	t.Run("draft is not announced", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta(insertUpdateQuery)).
			WillReturnRows(sqlmock.NewRows(updateColumnNames).AddRow(updateRow("upd-new", false)...))

		n := &fakeNotifier{}
		_, err = createTestService(t, db, nil, n).Create(context.Background(), &models.WebinarUpdateInput{
			WebinarID: strPtr(webinarID), UpdateType: strPtr("material"), Title: strPtr("Slides"),
		}, "")
		require.NoError(t, err)
		assert.Empty(t, n.events)
	})

	tests := []struct {
		name  string
		input *models.WebinarUpdateInput
	}{
		{"missing title", &models.WebinarUpdateInput{WebinarID: strPtr(webinarID), UpdateType: strPtr("reminder")}},
		{"unknown type", &models.WebinarUpdateInput{WebinarID: strPtr(webinarID), UpdateType: strPtr("poll"), Title: strPtr("x")}},
		{"bad link", &models.WebinarUpdateInput{WebinarID: strPtr(webinarID), UpdateType: strPtr("meet_link"), Title: strPtr("x"), LinkURL: strPtr("meet.example.com")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			_, err = createTestService(t, db, nil, nil).Create(context.Background(), tt.input, "")
			requireCode(t, err, apperrors.ErrCodeValidation)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestService_Update(t *testing.T) {
	cols := append(append([]string{}, updateColumnNames...), "is_published")

	t.Run("publishing a draft announces it", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`UPDATE webinar_updates u SET title = \$1, is_published = \$2, updated_at = \$3 FROM \(SELECT id, is_published FROM webinar_updates WHERE id = \$4 FOR UPDATE\) prev`).
			WithArgs("Join link", true, fixedNow, "upd-1").
			WillReturnRows(sqlmock.NewRows(cols).AddRow(append(updateRow("upd-1", true), false)...))

		n := &fakeNotifier{}
		u, err := createTestService(t, db, nil, n).Update(context.Background(), "upd-1", &models.WebinarUpdateInput{
			Title: strPtr("Join link"), IsPublished: boolPtr(true),
		})
		require.NoError(t, err)
		assert.True(t, u.IsPublished)
		assert.Len(t, n.events, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("editing a live update stays quiet", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`UPDATE webinar_updates u SET description = \$1, updated_at = \$2`).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(append(updateRow("upd-1", true), true)...))

		n := &fakeNotifier{}
		_, err = createTestService(t, db, nil, n).Update(context.Background(), "upd-1", &models.WebinarUpdateInput{
			Description: strPtr("Room changed"),
		})
		require.NoError(t, err)
		assert.Empty(t, n.events)
	})

	t.Run("unknown update", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`UPDATE webinar_updates u SET`).WillReturnError(sql.ErrNoRows)

		_, err = createTestService(t, db, nil, nil).Update(context.Background(), "nope", &models.WebinarUpdateInput{})
		requireCode(t, err, apperrors.ErrCodeNotFound)
	})
}

func TestService_DeleteAndListAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(deleteUpdateQuery)).WithArgs("upd-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(selectAllQuery)).
		WithArgs(webinarID).
		WillReturnRows(sqlmock.NewRows(updateColumnNames).
			AddRow(updateRow("upd-2", false)...).
			AddRow(updateRow("upd-1", true)...))

	s := createTestService(t, db, nil, nil)
	requireCode(t, s.Delete(context.Background(), "upd-1"), apperrors.ErrCodeNotFound)

	all, err := s.ListAll(context.Background(), webinarID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.False(t, all[0].IsPublished)
	assert.NoError(t, mock.ExpectationsWereMet())
}
