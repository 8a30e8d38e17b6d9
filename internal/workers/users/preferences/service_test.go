// internal/workers/users/preferences/service_test.go
package preferences

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	apperrors "primoboost-workers/internal/common/errors"
	"primoboost-workers/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

const userID = "0b6f4a0e-5e4b-4c1e-9b7a-1f2e3d4c5b6a"

type uploadCall struct {
	bucket, path, contentType string
	size                      int
}

type fakeStorage struct {
	uploads []uploadCall
	removed []string
	err     error
}

func (f *fakeStorage) Upload(ctx context.Context, bucket, path, contentType string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.uploads = append(f.uploads, uploadCall{bucket, path, contentType, len(data)})
	return nil
}

func (f *fakeStorage) PublicURL(bucket, path string) string {
	return fmt.Sprintf("https://files.example.com/storage/v1/object/public/%s/%s", bucket, path)
}

func (f *fakeStorage) Remove(ctx context.Context, bucket string, paths []string) error {
	if f.err != nil {
		return f.err
	}
	f.removed = append(f.removed, paths...)
	return nil
}

func createTestService(t *testing.T, db *sql.DB, storage ObjectStorage) *Service {
	s := NewService(LoadConfig(), db, storage, logger.NewTestLogger(t))
	s.now = func() time.Time { return fixedNow }
	return s
}

func requireCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	var stdErr *apperrors.StandardError
	require.True(t, errors.As(err, &stdErr), "expected StandardError, got %v", err)
	assert.Equal(t, code, stdErr.Code)
}

var preferenceColumnNames = []string{"id", "user_id", "resume_text", "resume_url", "passout_year", "role_type",
	"tech_interests", "preferred_modes", "skills_extracted", "onboarding_completed", "last_updated", "created_at"}

func preferenceRow() *sqlmock.Rows {
	return sqlmock.NewRows(preferenceColumnNames).
		AddRow("pref-1", userID, nil, nil, int64(2026), "fulltime", "{go,rust}", nil, []byte(`{"go":3}`),
			false, fixedNow, fixedNow)
}

func TestService_Get(t *testing.T) {
	t.Run("saved preferences", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta(selectPreferencesQuery)).WithArgs(userID).WillReturnRows(preferenceRow())

		p, err := createTestService(t, db, nil).Get(context.Background(), userID)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, 2026, *p.PassoutYear)
		assert.Equal(t, "fulltime", *p.RoleType)
		assert.Equal(t, []string{"go", "rust"}, p.TechInterests)
		assert.Nil(t, p.PreferredModes)
		assert.JSONEq(t, `{"go":3}`, string(p.SkillsExtracted))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nothing saved yet", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta(selectPreferencesQuery)).WithArgs(userID).WillReturnError(sql.ErrNoRows)

		p, err := createTestService(t, db, nil).Get(context.Background(), userID)
		require.NoError(t, err)
		assert.Nil(t, p)
	})
}

func TestService_Save(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	year := 2026
	role := "fulltime"
	mock.ExpectQuery(regexp.QuoteMeta(upsertPreferencesQuery)).
		WithArgs(userID, nil, nil, 2026, "fulltime", pq.Array([]string{"go", "rust"}), nil,
			[]byte(`{"go":3}`), false, fixedNow).
		WillReturnRows(preferenceRow())

	p, err := createTestService(t, db, nil).Save(context.Background(), userID, &Input{
		PassoutYear:     &year,
		RoleType:        &role,
		TechInterests:   []string{"go", "rust"},
		SkillsExtracted: json.RawMessage(`{"go":3}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "pref-1", p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Save_Validation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	role := "contract"
	_, err = createTestService(t, db, nil).Save(context.Background(), userID, &Input{RoleType: &role})
	requireCode(t, err, apperrors.ErrCodeValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_UpdateField(t *testing.T) {
	t.Run("number becomes an integer column", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(regexp.QuoteMeta(`UPDATE user_job_preferences SET "passout_year" = $1, last_updated = $2 WHERE user_id = $3`)).
			WithArgs(int64(2027), fixedNow, userID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		var value interface{}
		require.NoError(t, json.Unmarshal([]byte(`2027`), &value))
		require.NoError(t, createTestService(t, db, nil).UpdateField(context.Background(), userID, "passout_year", value))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("list becomes a text array", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(regexp.QuoteMeta(`SET "preferred_modes" = $1`)).
			WithArgs(pq.Array([]string{"remote", "hybrid"}), fixedNow, userID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		var value interface{}
		require.NoError(t, json.Unmarshal([]byte(`["remote","hybrid"]`), &value))
		require.NoError(t, createTestService(t, db, nil).UpdateField(context.Background(), userID, "preferred_modes", value))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no row to update", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE user_job_preferences SET "onboarding_completed"`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err = createTestService(t, db, nil).UpdateField(context.Background(), userID, "onboarding_completed", true)
		requireCode(t, err, apperrors.ErrCodeNotFound)
	})

	tests := []struct {
		name  string
		field string
		value interface{}
	}{
		{"field not allow-listed", "user_id", "someone-else"},
		{"created_at is read-only", "created_at", "2020-01-01"},
		{"role outside enum", "role_type", "manager"},
		{"year out of range", "passout_year", float64(1800)},
		{"list of numbers", "tech_interests", []interface{}{float64(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			err = createTestService(t, db, nil).UpdateField(context.Background(), userID, tt.field, tt.value)
			requireCode(t, err, apperrors.ErrCodeValidation)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestService_Onboarding(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(selectOnboardingQuery)).WithArgs(userID).WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta(completeOnboardingQuery)).
		WithArgs(userID, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(selectOnboardingQuery)).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"onboarding_completed"}).AddRow(true))

	s := createTestService(t, db, nil)
	done, err := s.HasCompletedOnboarding(context.Background(), userID)
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, s.CompleteOnboarding(context.Background(), userID))

	done, err = s.HasCompletedOnboarding(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, done)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(deletePreferencesQuery)).WithArgs(userID).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, createTestService(t, db, nil).Delete(context.Background(), userID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_UploadResume(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	wantPath := fmt.Sprintf("%s/%d.pdf", userID, fixedNow.UnixMilli())
	wantURL := "https://files.example.com/storage/v1/object/public/user-resumes/" + wantPath
	mock.ExpectExec(regexp.QuoteMeta(setResumeURLQuery)).
		WithArgs(userID, wantURL, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	storage := &fakeStorage{}
	got, err := createTestService(t, db, storage).
		UploadResume(context.Background(), userID, "My Resume.PDF", "application/pdf", []byte("%PDF-1.7"))

	require.NoError(t, err)
	assert.Equal(t, wantURL, got)
	require.Len(t, storage.uploads, 1)
	assert.Equal(t, uploadCall{"user-resumes", wantPath, "application/pdf", 8}, storage.uploads[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_UploadResume_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
	}{
		{"executable", "resume.exe", []byte("MZ")},
		{"no extension", "resume", []byte("x")},
		{"empty file", "resume.pdf", nil},
		{"too large", "resume.pdf", make([]byte, 5<<20+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := &fakeStorage{}
			_, err := createTestService(t, nil, storage).
				UploadResume(context.Background(), userID, tt.filename, "", tt.data)
			requireCode(t, err, apperrors.ErrCodeValidation)
			assert.Empty(t, storage.uploads)
		})
	}
}

func TestService_UploadResume_StorageFailure(t *testing.T) {
	_, err := createTestService(t, nil, &fakeStorage{err: errors.New("bucket not found")}).
		UploadResume(context.Background(), userID, "cv.pdf", "application/pdf", []byte("x"))
	requireCode(t, err, apperrors.ErrCodeUpstream)
}

func TestService_DeleteResume(t *testing.T) {
	resumeURL := "https://files.example.com/storage/v1/object/public/user-resumes/" + userID + "/1767225600000.pdf"

	t.Run("own file", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(regexp.QuoteMeta(clearResumeURLQuery)).
			WithArgs(fixedNow, userID, resumeURL).
			WillReturnResult(sqlmock.NewResult(0, 1))

		storage := &fakeStorage{}
		require.NoError(t, createTestService(t, db, storage).DeleteResume(context.Background(), userID, resumeURL))
		assert.Equal(t, []string{userID + "/1767225600000.pdf"}, storage.removed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("someone else's file", func(t *testing.T) {
		storage := &fakeStorage{}
		err := createTestService(t, nil, storage).DeleteResume(context.Background(), "other-user", resumeURL)
		requireCode(t, err, apperrors.ErrCodeForbidden)
		assert.Empty(t, storage.removed)
	})

	t.Run("not a resume url", func(t *testing.T) {
		err := createTestService(t, nil, &fakeStorage{}).
			DeleteResume(context.Background(), userID, "https://files.example.com/avatars/x.png")
		requireCode(t, err, apperrors.ErrCodeValidation)
	})
}
