// internal/workers/users/preferences/service.go
package preferences

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	apperrors "primoboost-workers/internal/common/errors"
	"primoboost-workers/internal/common/logger"
	"primoboost-workers/internal/models"

	"github.com/lib/pq"
)

var (
	ErrInvalidField  = errors.New("INVALID_FIELD")
	ErrInvalidValue  = errors.New("INVALID_VALUE")
	ErrNotFound      = errors.New("PREFERENCES_NOT_FOUND")
	ErrInvalidResume = errors.New("INVALID_RESUME")
	ErrForeignResume = errors.New("FOREIGN_RESUME")
	ErrStorageFailed = errors.New("STORAGE_FAILED")
	ErrQueryFailed   = errors.New("PREFERENCES_QUERY_FAILED")
)

const preferenceColumns = `id, user_id, resume_text, resume_url, passout_year, role_type, tech_interests, preferred_modes, skills_extracted, onboarding_completed, last_updated, created_at`

const (
	selectPreferencesQuery = `SELECT ` + preferenceColumns + ` FROM user_job_preferences WHERE user_id = $1`

	upsertPreferencesQuery = `INSERT INTO user_job_preferences (user_id, resume_text, resume_url, passout_year, role_type, tech_interests, preferred_modes, skills_extracted, onboarding_completed, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id) DO UPDATE SET resume_text = EXCLUDED.resume_text, resume_url = EXCLUDED.resume_url, passout_year = EXCLUDED.passout_year, role_type = EXCLUDED.role_type, tech_interests = EXCLUDED.tech_interests, preferred_modes = EXCLUDED.preferred_modes, skills_extracted = EXCLUDED.skills_extracted, onboarding_completed = EXCLUDED.onboarding_completed, last_updated = EXCLUDED.last_updated
		RETURNING ` + preferenceColumns

	deletePreferencesQuery = `DELETE FROM user_job_preferences WHERE user_id = $1`

	selectOnboardingQuery = `SELECT onboarding_completed FROM user_job_preferences WHERE user_id = $1`

	completeOnboardingQuery = `INSERT INTO user_job_preferences (user_id, onboarding_completed, last_updated) VALUES ($1, true, $2)
		ON CONFLICT (user_id) DO UPDATE SET onboarding_completed = true, last_updated = EXCLUDED.last_updated`

	setResumeURLQuery = `INSERT INTO user_job_preferences (user_id, resume_url, last_updated) VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET resume_url = EXCLUDED.resume_url, last_updated = EXCLUDED.last_updated`

	clearResumeURLQuery = `UPDATE user_job_preferences SET resume_url = NULL, last_updated = $1 WHERE user_id = $2 AND resume_url = $3`
)

// Service keeps each user's job preferences and resume file.
type Service struct {
	config  *Config
	db      *sql.DB
	storage ObjectStorage
	logger  logger.Logger
	now     func() time.Time
}

func NewService(config *Config, db *sql.DB, storage ObjectStorage, log logger.Logger) *Service {
	return &Service{
		config:  config,
		db:      db,
		storage: storage,
		logger:  log.WithFields(map[string]interface{}{"service": "preferences"}),
		now:     time.Now,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPreferences(row rowScanner) (*models.UserJobPreferences, error) {
	var (
		p      models.UserJobPreferences
		skills []byte
	)
	err := row.Scan(&p.ID, &p.UserID, &p.ResumeText, &p.ResumeURL, &p.PassoutYear, &p.RoleType,
		pq.Array(&p.TechInterests), pq.Array(&p.PreferredModes), &skills, &p.OnboardingCompleted,
		&p.LastUpdated, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(skills) > 0 {
		p.SkillsExtracted = json.RawMessage(skills)
	}
	return &p, nil
}

// Get returns the user's preferences, or nil when none are saved.
func (s *Service) Get(ctx context.Context, userID string) (*models.UserJobPreferences, error) {
	p, err := scanPreferences(s.db.QueryRowContext(ctx, selectPreferencesQuery, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, toStandardError(fmt.Errorf("%w: %v", ErrQueryFailed, err))
	}
	return p, nil
}

// Save replaces the user's preferences, creating the row on first save.
func (s *Service) Save(ctx context.Context, userID string, in *Input) (*models.UserJobPreferences, error) {
	if result := inputSchema.Validate(in); !result.Valid {
		return nil, apperrors.NewValidationError("Invalid preferences", strings.Join(result.GetErrorMessages(), "; "))
	}

	var skills interface{}
	if len(in.SkillsExtracted) > 0 {
		skills = []byte(in.SkillsExtracted)
	}

	p, err := scanPreferences(s.db.QueryRowContext(ctx, upsertPreferencesQuery,
		userID, in.ResumeText, in.ResumeURL, in.PassoutYear, in.RoleType,
		pq.Array(in.TechInterests), pq.Array(in.PreferredModes), skills, in.OnboardingCompleted, s.now(),
	))
	if err != nil {
		return nil, toStandardError(fmt.Errorf("%w: save: %v", ErrQueryFailed, err))
	}
	s.logger.Info("preferences saved", map[string]interface{}{"userId": userID})
	return p, nil
}

// UpdateField sets one allow-listed field. value is the decoded JSON value.
func (s *Service) UpdateField(ctx context.Context, userID, field string, value interface{}) error {
	schema, ok := fieldSchemas[field]
	if !ok {
		return toStandardError(fmt.Errorf("%w: %s", ErrInvalidField, field))
	}
	if result := schema.Validate(value); !result.Valid {
		return toStandardError(fmt.Errorf("%w: %s", ErrInvalidValue, strings.Join(result.GetErrorMessages(), "; ")))
	}

	arg, err := columnValue(field, value)
	if err != nil {
		return toStandardError(err)
	}

	query := fmt.Sprintf(`UPDATE user_job_preferences SET %s = $1, last_updated = $2 WHERE user_id = $3`, pq.QuoteIdentifier(field))
	res, err := s.db.ExecContext(ctx, query, arg, s.now(), userID)
	if err != nil {
		return toStandardError(fmt.Errorf("%w: update %s: %v", ErrQueryFailed, field, err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return toStandardError(ErrNotFound)
	}
	return nil
}

// columnValue converts a decoded JSON value to its column representation.
func columnValue(field string, value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	switch field {
	case "passout_year":
		// encoding/json decodes numbers as float64
		if f, ok := value.(float64); ok {
			return int64(f), nil
		}
	case "tech_interests", "preferred_modes":
		items, ok := value.([]interface{})
		if !ok {
			break
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			str, _ := item.(string)
			out = append(out, str)
		}
		return pq.Array(out), nil
	case "skills_extracted":
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		return raw, nil
	default:
		return value, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrInvalidValue, field)
}

func (s *Service) Delete(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, deletePreferencesQuery, userID); err != nil {
		return toStandardError(fmt.Errorf("%w: delete: %v", ErrQueryFailed, err))
	}
	s.logger.Info("preferences deleted", map[string]interface{}{"userId": userID})
	return nil
}

// HasCompletedOnboarding is false for users without saved preferences.
func (s *Service) HasCompletedOnboarding(ctx context.Context, userID string) (bool, error) {
	var completed bool
	err := s.db.QueryRowContext(ctx, selectOnboardingQuery, userID).Scan(&completed)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, toStandardError(fmt.Errorf("%w: %v", ErrQueryFailed, err))
	}
	return completed, nil
}

func (s *Service) CompleteOnboarding(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, completeOnboardingQuery, userID, s.now()); err != nil {
		return toStandardError(fmt.Errorf("%w: complete onboarding: %v", ErrQueryFailed, err))
	}
	return nil
}

// UploadResume stores the file at <userId>/<unix-ms>.<ext>, records its
// public URL on the user's preferences and returns it.
func (s *Service) UploadResume(ctx context.Context, userID, filename, contentType string, data []byte) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if !s.allowedExtension(ext) {
		return "", toStandardError(fmt.Errorf("%w: unsupported file type %q", ErrInvalidResume, ext))
	}
	if len(data) == 0 || int64(len(data)) > s.config.MaxResumeBytes {
		return "", toStandardError(fmt.Errorf("%w: size %d bytes", ErrInvalidResume, len(data)))
	}

	objectPath := fmt.Sprintf("%s/%d.%s", userID, s.now().UnixMilli(), ext)
	if err := s.storage.Upload(ctx, s.config.ResumeBucket, objectPath, contentType, data); err != nil {
		return "", toStandardError(fmt.Errorf("%w: %v", ErrStorageFailed, err))
	}
	publicURL := s.storage.PublicURL(s.config.ResumeBucket, objectPath)

	if _, err := s.db.ExecContext(ctx, setResumeURLQuery, userID, publicURL, s.now()); err != nil {
		return "", toStandardError(fmt.Errorf("%w: record resume: %v", ErrQueryFailed, err))
	}

	s.logger.Info("resume uploaded", map[string]interface{}{"userId": userID, "path": objectPath, "bytes": len(data)})
	return publicURL, nil
}

// DeleteResume removes the object behind resumeURL. Users may only remove
// files under their own prefix.
func (s *Service) DeleteResume(ctx context.Context, userID, resumeURL string) error {
	marker := "/" + s.config.ResumeBucket + "/"
	idx := strings.Index(resumeURL, marker)
	if idx < 0 || idx+len(marker) == len(resumeURL) {
		return toStandardError(fmt.Errorf("%w: not a resume url", ErrInvalidResume))
	}
	objectPath := resumeURL[idx+len(marker):]
	if !strings.HasPrefix(objectPath, userID+"/") {
		return toStandardError(ErrForeignResume)
	}

	if err := s.storage.Remove(ctx, s.config.ResumeBucket, []string{objectPath}); err != nil {
		return toStandardError(fmt.Errorf("%w: %v", ErrStorageFailed, err))
	}
	if _, err := s.db.ExecContext(ctx, clearResumeURLQuery, s.now(), userID, resumeURL); err != nil {
		return toStandardError(fmt.Errorf("%w: clear resume: %v", ErrQueryFailed, err))
	}
	return nil
}

func (s *Service) allowedExtension(ext string) bool {
	for _, allowed := range s.config.ResumeExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
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
	case errors.Is(err, ErrInvalidField):
		return apperrors.NewValidationError("Field cannot be updated", err.Error())
	case errors.Is(err, ErrInvalidValue):
		return apperrors.NewValidationError("Invalid value", err.Error())
	case errors.Is(err, ErrInvalidResume):
		return apperrors.NewValidationError("Invalid resume file", err.Error())
	case errors.Is(err, ErrNotFound):
		return apperrors.NewNotFoundError("Preferences not found", "")
	case errors.Is(err, ErrForeignResume):
		return apperrors.NewForbiddenError("Resume belongs to another user")
	case errors.Is(err, ErrStorageFailed):
		return apperrors.NewUpstreamError("storage", err)
	default:
		return apperrors.NewUpstreamError("database", err)
	}
}
