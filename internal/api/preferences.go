package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	apperrors "primoboost-workers/internal/common/errors"
	"primoboost-workers/internal/workers/users/preferences"

	"github.com/gin-gonic/gin"
)

// maxUploadBytes bounds what is read from a multipart file. The resume size
// limit itself is enforced by the preferences service.
const maxUploadBytes = 16 << 20

func (s *Server) getPreferences(c *gin.Context) {
	p, err := s.services.Preferences.Get(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"preferences": p})
}

func (s *Server) savePreferences(c *gin.Context) {
	var in preferences.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		s.abortWithError(c, invalidBody(err))
		return
	}
	p, err := s.services.Preferences.Save(c.Request.Context(), currentUserID(c), &in)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"preferences": p})
}

func (s *Server) deletePreferences(c *gin.Context) {
	if err := s.services.Preferences.Delete(c.Request.Context(), currentUserID(c)); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// updatePreferenceField expects {"value": <json>}; null clears the field.
func (s *Server) updatePreferenceField(c *gin.Context) {
	var body struct {
		Value json.RawMessage `json:"value"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		s.abortWithError(c, invalidBody(err))
		return
	}
	var value interface{}
	if len(body.Value) > 0 {
		if err := json.Unmarshal(body.Value, &value); err != nil {
			s.abortWithError(c, invalidBody(err))
			return
		}
	}

	if err := s.services.Preferences.UpdateField(c.Request.Context(), currentUserID(c), c.Param("field"), value); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) onboardingStatus(c *gin.Context) {
	done, err := s.services.Preferences.HasCompletedOnboarding(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, preferences.OnboardingStatus{Completed: done})
}

func (s *Server) completeOnboarding(c *gin.Context) {
	if err := s.services.Preferences.CompleteOnboarding(c.Request.Context(), currentUserID(c)); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, preferences.OnboardingStatus{Completed: true})
}

// uploadResume takes the multipart field "file".
func (s *Server) uploadResume(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		s.abortWithError(c, apperrors.NewValidationError("Resume file is required", err.Error()))
		return
	}
	f, err := header.Open()
	if err != nil {
		s.abortWithError(c, apperrors.NewValidationError("Resume file is unreadable", err.Error()))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		s.abortWithError(c, apperrors.NewValidationError("Resume file is unreadable", err.Error()))
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	url, err := s.services.Preferences.UploadResume(c.Request.Context(), currentUserID(c), header.Filename, contentType, data)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}

// deleteResume takes the URL from {"resumeUrl"} or the "url" query parameter.
func (s *Server) deleteResume(c *gin.Context) {
	resumeURL := strings.TrimSpace(c.Query("url"))
	if resumeURL == "" {
		var body struct {
			ResumeURL string `json:"resumeUrl"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			s.abortWithError(c, invalidBody(err))
			return
		}
		resumeURL = strings.TrimSpace(body.ResumeURL)
	}
	if resumeURL == "" {
		s.abortWithError(c, apperrors.NewValidationError("Resume URL is required", ""))
		return
	}

	if err := s.services.Preferences.DeleteResume(c.Request.Context(), currentUserID(c), resumeURL); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
