package api

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	apperrors "primoboost-workers/internal/common/errors"
	"primoboost-workers/internal/models"
	"primoboost-workers/internal/workers/users/preferences"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGetPreferences(t *testing.T) {
	prefs := &MockPreferences{}
	role := models.RoleTypeInternship
	prefs.On("Get", mock.Anything, "user-1").Return(&models.UserJobPreferences{UserID: "user-1", RoleType: &role}, nil)
	r := newTestRouter(t, Services{Preferences: prefs})

	w := doRequest(r, http.MethodGet, "/preferences", userToken, nil)

	require.Equal(t, http.StatusOK, w.Code)
	p := decodeBody(t, w)["preferences"].(map[string]interface{})
	assert.Equal(t, "internship", p["role_type"])
}

func TestGetPreferences_NoneSaved(t *testing.T) {
	prefs := &MockPreferences{}
	prefs.On("Get", mock.Anything, "user-1").Return(nil, nil)
	r := newTestRouter(t, Services{Preferences: prefs})

	w := doRequest(r, http.MethodGet, "/preferences", userToken, nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Contains(t, body, "preferences")
	assert.Nil(t, body["preferences"])
}

func TestSavePreferences(t *testing.T) {
	prefs := &MockPreferences{}
	prefs.On("Save", mock.Anything, "user-1", mock.MatchedBy(func(in *preferences.Input) bool {
		return in.PassoutYear != nil && *in.PassoutYear == 2025 && len(in.TechInterests) == 2
	})).Return(&models.UserJobPreferences{UserID: "user-1"}, nil)
	r := newTestRouter(t, Services{Preferences: prefs})

	w := doRequest(r, http.MethodPut, "/preferences", userToken,
		`{"passout_year":2025,"tech_interests":["go","kubernetes"],"onboarding_completed":true}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	prefs.AssertExpectations(t)
}

func TestUpdatePreferenceField(t *testing.T) {
	tests := []struct {
		name      string
		field     string
		body      string
		wantValue interface{}
		err       error
		wantCode  int
	}{
		{"number", "passout_year", `{"value":2026}`, float64(2026), nil, http.StatusOK},
		{"list", "tech_interests", `{"value":["go"]}`, []interface{}{"go"}, nil, http.StatusOK},
		{"null clears", "resume_text", `{"value":null}`, nil, nil, http.StatusOK},
		{"field not allowed", "user_id", `{"value":"x"}`, "x",
			apperrors.NewValidationError("Field cannot be updated", "INVALID_FIELD: user_id"), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefs := &MockPreferences{}
			prefs.On("UpdateField", mock.Anything, "user-1", tt.field, tt.wantValue).Return(tt.err)
			r := newTestRouter(t, Services{Preferences: prefs})

			w := doRequest(r, http.MethodPatch, "/preferences/"+tt.field, userToken, tt.body)

			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			prefs.AssertExpectations(t)
		})
	}
}

func TestOnboarding(t *testing.T) {
	prefs := &MockPreferences{}
	prefs.On("HasCompletedOnboarding", mock.Anything, "user-1").Return(false, nil)
	prefs.On("CompleteOnboarding", mock.Anything, "user-1").Return(nil)
	r := newTestRouter(t, Services{Preferences: prefs})

	w := doRequest(r, http.MethodGet, "/preferences/onboarding", userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeBody(t, w)["completed"])

	w = doRequest(r, http.MethodPost, "/preferences/onboarding", userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["completed"])

	prefs.AssertExpectations(t)
}

func TestDeletePreferences(t *testing.T) {
	prefs := &MockPreferences{}
	prefs.On("Delete", mock.Anything, "user-1").Return(nil)
	r := newTestRouter(t, Services{Preferences: prefs})

	w := doRequest(r, http.MethodDelete, "/preferences", userToken, nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	prefs.AssertExpectations(t)
}

func newResumeUpload(t *testing.T, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/preferences/resume", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+userToken)
	return req
}

func TestUploadResume(t *testing.T) {
	data := []byte("%PDF-1.7 resume")
	prefs := &MockPreferences{}
	prefs.On("UploadResume", mock.Anything, "user-1", "resume.pdf", "application/pdf", data).
		Return("https://project.supabase.co/storage/v1/object/public/user-resumes/user-1/1767225600000.pdf", nil)
	r := newTestRouter(t, Services{Preferences: prefs})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, newResumeUpload(t, "resume.pdf", "application/pdf", data))

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "https://project.supabase.co/storage/v1/object/public/user-resumes/user-1/1767225600000.pdf",
		decodeBody(t, w)["url"])
	prefs.AssertExpectations(t)
}

func TestUploadResume_MissingFile(t *testing.T) {
	prefs := &MockPreferences{}
	r := newTestRouter(t, Services{Preferences: prefs})

	w := doRequest(r, http.MethodPost, "/preferences/resume", userToken, `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Resume file is required", decodeBody(t, w)["error"])
	prefs.AssertNotCalled(t, "UploadResume")
}

func TestDeleteResume(t *testing.T) {
	own := "https://project.supabase.co/storage/v1/object/public/user-resumes/user-1/1.pdf"
	foreign := "https://project.supabase.co/storage/v1/object/public/user-resumes/user-2/1.pdf"

	prefs := &MockPreferences{}
	prefs.On("DeleteResume", mock.Anything, "user-1", own).Return(nil)
	prefs.On("DeleteResume", mock.Anything, "user-1", foreign).Return(apperrors.NewForbiddenError("Resume belongs to another user"))
	r := newTestRouter(t, Services{Preferences: prefs})

	w := doRequest(r, http.MethodDelete, "/preferences/resume", userToken, map[string]string{"resumeUrl": own})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(r, http.MethodDelete, "/preferences/resume?url="+foreign, userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(r, http.MethodDelete, "/preferences/resume", userToken, `{"resumeUrl":"  "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	prefs.AssertExpectations(t)
}
