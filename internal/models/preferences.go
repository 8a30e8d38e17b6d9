// internal/models/preferences.go
package models

import (
	"encoding/json"
	"time"
)

const (
	RoleTypeInternship = "internship"
	RoleTypeFulltime   = "fulltime"
	RoleTypeBoth       = "both"
)

type UserJobPreferences struct {
	ID                  string          `json:"id,omitempty"`
	UserID              string          `json:"user_id"`
	ResumeText          *string         `json:"resume_text,omitempty"`
	ResumeURL           *string         `json:"resume_url,omitempty"`
	PassoutYear         *int            `json:"passout_year,omitempty"`
	RoleType            *string         `json:"role_type,omitempty"`
	TechInterests       []string        `json:"tech_interests,omitempty"`
	PreferredModes      []string        `json:"preferred_modes,omitempty"`
	SkillsExtracted     json.RawMessage `json:"skills_extracted,omitempty"`
	OnboardingCompleted bool            `json:"onboarding_completed"`
	LastUpdated         *time.Time      `json:"last_updated,omitempty"`
	CreatedAt           *time.Time      `json:"created_at,omitempty"`
}
