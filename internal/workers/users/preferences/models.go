// internal/workers/users/preferences/models.go
package preferences

import (
	"encoding/json"

	"primoboost-workers/internal/common/validation"
)

// Input is the body of a full save. Absent fields are stored as null.
type Input struct {
	ResumeText          *string         `json:"resume_text,omitempty"`
	ResumeURL           *string         `json:"resume_url,omitempty"`
	PassoutYear         *int            `json:"passout_year,omitempty"`
	RoleType            *string         `json:"role_type,omitempty"`
	TechInterests       []string        `json:"tech_interests,omitempty"`
	PreferredModes      []string        `json:"preferred_modes,omitempty"`
	SkillsExtracted     json.RawMessage `json:"skills_extracted,omitempty"`
	OnboardingCompleted bool            `json:"onboarding_completed"`
}

// OnboardingStatus answers the onboarding check.
type OnboardingStatus struct {
	Completed bool `json:"completed"`
}

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"properties": {
		"resume_text":     {"type": "string", "maxLength": 100000},
		"resume_url":      {"type": "string", "pattern": "^https?://"},
		"passout_year":    {"type": "integer", "minimum": 1950, "maximum": 2100},
		"role_type":       {"type": "string", "enum": ["internship", "fulltime", "both"]},
		"tech_interests":  {"type": "array", "items": {"type": "string"}, "maxItems": 50},
		"preferred_modes": {"type": "array", "items": {"type": "string"}, "maxItems": 10},
		"onboarding_completed": {"type": "boolean"}
	}
}`)

// fieldSchemas validates a single-field update; the keys are the only
// fields that may be patched.
var fieldSchemas = map[string]*validation.Schema{
	"resume_text":          validation.MustCompile(`{"type": ["string", "null"]}`),
	"resume_url":           validation.MustCompile(`{"type": ["string", "null"]}`),
	"passout_year":         validation.MustCompile(`{"type": ["integer", "null"], "minimum": 1950, "maximum": 2100}`),
	"role_type":            validation.MustCompile(`{"enum": ["internship", "fulltime", "both", null]}`),
	"tech_interests":       validation.MustCompile(`{"type": ["array", "null"], "items": {"type": "string"}}`),
	"preferred_modes":      validation.MustCompile(`{"type": ["array", "null"], "items": {"type": "string"}}`),
	"skills_extracted":     validation.MustCompile(`{}`),
	"onboarding_completed": validation.MustCompile(`{"type": "boolean"}`),
}
