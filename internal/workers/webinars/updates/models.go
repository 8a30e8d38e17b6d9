// internal/workers/webinars/updates/models.go
package updates

import (
	"time"

	"primoboost-workers/internal/common/validation"
)

const (
	EventUpdatePublished = "webinar.update.published"
)

// PublishedEvent is the SNS payload sent when an update goes live.
type PublishedEvent struct {
	UpdateID    string     `json:"updateId"`
	WebinarID   string     `json:"webinarId"`
	UpdateType  string     `json:"updateType"`
	Title       string     `json:"title"`
	LinkURL     *string    `json:"linkUrl,omitempty"`
	PublishAt   *time.Time `json:"publishAt,omitempty"`
	PublishedAt time.Time  `json:"publishedAt"`
}

var createSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["webinar_id", "update_type", "title"],
	"properties": {
		"webinar_id":     {"type": "string", "minLength": 1},
		"update_type":    {"type": "string", "enum": ["meet_link", "announcement", "material", "schedule_change", "reminder"]},
		"title":          {"type": "string", "minLength": 1, "maxLength": 200},
		"description":    {"type": "string"},
		"link_url":       {"type": "string", "pattern": "^https?://"},
		"attachment_url": {"type": "string", "pattern": "^https?://"},
		"is_published":   {"type": "boolean"}
	}
}`)

var updateSchema = validation.MustCompile(`{
	"type": "object",
	"properties": {
		"webinar_id":     {"type": "string", "minLength": 1},
		"update_type":    {"type": "string", "enum": ["meet_link", "announcement", "material", "schedule_change", "reminder"]},
		"title":          {"type": "string", "minLength": 1, "maxLength": 200},
		"description":    {"type": "string"},
		"link_url":       {"type": "string", "pattern": "^https?://"},
		"attachment_url": {"type": "string", "pattern": "^https?://"},
		"is_published":   {"type": "boolean"}
	}
}`)
