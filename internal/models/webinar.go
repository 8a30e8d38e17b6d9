// internal/models/webinar.go
package models

import "time"

const (
	WebinarUpdateMeetLink       = "meet_link"
	WebinarUpdateAnnouncement   = "announcement"
	WebinarUpdateMaterial       = "material"
	WebinarUpdateScheduleChange = "schedule_change"
	WebinarUpdateReminder       = "reminder"
)

type WebinarUpdate struct {
	ID            string     `json:"id"`
	WebinarID     string     `json:"webinar_id"`
	UpdateType    string     `json:"update_type"`
	Title         string     `json:"title"`
	Description   *string    `json:"description,omitempty"`
	LinkURL       *string    `json:"link_url,omitempty"`
	AttachmentURL *string    `json:"attachment_url,omitempty"`
	IsPublished   bool       `json:"is_published"`
	PublishAt     *time.Time `json:"publish_at,omitempty"`
	CreatedBy     *string    `json:"created_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	IsViewed      *bool      `json:"is_viewed,omitempty"`
}

// WebinarUpdateInput is the admin create/update body.
type WebinarUpdateInput struct {
	WebinarID     *string    `json:"webinar_id,omitempty"`
	UpdateType    *string    `json:"update_type,omitempty"`
	Title         *string    `json:"title,omitempty"`
	Description   *string    `json:"description,omitempty"`
	LinkURL       *string    `json:"link_url,omitempty"`
	AttachmentURL *string    `json:"attachment_url,omitempty"`
	IsPublished   *bool      `json:"is_published,omitempty"`
	PublishAt     *time.Time `json:"publish_at,omitempty"`
}
