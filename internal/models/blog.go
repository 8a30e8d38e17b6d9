// internal/models/blog.go
package models

import "time"

const (
	BlogStatusDraft     = "draft"
	BlogStatusPublished = "published"
	BlogStatusScheduled = "scheduled"
)

type BlogPost struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	Slug             string         `json:"slug"`
	Excerpt          *string        `json:"excerpt"`
	BodyContent      string         `json:"body_content"`
	FeaturedImageURL *string        `json:"featured_image_url"`
	AuthorID         *string        `json:"author_id"`
	AuthorName       *string        `json:"author_name"`
	Status           string         `json:"status"`
	PublishedAt      *time.Time     `json:"published_at"`
	MetaTitle        *string        `json:"meta_title"`
	MetaDescription  *string        `json:"meta_description"`
	ViewCount        int            `json:"view_count"`
	ReadingTime      int            `json:"reading_time"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	Categories       []BlogCategory `json:"categories"`
	Tags             []BlogTag      `json:"tags"`
}

type BlogCategory struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type BlogTag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// BlogPostInput is the admin create/update body. On update, nil fields are
// left unchanged.
type BlogPostInput struct {
	Title            *string    `json:"title,omitempty"`
	Slug             *string    `json:"slug,omitempty"`
	Excerpt          *string    `json:"excerpt,omitempty"`
	BodyContent      *string    `json:"body_content,omitempty"`
	FeaturedImageURL *string    `json:"featured_image_url,omitempty"`
	AuthorName       *string    `json:"author_name,omitempty"`
	Status           *string    `json:"status,omitempty"`
	PublishedAt      *time.Time `json:"published_at,omitempty"`
	MetaTitle        *string    `json:"meta_title,omitempty"`
	MetaDescription  *string    `json:"meta_description,omitempty"`
	CategoryIDs      []string   `json:"category_ids,omitempty"`
	TagIDs           []string   `json:"tag_ids,omitempty"`
}

type BlogPostFilters struct {
	Search     string
	CategoryID string
	TagID      string
	Page       int
	PageSize   int
}

type BlogPostsResponse struct {
	Posts      []BlogPost `json:"posts"`
	Total      int        `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"pageSize"`
	TotalPages int        `json:"totalPages"`
}
