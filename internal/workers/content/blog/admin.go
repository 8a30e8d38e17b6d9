// internal/workers/content/blog/admin.go
package blog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"primoboost-workers/internal/common/database"
	"primoboost-workers/internal/models"

	"github.com/lib/pq"
)

func validStatus(status string) bool {
	switch status {
	case models.BlogStatusDraft, models.BlogStatusPublished, models.BlogStatusScheduled:
		return true
	}
	return false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// CreatePost inserts a post with its category and tag links. The slug is
// derived from the title unless one is given.
func (s *Store) CreatePost(ctx context.Context, in *models.BlogPostInput, authorID string) (*models.BlogPost, error) {
	title := strings.TrimSpace(deref(in.Title))
	body := deref(in.BodyContent)
	if title == "" || strings.TrimSpace(body) == "" {
		return nil, toStandardError(fmt.Errorf("%w: title and body_content are required", ErrInvalidPost))
	}

	slug := GenerateSlug(title)
	if in.Slug != nil {
		slug = GenerateSlug(*in.Slug)
	}
	if slug == "" {
		return nil, toStandardError(fmt.Errorf("%w: slug is empty", ErrInvalidPost))
	}

	status := models.BlogStatusDraft
	if in.Status != nil {
		status = *in.Status
	}
	if !validStatus(status) {
		return nil, toStandardError(fmt.Errorf("%w: unknown status %q", ErrInvalidPost, status))
	}
	publishedAt := in.PublishedAt
	if status == models.BlogStatusScheduled && publishedAt == nil {
		return nil, toStandardError(fmt.Errorf("%w: scheduled posts need published_at", ErrInvalidPost))
	}
	if status == models.BlogStatusPublished && publishedAt == nil {
		now := s.now()
		publishedAt = &now
	}

	var author interface{}
	if authorID != "" {
		author = authorID
	}

	var id string
	err := database.WithTx(ctx, s.db, sql.LevelDefault, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, insertPostQuery,
			title, slug, in.Excerpt, body, in.FeaturedImageURL, author, in.AuthorName,
			status, publishedAt, in.MetaTitle, in.MetaDescription,
		).Scan(&id)
		if err != nil {
			if database.IsUniqueViolation(err) {
				return fmt.Errorf("%w: %s", ErrSlugTaken, slug)
			}
			return fmt.Errorf("%w: insert post: %v", ErrQueryFailed, err)
		}
		return replaceLinks(ctx, tx, id, in.CategoryIDs, in.TagIDs)
	})
	if err != nil {
		return nil, toStandardError(err)
	}

	post, err := s.getByID(ctx, id)
	if err != nil {
		return nil, toStandardError(err)
	}
	s.indexPost(ctx, post)

	s.logger.Info("blog post created", map[string]interface{}{"postId": id, "slug": slug, "status": status})
	return post, nil
}

// UpdatePost applies the non-nil fields of in. Category and tag links are
// replaced only when their lists are present.
func (s *Store) UpdatePost(ctx context.Context, id string, in *models.BlogPostInput) (*models.BlogPost, error) {
	var sets []string
	var args []interface{}
	set := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, toStandardError(fmt.Errorf("%w: title cannot be empty", ErrInvalidPost))
		}
		set("title", title)
	}
	if in.Slug != nil {
		slug := GenerateSlug(*in.Slug)
		if slug == "" {
			return nil, toStandardError(fmt.Errorf("%w: slug is empty", ErrInvalidPost))
		}
		set("slug", slug)
	}
	if in.Excerpt != nil {
		set("excerpt", *in.Excerpt)
	}
	if in.BodyContent != nil {
		set("body_content", *in.BodyContent)
	}
	if in.FeaturedImageURL != nil {
		set("featured_image_url", *in.FeaturedImageURL)
	}
	if in.AuthorName != nil {
		set("author_name", *in.AuthorName)
	}
	if in.MetaTitle != nil {
		set("meta_title", *in.MetaTitle)
	}
	if in.MetaDescription != nil {
		set("meta_description", *in.MetaDescription)
	}
	if in.PublishedAt != nil {
		set("published_at", *in.PublishedAt)
	}
	if in.Status != nil {
		if !validStatus(*in.Status) {
			return nil, toStandardError(fmt.Errorf("%w: unknown status %q", ErrInvalidPost, *in.Status))
		}
		set("status", *in.Status)
		if *in.Status == models.BlogStatusPublished && in.PublishedAt == nil {
			args = append(args, s.now())
			sets = append(sets, fmt.Sprintf("published_at = COALESCE(published_at, $%d)", len(args)))
		}
	}
	set("updated_at", s.now())

	args = append(args, id)
	query := fmt.Sprintf("UPDATE blog_posts SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	err := database.WithTx(ctx, s.db, sql.LevelDefault, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			if database.IsUniqueViolation(err) {
				return fmt.Errorf("%w: %s", ErrSlugTaken, deref(in.Slug))
			}
			return fmt.Errorf("%w: update post: %v", ErrQueryFailed, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrPostNotFound
		}
		return replaceLinks(ctx, tx, id, in.CategoryIDs, in.TagIDs)
	})
	if err != nil {
		return nil, toStandardError(err)
	}

	post, err := s.getByID(ctx, id)
	if err != nil {
		return nil, toStandardError(err)
	}
	s.indexPost(ctx, post)
	return post, nil
}

// DeletePost removes a post; link rows cascade.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, deletePostQuery, id)
	if err != nil {
		return toStandardError(fmt.Errorf("%w: delete post: %v", ErrQueryFailed, err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return toStandardError(ErrPostNotFound)
	}
	if s.search != nil {
		if err := s.search.Delete(ctx, id); err != nil {
			s.logger.Warn("search index not updated", map[string]interface{}{"postId": id, "error": err.Error()})
		}
	}
	s.logger.Info("blog post deleted", map[string]interface{}{"postId": id})
	return nil
}

// ListAll pages through posts of any status for the admin view.
func (s *Store) ListAll(ctx context.Context, page, pageSize int) (*models.BlogPostsResponse, error) {
	f := models.BlogPostFilters{Page: page, PageSize: pageSize}
	s.normalizePage(&f)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blog_posts`).Scan(&total); err != nil {
		return nil, toStandardError(fmt.Errorf("%w: count posts: %v", ErrQueryFailed, err))
	}

	posts, err := s.queryPosts(ctx,
		`SELECT `+postColumns+` FROM blog_posts p ORDER BY p.created_at DESC LIMIT $1 OFFSET $2`,
		f.PageSize, (f.Page-1)*f.PageSize)
	if err != nil {
		return nil, toStandardError(err)
	}
	if err := s.attachTaxonomy(ctx, posts); err != nil {
		return nil, toStandardError(err)
	}
	return pageResponse(posts, total, f), nil
}

func (s *Store) getByID(ctx context.Context, id string) (*models.BlogPost, error) {
	post, err := scanPost(s.db.QueryRowContext(ctx, selectPostByIDQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	posts := []models.BlogPost{post}
	if err := s.attachTaxonomy(ctx, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

func replaceLinks(ctx context.Context, tx *sql.Tx, postID string, categoryIDs, tagIDs []string) error {
	if categoryIDs != nil {
		if _, err := tx.ExecContext(ctx, deletePostCategoriesQuery, postID); err != nil {
			return fmt.Errorf("%w: clear categories: %v", ErrQueryFailed, err)
		}
		if len(categoryIDs) > 0 {
			if _, err := tx.ExecContext(ctx, insertPostCategoriesQuery, postID, pq.Array(categoryIDs)); err != nil {
				return fmt.Errorf("%w: link categories: %v", ErrQueryFailed, err)
			}
		}
	}
	if tagIDs != nil {
		if _, err := tx.ExecContext(ctx, deletePostTagsQuery, postID); err != nil {
			return fmt.Errorf("%w: clear tags: %v", ErrQueryFailed, err)
		}
		if len(tagIDs) > 0 {
			if _, err := tx.ExecContext(ctx, insertPostTagsQuery, postID, pq.Array(tagIDs)); err != nil {
				return fmt.Errorf("%w: link tags: %v", ErrQueryFailed, err)
			}
		}
	}
	return nil
}

// PublishScheduled flips scheduled posts whose publish time has passed and
// indexes them. It returns the number of posts published.
func (s *Store) PublishScheduled(ctx context.Context) (int, error) {
	rows, err := s.db.QueryContext(ctx, publishScheduledQuery, s.now())
	if err != nil {
		return 0, toStandardError(fmt.Errorf("%w: publish scheduled: %v", ErrQueryFailed, err))
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, toStandardError(fmt.Errorf("%w: %v", ErrQueryFailed, err))
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, toStandardError(fmt.Errorf("%w: %v", ErrQueryFailed, err))
	}

	if s.search != nil {
		for _, id := range ids {
			post, err := s.getByID(ctx, id)
			if err != nil {
				s.logger.Warn("published post not indexed", map[string]interface{}{"postId": id, "error": err.Error()})
				continue
			}
			s.indexPost(ctx, post)
		}
	}

	if len(ids) > 0 {
		s.logger.Info("scheduled posts published", map[string]interface{}{"count": len(ids)})
	}
	return len(ids), nil
}

// Reindex pushes every published post to the search index.
func (s *Store) Reindex(ctx context.Context) (int, error) {
	if s.search == nil {
		return 0, nil
	}
	rows, err := s.db.QueryContext(ctx, selectPublishedIDsQuery, s.now())
	if err != nil {
		return 0, toStandardError(fmt.Errorf("%w: %v", ErrQueryFailed, err))
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, toStandardError(fmt.Errorf("%w: %v", ErrQueryFailed, err))
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, toStandardError(fmt.Errorf("%w: %v", ErrQueryFailed, err))
	}

	indexed := 0
	for _, id := range ids {
		post, err := s.getByID(ctx, id)
		if err != nil {
			continue
		}
		if err := s.search.Index(ctx, post); err != nil {
			s.logger.Warn("post not reindexed", map[string]interface{}{"postId": id, "error": err.Error()})
			continue
		}
		indexed++
	}
	return indexed, nil
}
