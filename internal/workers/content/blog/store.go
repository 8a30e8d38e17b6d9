// internal/workers/content/blog/store.go
package blog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"primoboost-workers/internal/common/database"
	apperrors "primoboost-workers/internal/common/errors"
	"primoboost-workers/internal/common/logger"
	"primoboost-workers/internal/models"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

var (
	ErrPostNotFound     = errors.New("POST_NOT_FOUND")
	ErrCategoryNotFound = errors.New("CATEGORY_NOT_FOUND")
	ErrTagNotFound      = errors.New("TAG_NOT_FOUND")
	ErrInvalidPost      = errors.New("INVALID_POST")
	ErrSlugTaken        = errors.New("SLUG_TAKEN")
	ErrQueryFailed      = errors.New("BLOG_QUERY_FAILED")
)

const (
	categoriesCacheKey = "blog:categories"
	tagsCacheKey       = "blog:tags"
)

const postColumns = `p.id, p.title, p.slug, p.excerpt, p.body_content, p.featured_image_url, p.author_id, p.author_name, p.status, p.published_at, p.meta_title, p.meta_description, p.view_count, p.created_at, p.updated_at`

const (
	publishedClause = `p.status = 'published' AND p.published_at <= $1`

	selectPublishedBySlugQuery = `SELECT ` + postColumns + ` FROM blog_posts p WHERE p.slug = $2 AND ` + publishedClause

	selectPostByIDQuery = `SELECT ` + postColumns + ` FROM blog_posts p WHERE p.id = $1`

	selectPostsByIDsQuery = `SELECT ` + postColumns + ` FROM blog_posts p WHERE p.id = ANY($1)`

	selectPostIDBySlugQuery = `SELECT id FROM blog_posts WHERE slug = $1`

	incrementViewCountQuery = `UPDATE blog_posts SET view_count = view_count + 1 WHERE id = $1`

	selectRelatedQuery = `SELECT ` + postColumns + ` FROM blog_posts p WHERE ` + publishedClause + ` AND p.id <> $2 AND (
		p.id IN (SELECT pc2.blog_post_id FROM blog_post_categories pc1 JOIN blog_post_categories pc2 ON pc1.blog_category_id = pc2.blog_category_id WHERE pc1.blog_post_id = $2)
		OR p.id IN (SELECT pt2.blog_post_id FROM blog_post_tags pt1 JOIN blog_post_tags pt2 ON pt1.blog_tag_id = pt2.blog_tag_id WHERE pt1.blog_post_id = $2)
	) ORDER BY p.published_at DESC LIMIT $3`

	selectPostCategoriesQuery = `SELECT pc.blog_post_id, c.id, c.name, c.slug, c.description, c.created_at FROM blog_post_categories pc JOIN blog_categories c ON c.id = pc.blog_category_id WHERE pc.blog_post_id = ANY($1) ORDER BY c.name`

	selectPostTagsQuery = `SELECT pt.blog_post_id, t.id, t.name, t.slug, t.created_at FROM blog_post_tags pt JOIN blog_tags t ON t.id = pt.blog_tag_id WHERE pt.blog_post_id = ANY($1) ORDER BY t.name`

	selectCategoriesQuery     = `SELECT id, name, slug, description, created_at FROM blog_categories ORDER BY name`
	selectCategoryBySlugQuery = `SELECT id, name, slug, description, created_at FROM blog_categories WHERE slug = $1`
	selectTagsQuery           = `SELECT id, name, slug, created_at FROM blog_tags ORDER BY name`
	selectTagBySlugQuery      = `SELECT id, name, slug, created_at FROM blog_tags WHERE slug = $1`

	insertPostQuery = `INSERT INTO blog_posts (title, slug, excerpt, body_content, featured_image_url, author_id, author_name, status, published_at, meta_title, meta_description) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`

	deletePostQuery = `DELETE FROM blog_posts WHERE id = $1`

	deletePostCategoriesQuery = `DELETE FROM blog_post_categories WHERE blog_post_id = $1`
	insertPostCategoriesQuery = `INSERT INTO blog_post_categories (blog_post_id, blog_category_id) SELECT $1, unnest($2::uuid[])`
	deletePostTagsQuery       = `DELETE FROM blog_post_tags WHERE blog_post_id = $1`
	insertPostTagsQuery       = `INSERT INTO blog_post_tags (blog_post_id, blog_tag_id) SELECT $1, unnest($2::uuid[])`

	publishScheduledQuery = `UPDATE blog_posts SET status = 'published', updated_at = $1 WHERE status = 'scheduled' AND published_at <= $1 RETURNING id`

	selectPublishedIDsQuery = `SELECT p.id FROM blog_posts p WHERE ` + publishedClause
)

// Store serves the blog from Postgres. search and redis are optional.
type Store struct {
	config *Config
	db     *sql.DB
	redis  *redis.Client
	search SearchIndex
	logger logger.Logger
	now    func() time.Time
}

func NewStore(config *Config, db *sql.DB, redis *redis.Client, search SearchIndex, log logger.Logger) *Store {
	return &Store{
		config: config,
		db:     db,
		redis:  redis,
		search: search,
		logger: log.WithFields(map[string]interface{}{"service": "blog"}),
		now:    time.Now,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPost(row rowScanner) (models.BlogPost, error) {
	var p models.BlogPost
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.BodyContent, &p.FeaturedImageURL,
		&p.AuthorID, &p.AuthorName, &p.Status, &p.PublishedAt, &p.MetaTitle, &p.MetaDescription,
		&p.ViewCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}
	p.ReadingTime = CalculateReadingTime(p.BodyContent)
	p.Categories = []models.BlogCategory{}
	p.Tags = []models.BlogTag{}
	return p, nil
}

func (s *Store) queryPosts(ctx context.Context, query string, args ...interface{}) ([]models.BlogPost, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	posts := []models.BlogPost{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan post: %v", ErrQueryFailed, err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	return posts, nil
}

func (s *Store) normalizePage(f *models.BlogPostFilters) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = s.config.DefaultPageSize
	}
	if f.PageSize > s.config.MaxPageSize {
		f.PageSize = s.config.MaxPageSize
	}
}

func pageResponse(posts []models.BlogPost, total int, f models.BlogPostFilters) *models.BlogPostsResponse {
	return &models.BlogPostsResponse{
		Posts:      posts,
		Total:      total,
		Page:       f.Page,
		PageSize:   f.PageSize,
		TotalPages: (total + f.PageSize - 1) / f.PageSize,
	}
}

// buildPublishedWhere returns the WHERE clause for published posts matching
// filters. $1 is always now.
func buildPublishedWhere(f models.BlogPostFilters, now time.Time) (string, []interface{}) {
	where := []string{publishedClause}
	args := []interface{}{now}

	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(p.title ILIKE $%d OR p.excerpt ILIKE $%d OR p.body_content ILIKE $%d)", n, n, n))
	}
	if f.CategoryID != "" {
		args = append(args, f.CategoryID)
		where = append(where, fmt.Sprintf("EXISTS (SELECT 1 FROM blog_post_categories pc WHERE pc.blog_post_id = p.id AND pc.blog_category_id = $%d)", len(args)))
	}
	if f.TagID != "" {
		args = append(args, f.TagID)
		where = append(where, fmt.Sprintf("EXISTS (SELECT 1 FROM blog_post_tags pt WHERE pt.blog_post_id = p.id AND pt.blog_tag_id = $%d)", len(args)))
	}
	return strings.Join(where, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// ListPublished pages through published posts, newest first. Searches go to
// the index when one is configured and fall back to ILIKE if it fails.
func (s *Store) ListPublished(ctx context.Context, f models.BlogPostFilters) (*models.BlogPostsResponse, error) {
	s.normalizePage(&f)

	if f.Search != "" && s.search != nil {
		resp, err := s.listFromIndex(ctx, f)
		if err == nil {
			return resp, nil
		}
		s.logger.Warn("search index unavailable, falling back to database", map[string]interface{}{
			"error": err.Error(),
		})
	}

	resp, err := s.listFromDatabase(ctx, f)
	return resp, toStandardError(err)
}

func (s *Store) listFromDatabase(ctx context.Context, f models.BlogPostFilters) (*models.BlogPostsResponse, error) {
	where, args := buildPublishedWhere(f, s.now())

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blog_posts p WHERE `+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("%w: count posts: %v", ErrQueryFailed, err)
	}
	if total == 0 {
		return pageResponse([]models.BlogPost{}, 0, f), nil
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM blog_posts p WHERE %s ORDER BY p.published_at DESC LIMIT $%d OFFSET $%d`, postColumns, where, n+1, n+2)
	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)

	posts, err := s.queryPosts(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if err := s.attachTaxonomy(ctx, posts); err != nil {
		return nil, err
	}
	return pageResponse(posts, total, f), nil
}

func (s *Store) listFromIndex(ctx context.Context, f models.BlogPostFilters) (*models.BlogPostsResponse, error) {
	ids, total, err := s.search.Search(ctx, f, s.now())
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return pageResponse([]models.BlogPost{}, total, f), nil
	}

	found, err := s.queryPosts(ctx, selectPostsByIDsQuery, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.BlogPost, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	// keep relevance order; drop ids the index still has but the table does not
	posts := make([]models.BlogPost, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			posts = append(posts, p)
		}
	}
	if err := s.attachTaxonomy(ctx, posts); err != nil {
		return nil, err
	}
	return pageResponse(posts, total, f), nil
}

// GetBySlug returns a published post and counts the view.
func (s *Store) GetBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	post, err := scanPost(s.db.QueryRowContext(ctx, selectPublishedBySlugQuery, s.now(), slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, toStandardError(ErrPostNotFound)
		}
		return nil, toStandardError(fmt.Errorf("%w: %v", ErrQueryFailed, err))
	}

	posts := []models.BlogPost{post}
	if err := s.attachTaxonomy(ctx, posts); err != nil {
		return nil, toStandardError(err)
	}

	if _, err := s.db.ExecContext(ctx, incrementViewCountQuery, post.ID); err != nil {
		s.logger.Warn("view count not incremented", map[string]interface{}{
			"postId": post.ID,
			"error":  err.Error(),
		})
	}
	return &posts[0], nil
}

// Related returns up to limit published posts sharing a category or tag with
// the post at slug.
func (s *Store) Related(ctx context.Context, slug string, limit int) ([]models.BlogPost, error) {
	if limit < 1 {
		limit = s.config.RelatedLimit
	}

	var postID string
	if err := s.db.QueryRowContext(ctx, selectPostIDBySlugQuery, slug).Scan(&postID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, toStandardError(ErrPostNotFound)
		}
		return nil, toStandardError(fmt.Errorf("%w: %v", ErrQueryFailed, err))
	}

	posts, err := s.queryPosts(ctx, selectRelatedQuery, s.now(), postID, limit)
	if err != nil {
		return nil, toStandardError(err)
	}
	if err := s.attachTaxonomy(ctx, posts); err != nil {
		return nil, toStandardError(err)
	}
	return posts, nil
}

// attachTaxonomy loads categories and tags for posts with one query each.
func (s *Store) attachTaxonomy(ctx context.Context, posts []models.BlogPost) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]string, len(posts))
	index := make(map[string]int, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
		index[p.ID] = i
	}

	rows, err := s.db.QueryContext(ctx, selectPostCategoriesQuery, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("%w: post categories: %v", ErrQueryFailed, err)
	}
	for rows.Next() {
		var postID string
		var c models.BlogCategory
		if err := rows.Scan(&postID, &c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt); err != nil {
			rows.Close()
			return fmt.Errorf("%w: scan category: %v", ErrQueryFailed, err)
		}
		if i, ok := index[postID]; ok {
			posts[i].Categories = append(posts[i].Categories, c)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}

	rows, err = s.db.QueryContext(ctx, selectPostTagsQuery, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("%w: post tags: %v", ErrQueryFailed, err)
	}
	defer rows.Close()
	for rows.Next() {
		var postID string
		var t models.BlogTag
		if err := rows.Scan(&postID, &t.ID, &t.Name, &t.Slug, &t.CreatedAt); err != nil {
			return fmt.Errorf("%w: scan tag: %v", ErrQueryFailed, err)
		}
		if i, ok := index[postID]; ok {
			posts[i].Tags = append(posts[i].Tags, t)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	return nil
}

// Categories lists every category by name, cached in Redis.
func (s *Store) Categories(ctx context.Context) ([]models.BlogCategory, error) {
	var cached []models.BlogCategory
	if s.cacheGet(ctx, categoriesCacheKey, &cached) {
		return cached, nil
	}

	rows, err := s.db.QueryContext(ctx, selectCategoriesQuery)
	if err != nil {
		return nil, toStandardError(fmt.Errorf("%w: %v", ErrQueryFailed, err))
	}
	defer rows.Close()

	categories := []models.BlogCategory{}
	for rows.Next() {
		var c models.BlogCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt); err != nil {
			return nil, toStandardError(fmt.Errorf("%w: %v", ErrQueryFailed, err))
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, toStandardError(fmt.Errorf("%w: %v", ErrQueryFailed, err))
	}

	s.cacheSet(ctx, categoriesCacheKey, categories)
	return categories, nil
}

// Tags lists every tag by name, cached in Redis.
func (s *Store) Tags(ctx context.Context) ([]models.BlogTag, error) {
	var cached []models.BlogTag
	if s.cacheGet(ctx, tagsCacheKey, &cached) {
		return cached, nil
	}

	rows, err := s.db.QueryContext(ctx, selectTagsQuery)
	if err != nil {
		return nil, toStandardError(fmt.Errorf("%w: %v", ErrQueryFailed, err))
	}
	defer rows.Close()

	tags := []models.BlogTag{}
	for rows.Next() {
		var t models.BlogTag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt); err != nil {
			return nil, toStandardError(fmt.Errorf("%w: %v", ErrQueryFailed, err))
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, toStandardError(fmt.Errorf("%w: %v", ErrQueryFailed, err))
	}

	s.cacheSet(ctx, tagsCacheKey, tags)
	return tags, nil
}

func (s *Store) CategoryBySlug(ctx context.Context, slug string) (*models.BlogCategory, error) {
	var c models.BlogCategory
	err := s.db.QueryRowContext(ctx, selectCategoryBySlugQuery, slug).Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, toStandardError(ErrCategoryNotFound)
	}
	if err != nil {
		return nil, toStandardError(fmt.Errorf("%w: %v", ErrQueryFailed, err))
	}
	return &c, nil
}

func (s *Store) TagBySlug(ctx context.Context, slug string) (*models.BlogTag, error) {
	var t models.BlogTag
	err := s.db.QueryRowContext(ctx, selectTagBySlugQuery, slug).Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, toStandardError(ErrTagNotFound)
	}
	if err != nil {
		return nil, toStandardError(fmt.Errorf("%w: %v", ErrQueryFailed, err))
	}
	return &t, nil
}

func (s *Store) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.redis == nil {
		return false
	}
	found, err := database.GetJSON(ctx, s.redis, key, dest)
	if err != nil {
		s.logger.Warn("taxonomy cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		return false
	}
	return found
}

func (s *Store) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.redis == nil || s.config.TaxonomyCacheTTL <= 0 {
		return
	}
	if err := database.SetJSON(ctx, s.redis, key, value, s.config.TaxonomyCacheTTL); err != nil {
		s.logger.Warn("taxonomy cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

// indexPost keeps the search index in step with a post's visibility.
func (s *Store) indexPost(ctx context.Context, post *models.BlogPost) {
	if s.search == nil {
		return
	}
	var err error
	if post.Status == models.BlogStatusPublished {
		err = s.search.Index(ctx, post)
	} else {
		err = s.search.Delete(ctx, post.ID)
	}
	if err != nil {
		s.logger.Warn("search index not updated", map[string]interface{}{
			"postId": post.ID,
			"error":  err.Error(),
		})
	}
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
	case errors.Is(err, ErrPostNotFound):
		return apperrors.NewNotFoundError("Post not found", "")
	case errors.Is(err, ErrCategoryNotFound):
		return apperrors.NewNotFoundError("Category not found", "")
	case errors.Is(err, ErrTagNotFound):
		return apperrors.NewNotFoundError("Tag not found", "")
	case errors.Is(err, ErrSlugTaken):
		return apperrors.NewValidationError("Slug already in use", err.Error())
	case errors.Is(err, ErrInvalidPost):
		return apperrors.NewValidationError("Invalid blog post", err.Error())
	default:
		return apperrors.NewUpstreamError("database", err)
	}
}
