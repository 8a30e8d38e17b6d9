// internal/workers/content/blog/search.go
package blog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"primoboost-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var ErrSearchFailed = errors.New("SEARCH_FAILED")

// SearchIndex is the full-text side of the blog. Postgres stays the source
// of truth; the index only returns matching post ids.
type SearchIndex interface {
	Search(ctx context.Context, filters models.BlogPostFilters, now time.Time) (ids []string, total int, err error)
	Index(ctx context.Context, post *models.BlogPost) error
	Delete(ctx context.Context, id string) error
}

// IndexMapping is applied by EnsureIndex at startup.
const IndexMapping = `{
	"mappings": {
		"properties": {
			"title":        {"type": "text"},
			"excerpt":      {"type": "text"},
			"body_content": {"type": "text"},
			"slug":         {"type": "keyword"},
			"status":       {"type": "keyword"},
			"published_at": {"type": "date"},
			"category_ids": {"type": "keyword"},
			"tag_ids":      {"type": "keyword"}
		}
	}
}`

type searchDocument struct {
	Title       string     `json:"title"`
	Excerpt     string     `json:"excerpt,omitempty"`
	BodyContent string     `json:"body_content"`
	Slug        string     `json:"slug"`
	Status      string     `json:"status"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CategoryIDs []string   `json:"category_ids"`
	TagIDs      []string   `json:"tag_ids"`
}

type ElasticsearchIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticsearchIndex(client *elasticsearch.Client, index string) *ElasticsearchIndex {
	return &ElasticsearchIndex{client: client, index: index}
}

// BuildSearchQuery returns the bool query for published posts matching the
// filters, best title matches first.
func BuildSearchQuery(f models.BlogPostFilters, now time.Time) map[string]interface{} {
	must := []interface{}{}
	if f.Search != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  f.Search,
				"fields": []string{"title^3", "excerpt^2", "body_content"},
				"type":   "best_fields",
			},
		})
	} else {
		must = append(must, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	filter := []interface{}{
		map[string]interface{}{"term": map[string]interface{}{"status": models.BlogStatusPublished}},
		map[string]interface{}{"range": map[string]interface{}{
			"published_at": map[string]interface{}{"lte": now.UTC().Format(time.RFC3339)},
		}},
	}
	if f.CategoryID != "" {
		filter = append(filter, map[string]interface{}{"term": map[string]interface{}{"category_ids": f.CategoryID}})
	}
	if f.TagID != "" {
		filter = append(filter, map[string]interface{}{"term": map[string]interface{}{"tag_ids": f.TagID}})
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   must,
				"filter": filter,
			},
		},
		"sort": []interface{}{
			"_score",
			map[string]interface{}{"published_at": map[string]interface{}{"order": "desc"}},
		},
		"_source":          false,
		"track_total_hits": true,
	}
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

func (e *ElasticsearchIndex) Search(ctx context.Context, f models.BlogPostFilters, now time.Time) ([]string, int, error) {
	body, err := json.Marshal(BuildSearchQuery(f, now))
	if err != nil {
		return nil, 0, err
	}
	from := (f.Page - 1) * f.PageSize
	size := f.PageSize

	req := esapi.SearchRequest{
		Index: []string{e.index},
		Body:  bytes.NewReader(body),
		From:  &from,
		Size:  &size,
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, 0, fmt.Errorf("%w: %s", ErrSearchFailed, res.String())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, 0, fmt.Errorf("%w: decode: %v", ErrSearchFailed, err)
	}
	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, parsed.Hits.Total.Value, nil
}

func (e *ElasticsearchIndex) Index(ctx context.Context, post *models.BlogPost) error {
	doc := searchDocument{
		Title:       post.Title,
		BodyContent: post.BodyContent,
		Slug:        post.Slug,
		Status:      post.Status,
		PublishedAt: post.PublishedAt,
		CategoryIDs: make([]string, 0, len(post.Categories)),
		TagIDs:      make([]string, 0, len(post.Tags)),
	}
	if post.Excerpt != nil {
		doc.Excerpt = *post.Excerpt
	}
	for _, c := range post.Categories {
		doc.CategoryIDs = append(doc.CategoryIDs, c.ID)
	}
	for _, t := range post.Tags {
		doc.TagIDs = append(doc.TagIDs, t.ID)
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	res, err := e.client.Index(e.index, bytes.NewReader(body),
		e.client.Index.WithContext(ctx),
		e.client.Index.WithDocumentID(post.ID),
	)
	if err != nil {
		return fmt.Errorf("index post %s: %w", post.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index post %s: %s", post.ID, res.String())
	}
	return nil
}

// Delete removes a post from the index. A missing document is not an error.
func (e *ElasticsearchIndex) Delete(ctx context.Context, id string) error {
	res, err := e.client.Delete(e.index, id, e.client.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete post %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete post %s: %s", id, res.String())
	}
	return nil
}
