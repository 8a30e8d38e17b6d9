// internal/workers/content/blog/search_test.go
package blog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"primoboost-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSearchQuery(t *testing.T) {
	q := BuildSearchQuery(models.BlogPostFilters{Search: "resume tips", TagID: "tag-1"}, fixedNow)

	boolQuery := q["query"].(map[string]interface{})["bool"].(map[string]interface{})
	must := boolQuery["must"].([]interface{})
	require.Len(t, must, 1)
	mm := must[0].(map[string]interface{})["multi_match"].(map[string]interface{})
	assert.Equal(t, "resume tips", mm["query"])
	assert.Equal(t, []string{"title^3", "excerpt^2", "body_content"}, mm["fields"])

	filter := boolQuery["filter"].([]interface{})
	require.Len(t, filter, 3)
	published := filter[1].(map[string]interface{})["range"].(map[string]interface{})["published_at"].(map[string]interface{})
	assert.Equal(t, "2026-03-01T10:00:00Z", published["lte"])
	assert.Equal(t, map[string]interface{}{"tag_ids": "tag-1"}, filter[2].(map[string]interface{})["term"])
	assert.Equal(t, false, q["_source"])

	empty := BuildSearchQuery(models.BlogPostFilters{}, fixedNow)
	must = empty["query"].(map[string]interface{})["bool"].(map[string]interface{})["must"].([]interface{})
	assert.Contains(t, must[0], "match_all")
}

func newTestElasticsearch(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client
}

func TestElasticsearchIndex_Search(t *testing.T) {
	client := newTestElasticsearch(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/blog_posts/_search", r.URL.Path)
		assert.Equal(t, "12", r.URL.Query().Get("from"))
		assert.Equal(t, "12", r.URL.Query().Get("size"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["track_total_hits"])

		_, _ = w.Write([]byte(`{"hits":{"total":{"value":13,"relation":"eq"},"hits":[{"_id":"p-7","_score":2.1}]}}`))
	})

	idx := NewElasticsearchIndex(client, "blog_posts")
	ids, total, err := idx.Search(context.Background(), models.BlogPostFilters{Search: "ats", Page: 2, PageSize: 12}, fixedNow)

	require.NoError(t, err)
	assert.Equal(t, []string{"p-7"}, ids)
	assert.Equal(t, 13, total)
}

func TestElasticsearchIndex_SearchError(t *testing.T) {
	client := newTestElasticsearch(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"unavailable"}`))
	})

	_, _, err := NewElasticsearchIndex(client, "blog_posts").
		Search(context.Background(), models.BlogPostFilters{Search: "ats", Page: 1, PageSize: 12}, fixedNow)
	assert.ErrorIs(t, err, ErrSearchFailed)
}

func TestElasticsearchIndex_IndexAndDelete(t *testing.T) {
	var indexed map[string]interface{}
	client := newTestElasticsearch(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			assert.Equal(t, "/blog_posts/_doc/p-1", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&indexed))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"result":"created"}`))
		case http.MethodDelete:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"result":"not_found"}`))
		}
	})
	idx := NewElasticsearchIndex(client, "blog_posts")

	excerpt := "Short"
	post := &models.BlogPost{
		ID: "p-1", Title: "Beat the ATS", Slug: "beat-the-ats", Excerpt: &excerpt,
		BodyContent: "body", Status: models.BlogStatusPublished, PublishedAt: &fixedNow,
		Categories: []models.BlogCategory{{ID: "cat-1"}},
	}
	require.NoError(t, idx.Index(context.Background(), post))
	assert.Equal(t, "Beat the ATS", indexed["title"])
	assert.Equal(t, []interface{}{"cat-1"}, indexed["category_ids"])
	assert.Equal(t, []interface{}{}, indexed["tag_ids"])

	assert.NoError(t, idx.Delete(context.Background(), "p-1"))
}
