package api

import (
	"net/http"
	"testing"

	apperrors "primoboost-workers/internal/common/errors"
	"primoboost-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestListPosts_BindsFilters(t *testing.T) {
	blog := &MockBlog{}
	blog.On("ListPublished", mock.Anything, models.BlogPostFilters{
		Search:     "resume tips",
		CategoryID: "cat-1",
		Page:       2,
		PageSize:   6,
	}).Return(&models.BlogPostsResponse{
		Posts:      []models.BlogPost{{ID: "p-1", Slug: "resume-tips"}},
		Total:      7,
		Page:       2,
		PageSize:   6,
		TotalPages: 2,
	}, nil)
	r := newTestRouter(t, Services{Blog: blog})

	w := doRequest(r, http.MethodGet, "/blog/posts?search=+resume+tips+&categoryId=cat-1&page=2&pageSize=6", "", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, float64(7), body["total"])
	assert.Equal(t, float64(2), body["totalPages"])
	assert.Len(t, body["posts"], 1)
	blog.AssertExpectations(t)
}

func TestListPosts_InvalidPage(t *testing.T) {
	blog := &MockBlog{}
	r := newTestRouter(t, Services{Blog: blog})

	w := doRequest(r, http.MethodGet, "/blog/posts?page=two", "", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeBody(t, w)["code"])
	blog.AssertNotCalled(t, "ListPublished")
}

func TestGetPost(t *testing.T) {
	blog := &MockBlog{}
	blog.On("GetBySlug", mock.Anything, "resume-tips").Return(&models.BlogPost{ID: "p-1", Slug: "resume-tips", Title: "Resume tips"}, nil)
	blog.On("GetBySlug", mock.Anything, "missing").Return(nil, apperrors.NewNotFoundError("Post not found", ""))
	r := newTestRouter(t, Services{Blog: blog})

	w := doRequest(r, http.MethodGet, "/blog/posts/resume-tips", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Resume tips", decodeBody(t, w)["title"])

	w = doRequest(r, http.MethodGet, "/blog/posts/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Post not found", decodeBody(t, w)["error"])
}

func TestRelatedPosts(t *testing.T) {
	blog := &MockBlog{}
	blog.On("Related", mock.Anything, "resume-tips", 3).Return([]models.BlogPost{{ID: "p-2"}, {ID: "p-3"}}, nil)
	r := newTestRouter(t, Services{Blog: blog})

	w := doRequest(r, http.MethodGet, "/blog/posts/resume-tips/related?limit=3", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["posts"], 2)
	blog.AssertExpectations(t)
}

func TestGetCategory_ListsItsPosts(t *testing.T) {
	blog := &MockBlog{}
	blog.On("CategoryBySlug", mock.Anything, "careers").Return(&models.BlogCategory{ID: "cat-1", Name: "Careers", Slug: "careers"}, nil)
	blog.On("ListPublished", mock.Anything, models.BlogPostFilters{CategoryID: "cat-1", Page: 1}).
		Return(&models.BlogPostsResponse{Posts: []models.BlogPost{}, Page: 1, PageSize: 12}, nil)
	r := newTestRouter(t, Services{Blog: blog})

	w := doRequest(r, http.MethodGet, "/blog/categories/careers?categoryId=ignored&page=1", "", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, "Careers", body["category"].(map[string]interface{})["name"])
	assert.Contains(t, body, "posts")
	blog.AssertExpectations(t)
}

func TestGetTag_NotFound(t *testing.T) {
	blog := &MockBlog{}
	blog.On("TagBySlug", mock.Anything, "golang").Return(nil, apperrors.NewNotFoundError("Tag not found", ""))
	r := newTestRouter(t, Services{Blog: blog})

	w := doRequest(r, http.MethodGet, "/blog/tags/golang", "", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	blog.AssertNotCalled(t, "ListPublished")
}

func TestTaxonomyLists(t *testing.T) {
	blog := &MockBlog{}
	blog.On("Categories", mock.Anything).Return([]models.BlogCategory{{ID: "cat-1", Slug: "careers"}}, nil)
	blog.On("Tags", mock.Anything).Return([]models.BlogTag{{ID: "tag-1", Slug: "interviews"}, {ID: "tag-2", Slug: "resume"}}, nil)
	r := newTestRouter(t, Services{Blog: blog})

	w := doRequest(r, http.MethodGet, "/blog/categories", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["categories"], 1)

	w = doRequest(r, http.MethodGet, "/blog/tags", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["tags"], 2)
}

func TestAdminPosts(t *testing.T) {
	blog := &MockBlog{}
	blog.On("CreatePost", mock.Anything, mock.MatchedBy(func(in *models.BlogPostInput) bool {
		return in.Title != nil && *in.Title == "Interview prep" && len(in.CategoryIDs) == 1
	}), "admin-1").Return(&models.BlogPost{ID: "p-9", Title: "Interview prep", Slug: "interview-prep"}, nil)
	blog.On("UpdatePost", mock.Anything, "p-9", mock.MatchedBy(func(in *models.BlogPostInput) bool {
		return in.Status != nil && *in.Status == "published"
	})).Return(&models.BlogPost{ID: "p-9", Status: "published"}, nil)
	blog.On("DeletePost", mock.Anything, "p-9").Return(nil)
	blog.On("ListAll", mock.Anything, 1, 20).Return(&models.BlogPostsResponse{Page: 1, PageSize: 20}, nil)
	r := newTestRouter(t, Services{Blog: blog})

	w := doRequest(r, http.MethodPost, "/admin/blog/posts", adminToken, map[string]interface{}{
		"title":        "Interview prep",
		"body_content": "Practice out loud.",
		"category_ids": []string{"cat-1"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "interview-prep", decodeBody(t, w)["slug"])

	w = doRequest(r, http.MethodPut, "/admin/blog/posts/p-9", adminToken, map[string]*string{"status": strPtr("published")})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(r, http.MethodGet, "/admin/blog/posts?page=1&pageSize=20", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodDelete, "/admin/blog/posts/p-9", adminToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	blog.AssertExpectations(t)
}
