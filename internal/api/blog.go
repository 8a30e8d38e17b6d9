package api

import (
	"net/http"
	"strings"

	apperrors "primoboost-workers/internal/common/errors"
	"primoboost-workers/internal/models"

	"github.com/gin-gonic/gin"
)

type postListQuery struct {
	Search     string `form:"search"`
	CategoryID string `form:"categoryId"`
	TagID      string `form:"tagId"`
	Page       int    `form:"page"`
	PageSize   int    `form:"pageSize"`
}

func (q postListQuery) filters() models.BlogPostFilters {
	return models.BlogPostFilters{
		Search:     strings.TrimSpace(q.Search),
		CategoryID: q.CategoryID,
		TagID:      q.TagID,
		Page:       q.Page,
		PageSize:   q.PageSize,
	}
}

func (s *Server) bindPostQuery(c *gin.Context) (postListQuery, bool) {
	var q postListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.abortWithError(c, apperrors.NewValidationError("Invalid query parameters", err.Error()))
		return q, false
	}
	return q, true
}

func (s *Server) listPosts(c *gin.Context) {
	q, ok := s.bindPostQuery(c)
	if !ok {
		return
	}
	resp, err := s.services.Blog.ListPublished(c.Request.Context(), q.filters())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getPost(c *gin.Context) {
	post, err := s.services.Blog.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (s *Server) relatedPosts(c *gin.Context) {
	var q struct {
		Limit int `form:"limit"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		s.abortWithError(c, apperrors.NewValidationError("Invalid query parameters", err.Error()))
		return
	}
	posts, err := s.services.Blog.Related(c.Request.Context(), c.Param("slug"), q.Limit)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (s *Server) listCategories(c *gin.Context) {
	categories, err := s.services.Blog.Categories(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// getCategory returns the category with a page of its published posts.
func (s *Server) getCategory(c *gin.Context) {
	q, ok := s.bindPostQuery(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	category, err := s.services.Blog.CategoryBySlug(ctx, c.Param("slug"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	f := q.filters()
	f.CategoryID = category.ID
	posts, err := s.services.Blog.ListPublished(ctx, f)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category, "posts": posts})
}

func (s *Server) listTags(c *gin.Context) {
	tags, err := s.services.Blog.Tags(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

func (s *Server) getTag(c *gin.Context) {
	q, ok := s.bindPostQuery(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	tag, err := s.services.Blog.TagBySlug(ctx, c.Param("slug"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	f := q.filters()
	f.TagID = tag.ID
	posts, err := s.services.Blog.ListPublished(ctx, f)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tag": tag, "posts": posts})
}

func (s *Server) adminListPosts(c *gin.Context) {
	q, ok := s.bindPostQuery(c)
	if !ok {
		return
	}
	resp, err := s.services.Blog.ListAll(c.Request.Context(), q.Page, q.PageSize)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) createPost(c *gin.Context) {
	var in models.BlogPostInput
	if err := c.ShouldBindJSON(&in); err != nil {
		s.abortWithError(c, invalidBody(err))
		return
	}
	post, err := s.services.Blog.CreatePost(c.Request.Context(), &in, currentUserID(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (s *Server) updatePost(c *gin.Context) {
	var in models.BlogPostInput
	if err := c.ShouldBindJSON(&in); err != nil {
		s.abortWithError(c, invalidBody(err))
		return
	}
	post, err := s.services.Blog.UpdatePost(c.Request.Context(), c.Param("id"), &in)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (s *Server) deletePost(c *gin.Context) {
	if err := s.services.Blog.DeletePost(c.Request.Context(), c.Param("id")); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
