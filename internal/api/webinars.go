package api

import (
	"net/http"

	"primoboost-workers/internal/models"

	"github.com/gin-gonic/gin"
)

// listWebinarUpdates carries is_viewed only for an authenticated caller.
func (s *Server) listWebinarUpdates(c *gin.Context) {
	list, err := s.services.Webinars.List(c.Request.Context(), c.Param("webinarId"), currentUserID(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updates": list})
}

func (s *Server) unreadWebinarUpdates(c *gin.Context) {
	count := s.services.Webinars.UnreadCount(c.Request.Context(), c.Param("webinarId"), currentUserID(c))
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (s *Server) markWebinarUpdateViewed(c *gin.Context) {
	if err := s.services.Webinars.MarkViewed(c.Request.Context(), c.Param("updateId"), currentUserID(c)); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) markAllWebinarUpdatesViewed(c *gin.Context) {
	n, err := s.services.Webinars.MarkAllViewed(c.Request.Context(), c.Param("webinarId"), currentUserID(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "marked": n})
}

func (s *Server) adminListWebinarUpdates(c *gin.Context) {
	list, err := s.services.Webinars.ListAll(c.Request.Context(), c.Param("webinarId"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updates": list})
}

func (s *Server) createWebinarUpdate(c *gin.Context) {
	var in models.WebinarUpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		s.abortWithError(c, invalidBody(err))
		return
	}
	u, err := s.services.Webinars.Create(c.Request.Context(), &in, currentUserID(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (s *Server) updateWebinarUpdate(c *gin.Context) {
	var in models.WebinarUpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		s.abortWithError(c, invalidBody(err))
		return
	}
	u, err := s.services.Webinars.Update(c.Request.Context(), c.Param("id"), &in)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) deleteWebinarUpdate(c *gin.Context) {
	if err := s.services.Webinars.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
