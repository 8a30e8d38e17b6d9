package api

import (
	"context"
	"net/http"
	"time"

	llmgenerate "primoboost-workers/internal/workers/ai/llm-generate"
	browserproxy "primoboost-workers/internal/workers/automation/browser-proxy"

	"github.com/gin-gonic/gin"
)

func (s *Server) analyzeForm(c *gin.Context) {
	var req browserproxy.AnalyzeFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, invalidBody(err))
		return
	}
	analysis, err := s.services.Browser.AnalyzeForm(c.Request.Context(), req.URL)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// autoApply always submits on behalf of the authenticated caller.
func (s *Server) autoApply(c *gin.Context) {
	var req browserproxy.AutoApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, invalidBody(err))
		return
	}
	req.UserID = currentUserID(c)

	resp, err := s.services.Browser.AutoApply(c.Request.Context(), &req)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) automationStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.services.Browser.Status(c.Request.Context(), c.Param("id")))
}

func (s *Server) cancelAutoApply(c *gin.Context) {
	ok := s.services.Browser.Cancel(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"success": ok})
}

func (s *Server) browserHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	if !s.services.Browser.Health(ctx) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"healthy": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"healthy": true})
}

func (s *Server) generate(c *gin.Context) {
	var in llmgenerate.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		s.abortWithError(c, invalidBody(err))
		return
	}
	out, err := s.services.Generator.Execute(c.Request.Context(), &in)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
