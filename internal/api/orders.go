package api

import (
	"net/http"

	apperrors "primoboost-workers/internal/common/errors"
	autoapplystatus "primoboost-workers/internal/workers/applications/auto-apply-status"
	createorder "primoboost-workers/internal/workers/payments/create-order"

	"github.com/gin-gonic/gin"
)

// getStatus serves the polling endpoint of an auto-apply run. Failures other
// than a missing id also report status "failed" so pollers stop.
func (s *Server) getStatus(c *gin.Context) {
	out, err := s.services.Status.Execute(c.Request.Context(), &autoapplystatus.Input{
		ApplicationID: c.Param("applicationId"),
	})
	if err != nil {
		if apperrors.As(err).Code == apperrors.ErrCodeValidation {
			s.abortWithError(c, err)
			return
		}
		s.abortWithBody(c, err, gin.H{"status": autoapplystatus.StatusFailed})
		return
	}
	c.JSON(http.StatusOK, out)
}

// createOrder binds the checkout body and stamps it with the caller's
// identity. A userId in the body is ignored.
func (s *Server) createOrder(c *gin.Context) {
	var input createorder.Input
	if err := c.ShouldBindJSON(&input); err != nil {
		s.abortWithError(c, invalidBody(err))
		return
	}
	user := currentUser(c)
	input.UserID = user.ID
	input.UserEmail = user.Email

	out, err := s.services.Orders.Execute(c.Request.Context(), &input)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
