package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/invigo/invigo-backend/internal/response"
	"github.com/invigo/invigo-backend/internal/service"
)

// PublicTestHandler serves the tokenized public test view.
type PublicTestHandler struct {
	testService *service.TestService
}

// NewPublicTestHandler creates a new PublicTestHandler.
func NewPublicTestHandler(testService *service.TestService) *PublicTestHandler {
	return &PublicTestHandler{testService: testService}
}

// GetPublicTest godoc
// GET /api/v1/public/test/:token
// Returns the candidate-safe test payload: title, duration, whether an access
// code is required, and questions without correct options.
func (h *PublicTestHandler) GetPublicTest(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	payload, err := h.testService.GetPublicTest(c.Request.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTestNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrTestExpired):
			response.Fail(c, http.StatusForbidden, response.ErrTestExpired)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, payload)
}
