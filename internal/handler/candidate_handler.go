package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/invigo/invigo-backend/internal/model"
	"github.com/invigo/invigo-backend/internal/response"
	"github.com/invigo/invigo-backend/internal/service"
	"github.com/invigo/invigo-backend/internal/validator"
)

// CandidateHandler handles attempt creation and the resumable attempt state.
type CandidateHandler struct {
	attemptService *service.AttemptService
}

// NewCandidateHandler creates a new CandidateHandler.
func NewCandidateHandler(attemptService *service.AttemptService) *CandidateHandler {
	return &CandidateHandler{attemptService: attemptService}
}

// StartTest godoc
// POST /api/v1/candidate/start
// Gates attempt creation on token resolution, link expiry, and access code,
// then creates the attempt with a server-clock started_at.
func (h *CandidateHandler) StartTest(c *gin.Context) {
	var req model.StartAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	attempt, err := h.attemptService.Start(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTestNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrTestExpired):
			response.Fail(c, http.StatusForbidden, response.ErrTestExpired)
		case errors.Is(err, service.ErrAccessCodeRequired):
			response.Fail(c, http.StatusUnauthorized, response.ErrAccessCodeRequired)
		case errors.Is(err, service.ErrAccessCodeInvalid):
			response.Fail(c, http.StatusUnauthorized, response.ErrAccessCodeInvalid)
		case errors.Is(err, service.ErrAlreadyAttempted):
			response.Fail(c, http.StatusBadRequest, response.ErrAlreadyAttempted)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"attemptId": attempt.ID})
}

// GetCandidateTest godoc
// GET /api/v1/candidate/test/:attempt_id
// Returns the resume payload. The client recomputes its countdown from the
// returned startedAt, never from a locally carried counter.
func (h *CandidateHandler) GetCandidateTest(c *gin.Context) {
	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	state, err := h.attemptService.GetState(c.Request.Context(), attemptID)
	if err != nil {
		if errors.Is(err, service.ErrAttemptNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, state)
}
