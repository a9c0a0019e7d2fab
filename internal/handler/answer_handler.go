package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/invigo/invigo-backend/internal/model"
	"github.com/invigo/invigo-backend/internal/response"
	"github.com/invigo/invigo-backend/internal/service"
	"github.com/invigo/invigo-backend/internal/validator"
)

// AnswerHandler handles autosave and finalization.
type AnswerHandler struct {
	answerService  *service.AnswerService
	attemptService *service.AttemptService
}

// NewAnswerHandler creates a new AnswerHandler.
func NewAnswerHandler(answerService *service.AnswerService, attemptService *service.AttemptService) *AnswerHandler {
	return &AnswerHandler{answerService: answerService, attemptService: attemptService}
}

// SaveAnswer godoc
// POST /api/v1/answers/save
// Upserts one answer. Rejected once the attempt is completed.
func (h *AnswerHandler) SaveAnswer(c *gin.Context) {
	var req model.SaveAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.answerService.Save(c.Request.Context(), &req); err != nil {
		if errors.Is(err, service.ErrInvalidAttempt) {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidAttempt)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Answer saved"})
}

// SubmitTest godoc
// POST /api/v1/answers/submit
// Finalizes an attempt. Idempotent: a repeat call replays the stored result.
func (h *AnswerHandler) SubmitTest(c *gin.Context) {
	var req model.SubmitRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.attemptService.Submit(c.Request.Context(), req.AttemptID, req.Answers)
	if err != nil {
		if errors.Is(err, service.ErrAttemptNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, result)
}
