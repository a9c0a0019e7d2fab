package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/invigo/invigo-backend/internal/model"
	"github.com/invigo/invigo-backend/internal/response"
	"github.com/invigo/invigo-backend/internal/service"
	"github.com/invigo/invigo-backend/internal/validator"
)

// ViolationHandler accepts best-effort violation reports.
type ViolationHandler struct {
	violationService *service.ViolationService
	log              zerolog.Logger
}

// NewViolationHandler creates a new ViolationHandler.
func NewViolationHandler(violationService *service.ViolationService, log zerolog.Logger) *ViolationHandler {
	return &ViolationHandler{
		violationService: violationService,
		log:              log.With().Str("component", "violation_handler").Logger(),
	}
}

// LogViolation godoc
// POST /api/v1/violations/log
// Queues a violation for persistence. A queue failure is logged but still
// acknowledged — proctoring telemetry must never surface errors to the
// candidate or block the exam.
func (h *ViolationHandler) LogViolation(c *gin.Context) {
	var req model.LogViolationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.violationService.Log(c.Request.Context(), &req); err != nil {
		h.log.Error().Err(err).Str("attempt_id", req.AttemptID.String()).Msg("Violation enqueue failed")
		response.Success(c, http.StatusOK, gin.H{"success": false})
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"success": true})
}
