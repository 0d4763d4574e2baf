package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/praxis-lms/grading-api/internal/dto"
	"github.com/praxis-lms/grading-api/internal/service"
	"github.com/praxis-lms/grading-api/internal/utils"
)

// ComplaintHandler manages complaint submission and review.
type ComplaintHandler struct {
	service service.ComplaintService
	logger  zerolog.Logger
}

// NewComplaintHandler builds the complaint handler.
func NewComplaintHandler(service service.ComplaintService, logger zerolog.Logger) *ComplaintHandler {
	return &ComplaintHandler{
		service: service,
		logger:  logger.With().Str("component", "complaint_handler").Logger(),
	}
}

// RegisterSubmit attaches the student-facing route under /results.
func (h *ComplaintHandler) RegisterSubmit(router fiber.Router) {
	router.Post("/:resultId/complaints", h.submit)
}

// RegisterRespond attaches the reviewer-facing route under /complaints.
func (h *ComplaintHandler) RegisterRespond(router fiber.Router) {
	router.Post("/:complaintId/response", h.respond)
}

func (h *ComplaintHandler) submit(c *fiber.Ctx) error {
	resultID, err := parseUintParam(c, "resultId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	studentID := userIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var payload dto.ComplaintCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	complaint, err := h.service.Submit(c.Context(), resultID, studentID, payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendCreated(c, "complaint submitted", complaint)
}

func (h *ComplaintHandler) respond(c *fiber.Ctx) error {
	complaintID, err := parseUintParam(c, "complaintId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	reviewerID := userIDFromContext(c)
	if reviewerID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var payload dto.ComplaintResponseRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	details, err := h.service.Respond(c.Context(), complaintID, reviewerID, payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "complaint answered", details)
}

func (h *ComplaintHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrResultNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "result not found")
	case errors.Is(err, service.ErrComplaintNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "complaint not found")
	case errors.Is(err, service.ErrResultSuperseded):
		return utils.SendError(c, fiber.StatusConflict, "result has been superseded")
	case errors.Is(err, service.ErrOpenComplaintExists):
		return utils.SendError(c, fiber.StatusConflict, "result already has an open complaint")
	case errors.Is(err, service.ErrComplaintAlreadyAnswered):
		return utils.SendError(c, fiber.StatusConflict, "complaint already answered")
	case errors.Is(err, service.ErrComplaintSelfReview):
		return utils.SendError(c, fiber.StatusForbidden, "cannot respond to complaints about your own assessment")
	case errors.As(err, &validationErrs):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("complaint operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "operation failed")
	}
}
