package handler

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/praxis-lms/grading-api/internal/dto"
	"github.com/praxis-lms/grading-api/internal/service"
	"github.com/praxis-lms/grading-api/internal/utils"
	"github.com/praxis-lms/grading-api/pkg/cischema"
)

// CIResultHandler receives build-result notifications from the CI connector.
type CIResultHandler struct {
	service service.ResultIngestionService
	logger  zerolog.Logger
}

// NewCIResultHandler builds the CI webhook handler.
func NewCIResultHandler(service service.ResultIngestionService, logger zerolog.Logger) *CIResultHandler {
	return &CIResultHandler{
		service: service,
		logger:  logger.With().Str("component", "ci_result_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *CIResultHandler) Register(router fiber.Router) {
	router.Post("/results", h.ingest)
}

func (h *CIResultHandler) ingest(c *fiber.Ctx) error {
	body := c.Body()

	if err := cischema.ValidateBuildResult(body); err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Msg("rejected malformed build result")
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var notification dto.BuildResultNotification
	if err := json.Unmarshal(body, &notification); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid build result payload")
	}

	result, err := h.service.ProcessBuildResult(c.Context(), notification)
	if err != nil {
		return h.handleError(c, err)
	}

	if result.Idempotent {
		return utils.SendSuccess(c, "build result already processed", result)
	}
	return utils.SendCreated(c, "build result processed", result)
}

func (h *CIResultHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrUnknownParticipation):
		return utils.SendError(c, fiber.StatusNotFound, "participation not found")
	case errors.Is(err, service.ErrIngestionFailed):
		requestLogger(h.logger, c).Error().Err(err).Msg("build result ingestion failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to process build result")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("unexpected ingestion error")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to process build result")
	}
}
