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

// TestCaseHandler exposes the per-exercise test case registry to instructors.
type TestCaseHandler struct {
	service service.TestCaseService
	logger  zerolog.Logger
}

// NewTestCaseHandler builds the test case handler.
func NewTestCaseHandler(service service.TestCaseService, logger zerolog.Logger) *TestCaseHandler {
	return &TestCaseHandler{
		service: service,
		logger:  logger.With().Str("component", "test_case_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *TestCaseHandler) Register(router fiber.Router) {
	router.Get("/:exerciseId/test-cases", h.list)
	router.Patch("/:exerciseId/test-cases/:testCaseId", h.update)
	router.Post("/:exerciseId/test-cases/freeze", h.freeze)
	router.Post("/:exerciseId/test-cases/rescore", h.rescore)
}

func (h *TestCaseHandler) list(c *fiber.Ctx) error {
	exerciseID, err := parseUintParam(c, "exerciseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	testCases, err := h.service.List(c.Context(), exerciseID)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "test cases retrieved", testCases)
}

func (h *TestCaseHandler) update(c *fiber.Ctx) error {
	exerciseID, err := parseUintParam(c, "exerciseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	testCaseID, err := parseUintParam(c, "testCaseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.TestCaseUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	testCase, err := h.service.Update(c.Context(), exerciseID, testCaseID, payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "test case updated", testCase)
}

func (h *TestCaseHandler) freeze(c *fiber.Ctx) error {
	exerciseID, err := parseUintParam(c, "exerciseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.FreezeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.service.SetFrozen(c.Context(), exerciseID, payload.Frozen); err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "test case registry updated", fiber.Map{"frozen": payload.Frozen})
}

func (h *TestCaseHandler) rescore(c *fiber.Ctx) error {
	exerciseID, err := parseUintParam(c, "exerciseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	updated, err := h.service.TriggerRescore(c.Context(), exerciseID)
	if err != nil {
		return h.handleError(c, err)
	}

	requestLogger(h.logger, c).Info().
		Uint("exercise_id", exerciseID).
		Int("updated", updated).
		Msg("rescore completed")
	return utils.SendSuccess(c, "rescore completed", fiber.Map{"updated_results": updated})
}

func (h *TestCaseHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrExerciseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "exercise not found")
	case errors.Is(err, service.ErrTestCaseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "test case not found")
	case errors.As(err, &validationErrs):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("test case operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "operation failed")
	}
}
