package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/praxis-lms/grading-api/internal/service"
	"github.com/praxis-lms/grading-api/internal/utils"
)

// StatisticsHandler serves course statistics and the tutor leaderboard.
type StatisticsHandler struct {
	statistics  service.StatisticsService
	leaderboard service.LeaderboardService
	logger      zerolog.Logger
}

// NewStatisticsHandler builds the statistics handler.
func NewStatisticsHandler(statistics service.StatisticsService, leaderboard service.LeaderboardService, logger zerolog.Logger) *StatisticsHandler {
	return &StatisticsHandler{
		statistics:  statistics,
		leaderboard: leaderboard,
		logger:      logger.With().Str("component", "statistics_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *StatisticsHandler) Register(router fiber.Router) {
	router.Get("/:courseId/statistics", h.courseStatistics)
	router.Get("/:courseId/leaderboard", h.leaderboardEntries)
}

func (h *StatisticsHandler) courseStatistics(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	statistics, err := h.statistics.GetCourseStatistics(c.Context(), courseID)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "course statistics retrieved", statistics)
}

func (h *StatisticsHandler) leaderboardEntries(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	entries, err := h.leaderboard.GetCourseLeaderboard(c.Context(), courseID)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "tutor leaderboard retrieved", entries)
}

func (h *StatisticsHandler) handleError(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrCourseNotFound) {
		return utils.SendError(c, fiber.StatusNotFound, "course not found")
	}
	requestLogger(h.logger, c).Error().Err(err).Msg("statistics aggregation failed")
	return utils.SendError(c, fiber.StatusInternalServerError, "failed to aggregate statistics")
}
