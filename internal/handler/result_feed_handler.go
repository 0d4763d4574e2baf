package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/praxis-lms/grading-api/internal/service"
	"github.com/praxis-lms/grading-api/internal/utils"
)

// ResultFeedHandler upgrades staff connections to the live result feed.
type ResultFeedHandler struct {
	feed   service.ResultFeedService
	logger zerolog.Logger
}

// NewResultFeedHandler builds the result feed handler.
func NewResultFeedHandler(feed service.ResultFeedService, logger zerolog.Logger) *ResultFeedHandler {
	return &ResultFeedHandler{
		feed:   feed,
		logger: logger.With().Str("component", "result_feed_handler").Logger(),
	}
}

// Register attaches the websocket route to the provided router group.
func (h *ResultFeedHandler) Register(router fiber.Router) {
	router.Get("/:exerciseId/results/feed", h.requireUpgrade, websocket.New(h.serve))
}

func (h *ResultFeedHandler) requireUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return utils.SendError(c, fiber.StatusUpgradeRequired, "websocket upgrade required")
	}

	exerciseID, err := parseUintParam(c, "exerciseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	c.Locals("exercise_id", exerciseID)
	return c.Next()
}

func (h *ResultFeedHandler) serve(conn *websocket.Conn) {
	exerciseID, ok := conn.Locals("exercise_id").(uint)
	if !ok {
		raw, _ := conn.Locals("exercise_id").(string)
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			_ = conn.Close()
			return
		}
		exerciseID = uint(parsed)
	}

	h.logger.Debug().Uint("exercise_id", exerciseID).Msg("feed connection opened")
	h.feed.ServeConnection(conn, exerciseID)
	h.logger.Debug().Uint("exercise_id", exerciseID).Msg("feed connection closed")
}
