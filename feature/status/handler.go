package status

import (
	"disc3d-batch/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for scan status.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the status routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/scans")
	group.Get("/", h.HandleList)
	group.Get("/:name", h.HandleDetail)
}

// HandleList returns the checkpointed stage of every scan.
func (h *Handler) HandleList(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	scans, err := h.service.List()
	if err != nil {
		l.Error("Failed to list scans", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	counts := map[string]int{}
	for _, s := range scans {
		counts[s.Stage]++
	}
	return c.JSON(fiber.Map{
		"total":  len(scans),
		"stages": counts,
		"scans":  scans,
	})
}

// HandleDetail returns the full checkpoint of one scan.
func (h *Handler) HandleDetail(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	name := c.Params("name")

	detail, err := h.service.Detail(c.Context(), name)
	if err != nil {
		l.Warn("Scan status unavailable", zap.String("scan", name), zap.Error(err))
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(detail)
}
