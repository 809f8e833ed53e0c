package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/afgc/registry/internal/model"
	"github.com/afgc/registry/internal/store"
)

const runListLimit = 50

// RunsHandler returns the recent publish run history from the archive
func RunsHandler(runStore *store.RunStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		runs, err := runStore.ListRuns(c.Context(), runListLimit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("Error loading runs")
		}
		if runs == nil {
			runs = []model.PublishRun{}
		}
		return c.JSON(runs)
	}
}
