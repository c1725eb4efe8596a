package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	job "github.com/maheshrc27/autopost/internal/jobs"
	"github.com/maheshrc27/autopost/internal/models"
	"github.com/maheshrc27/autopost/internal/transfer"
)

type Scheduler interface {
	Start() bool
	Stop() bool
	Running() bool
	RunOnce(ctx context.Context, platform models.Platform) (*transfer.PassResult, error)
	RunAll(ctx context.Context) ([]*transfer.PassResult, error)
	Status() transfer.SchedulerStatus
}

type SchedulerHandler struct {
	s Scheduler
}

func NewSchedulerHandler(s Scheduler) *SchedulerHandler {
	return &SchedulerHandler{s: s}
}

// Run triggers a pass outside the timers, for one platform or all of them.
func (h *SchedulerHandler) Run(c *fiber.Ctx) error {
	platform, err := GetPlatform(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	slog.Info("manual pass requested", "platform", platform, "operator", GetOperator(c))

	var results []*transfer.PassResult
	if platform == "" {
		results, err = h.s.RunAll(c.UserContext())
	} else {
		var result *transfer.PassResult
		result, err = h.s.RunOnce(c.UserContext(), platform)
		if result != nil {
			results = append(results, result)
		}
	}

	if errors.Is(err, job.ErrUnknownPlatform) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   err.Error(),
			"results": results,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"results": results,
	})
}

func (h *SchedulerHandler) Start(c *fiber.Ctx) error {
	started := h.s.Start()
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"started": started,
		"running": h.s.Running(),
	})
}

func (h *SchedulerHandler) Stop(c *fiber.Ctx) error {
	stopped := h.s.Stop()
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"stopped": stopped,
		"running": h.s.Running(),
	})
}

func (h *SchedulerHandler) Status(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(h.s.Status())
}

func Health(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "ok",
	})
}
