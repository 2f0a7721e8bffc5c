// FILE: internal/controller/sweep_controller.go
package controller

import (
	"time"

	"vip-gatekeeper-be/internal/dto"
	"vip-gatekeeper-be/internal/pkg/serverutils"
	"vip-gatekeeper-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISweepController interface {
	RegisterRoutes(r fiber.Router)
	Run(ctx *fiber.Ctx) error
	Stats(ctx *fiber.Ctx) error
	Webhooks(ctx *fiber.Ctx) error
}

type sweepController struct {
	reconcile service.IReconcileService
	auth      fiber.Handler
}

func NewSweepController(reconcile service.IReconcileService, auth fiber.Handler) ISweepController {
	return &sweepController{reconcile: reconcile, auth: auth}
}

func (c *sweepController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/sweep")
	h.Post("/run", c.auth, c.Run)
	h.Get("/stats", c.auth, c.Stats)
	h.Get("/webhooks", c.auth, c.Webhooks)
}

// Run triggers one sweep pass on demand, same code path as the timer. Handy
// after an incident when waiting for the next tick is not acceptable.
func (c *sweepController) Run(ctx *fiber.Ctx) error {
	report, err := c.reconcile.RunSweep(ctx.Context(), time.Now().UTC())
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Sweep finished", dto.SweepResponse{
		Processed: report.Processed,
		Failed:    report.Failed,
	}))
}

func (c *sweepController) Stats(ctx *fiber.Ctx) error {
	stats, err := c.reconcile.Stats(ctx.Context())
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Subscription counts", stats))
}

// Webhooks lists the inbound notification audit trail so operators can
// review rejected signatures and uncorrelatable payloads.
func (c *sweepController) Webhooks(ctx *fiber.Ctx) error {
	limit := ctx.QueryInt("limit", 20)
	offset := ctx.QueryInt("offset", 0)

	rows, err := c.reconcile.RecentWebhookEvents(ctx.Context(), limit, offset)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}

	out := make([]dto.WebhookEventResponse, len(rows))
	for i, row := range rows {
		out[i] = dto.WebhookEventResponse{
			Provider:        row.Provider,
			ProviderEventId: row.ProviderEventID,
			EventType:       row.EventType,
			SignatureValid:  row.SignatureValid,
			ProcessedAt:     row.ProcessedAt,
			ProcessingError: row.ProcessingError,
			ReceivedAt:      row.CreatedAt,
		}
	}
	return ctx.JSON(serverutils.SuccessResponse("Webhook events", out))
}
