// FILE: internal/controller/payment_controller.go
package controller

import (
	"time"

	"vip-gatekeeper-be/internal/dto"
	"vip-gatekeeper-be/internal/pkg/serverutils"
	"vip-gatekeeper-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IPaymentController interface {
	RegisterRoutes(r fiber.Router)
	Webhook(ctx *fiber.Ctx) error
	Checkout(ctx *fiber.Ctx) error
	GetStatus(ctx *fiber.Ctx) error
}

type paymentController struct {
	payments  service.IPaymentService
	reconcile service.IReconcileService
	auth      fiber.Handler
}

func NewPaymentController(payments service.IPaymentService, reconcile service.IReconcileService, auth fiber.Handler) IPaymentController {
	return &paymentController{payments: payments, reconcile: reconcile, auth: auth}
}

func (c *paymentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/payment")
	h.Post("/midtrans/notification", c.Webhook)

	// Protected routes
	h.Post("/checkout", c.auth, c.Checkout)
	h.Get("/status", c.auth, c.GetStatus)
}

// Webhook is the gateway-facing entry point. Status codes follow the
// contract Midtrans retries on: 2xx acknowledges, 401/400 tells it to stop
// resending a bad notification, 5xx asks for redelivery.
func (c *paymentController) Webhook(ctx *fiber.Ctx) error {
	var req dto.MidtransWebhookRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.SendStatus(fiber.StatusBadRequest)
	}

	outcome, err := c.reconcile.HandlePaymentNotification(ctx.Context(), &req, time.Now().UTC())
	if err != nil {
		// Transient downstream failure; Midtrans will retry.
		return ctx.SendStatus(fiber.StatusInternalServerError)
	}

	switch outcome {
	case service.NotificationRejectedSignature:
		return ctx.SendStatus(fiber.StatusUnauthorized)
	case service.NotificationRejectedMalformed:
		return ctx.SendStatus(fiber.StatusBadRequest)
	default:
		return ctx.SendStatus(fiber.StatusOK)
	}
}

func (c *paymentController) Checkout(ctx *fiber.Ctx) error {
	var req dto.CheckoutRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	userID, ok := ctx.Locals("user_id").(string)
	if !ok || userID == "" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "missing user identity"))
	}

	res, err := c.payments.Checkout(ctx.Context(), userID, &req)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Checkout created", res))
}

func (c *paymentController) GetStatus(ctx *fiber.Ctx) error {
	userID, ok := ctx.Locals("user_id").(string)
	if !ok || userID == "" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "missing user identity"))
	}

	res, err := c.payments.Status(ctx.Context(), userID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Subscription status", res))
}
