package controllers

import (
	"io"
	"net/http"

	"mealflow/pkg/resp"
	"mealflow/services"

	"github.com/gin-gonic/gin"
)

type PaymentController struct {
	Payments *services.PaymentService
}

func NewPaymentController(payments *services.PaymentService) *PaymentController {
	return &PaymentController{Payments: payments}
}

type createCheckoutReq struct {
	OrderID uint `json:"orderId" binding:"required"`
}

// POST /api/payment/create-checkout-session
func (ctl *PaymentController) CreateCheckoutSession(c *gin.Context) {
	var req createCheckoutReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}

	session, err := ctl.Payments.CreateCheckout(c.Request.Context(), req.OrderID)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, session)
}

type confirmReq struct {
	SessionID string `json:"session_id" binding:"required"`
}

// POST /api/payment/confirm
func (ctl *PaymentController) Confirm(c *gin.Context) {
	var req confirmReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}

	result, err := ctl.Payments.ConfirmSession(c.Request.Context(), req.SessionID)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, result)
}

type confirmByOrderReq struct {
	OrderID uint `json:"orderId" binding:"required"`
}

// POST /api/payment/confirm-by-order
func (ctl *PaymentController) ConfirmByOrder(c *gin.Context) {
	var req confirmByOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}

	result, err := ctl.Payments.ConfirmByOrder(c.Request.Context(), req.OrderID)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, result)
}

// POST /api/payment/reconcile-pending
func (ctl *PaymentController) ReconcilePending(c *gin.Context) {
	results, err := ctl.Payments.ReconcilePending(c.Request.Context())
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, gin.H{"results": results})
}

// POST /api/payment/stripe-webhook: raw body, signature checked by the
// gateway when a signing secret is configured.
func (ctl *PaymentController) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		resp.BadRequest(c, "unreadable payload")
		return
	}

	if err := ctl.Payments.HandleWebhook(payload, c.GetHeader("Stripe-Signature")); err != nil {
		resp.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
