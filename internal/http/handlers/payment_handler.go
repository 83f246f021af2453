package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GariBroman/osminog/internal/service"
)

// PaymentHandler принимает уведомления платёжного провайдера.
type PaymentHandler struct {
	payments *service.PaymentService
}

func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// webhookRequest — конверт уведомления провайдера. Токен покупки лежит
// в метаданных платежа, провайдер возвращает его как принял.
type webhookRequest struct {
	Event  string `json:"event" binding:"required"`
	Object struct {
		ID       string `json:"id"`
		Status   string `json:"status"`
		Metadata struct {
			Token string `json:"token"`
		} `json:"metadata"`
	} `json:"object" binding:"required"`
}

// Webhook POST /payment/webhook
// Подписка создаётся только по событию успешной оплаты. Повторная
// доставка того же события завершится ошибкой: токен уже погашен.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	var req webhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный формат уведомления"})
		return
	}

	if req.Event != "payment.succeeded" || req.Object.Status != "succeeded" {
		// Прочие события подтверждаем, но не обрабатываем.
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	token := req.Object.Metadata.Token
	if token == "" {
		token = req.Object.ID
	}

	if _, err := h.payments.ConfirmPurchase(c.Request.Context(), token); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
