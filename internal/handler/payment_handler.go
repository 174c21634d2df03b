package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/UMC-9th-project/myform-reform-BE-sub000/internal/service"
	"github.com/UMC-9th-project/myform-reform-BE-sub000/pkg/metrics"
)

type PaymentHandler struct {
	settlement    *service.SettlementService
	verifyTimeout time.Duration
	metrics       *metrics.Metrics
	logger        *zap.Logger
}

func NewPaymentHandler(settlement *service.SettlementService, verifyTimeout time.Duration, m *metrics.Metrics, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{settlement: settlement, verifyTimeout: verifyTimeout, metrics: m, logger: logger}
}

type verifyRequest struct {
	TransactionID string `json:"tx_id" binding:"required"`
	MerchantUID   string `json:"merchant_uid" binding:"required"`
}

// Verify reconciles the receipt against the provider record. The timeout
// covers the whole call including gateway retries; on expiry the client gets
// a retryable error instead of a guess.
func (h *PaymentHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format", "details": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.verifyTimeout)
	defer cancel()

	receipt, err := h.settlement.Verify(ctx, service.VerifyInput{
		TransactionID: req.TransactionID,
		MerchantUID:   req.MerchantUID,
	})
	h.metrics.VerifyTotal.WithLabelValues("client", outcomeOf(err)).Inc()
	if err != nil {
		h.logger.Warn("Payment verification failed",
			zap.String("merchant_uid", req.MerchantUID),
			zap.String("tx_id", req.TransactionID),
			zap.Error(err))
		if ctx.Err() != nil {
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "verification timed out, retry later"})
			return
		}
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, receipt)
}

type webhookRequest struct {
	TransactionID string `json:"tx_id"`
	MerchantUID   string `json:"merchant_uid"`
}

// Webhook never answers the provider with an error: a non-2xx would only
// trigger pointless redelivery. Failures are logged inside the settlement
// service and surface only in the verify counter.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	var req webhookRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.MerchantUID == "" {
		h.logger.Warn("Malformed webhook payload", zap.Error(err))
		h.metrics.VerifyTotal.WithLabelValues("webhook", "invalid_request").Inc()
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.verifyTimeout)
	defer cancel()

	err := h.settlement.HandleWebhook(ctx, service.VerifyInput{
		TransactionID: req.TransactionID,
		MerchantUID:   req.MerchantUID,
	})
	h.metrics.VerifyTotal.WithLabelValues("webhook", outcomeOf(err)).Inc()

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}
