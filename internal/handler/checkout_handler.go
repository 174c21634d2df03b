package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/UMC-9th-project/myform-reform-BE-sub000/internal/domain"
	"github.com/UMC-9th-project/myform-reform-BE-sub000/internal/service"
	"github.com/UMC-9th-project/myform-reform-BE-sub000/pkg/metrics"
)

type CheckoutHandler struct {
	checkout *service.CheckoutService
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewCheckoutHandler(checkout *service.CheckoutService, m *metrics.Metrics, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, metrics: m, logger: logger}
}

// buyerID is filled in by the session middleware upstream; this service only
// consumes it.
func buyerID(c *gin.Context) (int64, bool) {
	if v := c.GetInt64("user_id"); v != 0 {
		return v, true
	}
	id, err := strconv.ParseInt(c.GetHeader("X-User-ID"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// GetOrderSheet returns the price preview and a freshly generated merchant
// uid. No state is created yet.
func (h *CheckoutHandler) GetOrderSheet(c *gin.Context) {
	itemID, err := strconv.ParseInt(c.Query("item_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item_id"})
		return
	}
	quantity, err := strconv.ParseInt(c.DefaultQuery("quantity", "1"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quantity"})
		return
	}
	optionIDs, err := parseIDList(c.Query("option_item_ids"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid option_item_ids"})
		return
	}

	sheet, err := h.checkout.Sheet(c.Request.Context(), itemID, optionIDs, int32(quantity))
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sheet)
}

func parseIDList(csv string) ([]int64, error) {
	if csv == "" {
		return nil, nil
	}
	parts := strings.Split(csv, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

type createOrderRequest struct {
	ItemID        int64             `json:"item_id" binding:"required"`
	OptionItemIDs []int64           `json:"option_item_ids"`
	Quantity      int32             `json:"quantity" binding:"required,min=1"`
	MerchantUID   string            `json:"merchant_uid" binding:"required"`
	Address       domain.AddressRef `json:"address"`
}

func (h *CheckoutHandler) CreateOrder(c *gin.Context) {
	buyer, ok := buyerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}

	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format", "details": err.Error()})
		return
	}

	requestID := c.GetString("request_id")
	result, err := h.checkout.Checkout(c.Request.Context(), service.CheckoutInput{
		BuyerID:       buyer,
		ItemID:        req.ItemID,
		OptionItemIDs: req.OptionItemIDs,
		Quantity:      req.Quantity,
		MerchantUID:   req.MerchantUID,
		Address:       req.Address,
	}, requestID)
	h.metrics.CheckoutTotal.WithLabelValues("single", outcomeOf(err)).Inc()
	if err != nil {
		h.logger.Error("Checkout failed",
			zap.String("request_id", requestID),
			zap.String("merchant_uid", req.MerchantUID),
			zap.Error(err))
		c.JSON(statusOf(err), gin.H{"error": err.Error(), "request_id": requestID})
		return
	}

	c.JSON(http.StatusCreated, result)
}

type cartOrderRequest struct {
	MerchantUID string            `json:"merchant_uid" binding:"required"`
	Address     domain.AddressRef `json:"address"`
}

func (h *CheckoutHandler) CreateCartOrder(c *gin.Context) {
	buyer, ok := buyerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}

	var req cartOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format", "details": err.Error()})
		return
	}

	requestID := c.GetString("request_id")
	result, err := h.checkout.CheckoutCart(c.Request.Context(), service.CartCheckoutInput{
		BuyerID:     buyer,
		MerchantUID: req.MerchantUID,
		Address:     req.Address,
	}, requestID)
	h.metrics.CheckoutTotal.WithLabelValues("cart", outcomeOf(err)).Inc()
	if err != nil {
		h.logger.Error("Cart checkout failed",
			zap.String("request_id", requestID),
			zap.String("merchant_uid", req.MerchantUID),
			zap.Error(err))
		c.JSON(statusOf(err), gin.H{"error": err.Error(), "request_id": requestID})
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *CheckoutHandler) GetOrder(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	order, err := h.checkout.GetOrder(c.Request.Context(), id)
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, order)
}
