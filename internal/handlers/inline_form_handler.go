package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/tilopay-connector/internal/interfaces"
	"github.com/akylbek/payment-system/tilopay-connector/internal/repository"
	"github.com/akylbek/payment-system/tilopay-connector/internal/telemetry"
	"github.com/akylbek/payment-system/tilopay-connector/internal/tilopay"
)

// TokenSource issues Tilopay SDK tokens.
type TokenSource interface {
	Login(ctx context.Context) (string, error)
}

type InlineFormHandler struct {
	orders  interfaces.OrderStore
	store   interfaces.TransactionStore
	tokens  TokenSource
	baseURL string
	logger  *zap.Logger
}

func NewInlineFormHandler(orders interfaces.OrderStore, store interfaces.TransactionStore, tokens TokenSource, baseURL string, logger *zap.Logger) *InlineFormHandler {
	return &InlineFormHandler{orders: orders, store: store, tokens: tokens, baseURL: baseURL, logger: logger}
}

func (h *InlineFormHandler) GetInlineForm(c *gin.Context) {
	ctx := c.Request.Context()
	log := telemetry.Logger(ctx, h.logger)

	orderName := c.Query("order")
	reference := c.Query("reference")
	if orderName == "" || reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order and reference are required"})
		return
	}

	order, err := h.orders.GetByName(ctx, orderName)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No active sale order found"})
		return
	}
	if err != nil {
		log.Error("Failed to fetch order", zap.String("order", orderName), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		return
	}

	tx, err := h.store.GetByReference(ctx, reference)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment transaction not found"})
		return
	}
	if err != nil {
		log.Error("Failed to fetch transaction", zap.String("reference", reference), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payment transaction"})
		return
	}

	token, err := h.tokens.Login(ctx)
	var cerr *tilopay.ConfigurationError
	if errors.As(err, &cerr) {
		c.JSON(http.StatusBadGateway, gin.H{"error": cerr.Msg})
		return
	}
	if err != nil {
		log.Error("Failed to acquire Tilopay token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to acquire Tilopay token"})
		return
	}

	values, err := tilopay.BuildInlineFormValues(token, order, tx, h.baseURL)
	if err != nil {
		log.Error("Failed to build inline form", zap.String("reference", reference), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build inline form"})
		return
	}

	c.JSON(http.StatusOK, values)
}
