package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/tilopay-connector/internal/interfaces"
	"github.com/akylbek/payment-system/tilopay-connector/internal/repository"
	"github.com/akylbek/payment-system/tilopay-connector/internal/telemetry"
)

type PaymentStateHandler struct {
	store  interfaces.TransactionStore
	logger *zap.Logger
}

func NewPaymentStateHandler(store interfaces.TransactionStore, logger *zap.Logger) *PaymentStateHandler {
	return &PaymentStateHandler{store: store, logger: logger}
}

func (h *PaymentStateHandler) GetPaymentState(c *gin.Context) {
	reference := c.Param("reference")

	tx, err := h.store.GetByReference(c.Request.Context(), reference)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment transaction not found"})
		return
	}

	if err != nil {
		telemetry.Logger(c.Request.Context(), h.logger).Error("Failed to fetch payment state",
			zap.String("reference", reference),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payment state"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reference":          tx.Reference,
		"provider_code":      tx.ProviderCode,
		"state":              tx.State,
		"previous_state":     tx.PreviousState,
		"state_message":      tx.StateMessage,
		"provider_reference": tx.ProviderReference,
		"amount":             tx.Amount.StringFixed(2),
		"currency":           tx.Currency.Name,
		"created_at":         tx.CreatedAt,
		"updated_at":         tx.UpdatedAt,
	})
}
