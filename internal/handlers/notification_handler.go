package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/tilopay-connector/internal/service"
	"github.com/akylbek/payment-system/tilopay-connector/internal/telemetry"
)

// NotificationProcessor consumes one decoded provider callback.
type NotificationProcessor interface {
	Handle(ctx context.Context, raw map[string]string) error
}

// NotificationHandler receives the shopper's redirect back from Tilopay.
type NotificationHandler struct {
	processor  NotificationProcessor
	statusPath string
	logger     *zap.Logger
}

func NewNotificationHandler(processor NotificationProcessor, statusPath string, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{processor: processor, statusPath: statusPath, logger: logger}
}

// HandleReturn always redirects to the status page. The shopper is never
// shown a processing error; failures only reach logs and metrics.
func (h *NotificationHandler) HandleReturn(c *gin.Context) {
	ctx := c.Request.Context()
	log := telemetry.Logger(ctx, h.logger)

	raw := map[string]string{}
	if err := c.Request.ParseForm(); err != nil {
		log.Warn("Failed to parse callback form", zap.Error(err))
	}
	for key, values := range c.Request.Form {
		if len(values) > 0 {
			raw[key] = values[0]
		}
	}

	err := h.processor.Handle(ctx, raw)
	var verr *service.ValidationError
	switch {
	case err == nil:
	case errors.Is(err, service.ErrNoData):
		log.Info("Tilopay callback without data")
	case errors.As(err, &verr), errors.Is(err, service.ErrInFlight):
		log.Warn("Tilopay callback ignored", zap.Error(err))
	default:
		log.Error("Tilopay callback processing failed", zap.Error(err))
	}

	c.Redirect(http.StatusSeeOther, h.statusPath)
}
