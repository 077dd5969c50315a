package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/tilopay-connector/internal/handlers"
	"github.com/akylbek/payment-system/tilopay-connector/internal/telemetry"
)

const serviceName = "tilopay-connector"

type Handlers struct {
	Notification *handlers.NotificationHandler
	PaymentState *handlers.PaymentStateHandler
	InlineForm   *handlers.InlineFormHandler
}

func NewRouter(h Handlers, gatherer prometheus.Gatherer, tracer trace.Tracer, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(telemetry.TracingMiddleware(tracer, logger))

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": serviceName})
	})

	// Provider callback
	r.GET("/payment/tilopay", h.Notification.HandleReturn)
	r.POST("/payment/tilopay", h.Notification.HandleReturn)
	r.GET("/payment/tilopay/inline-form", h.InlineForm.GetInlineForm)

	r.GET("/payments/:reference/state", h.PaymentState.GetPaymentState)

	return r
}
