package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"syscall"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLogger_FallbackWithoutContext(t *testing.T) {
	base := zap.NewNop()
	assert.Same(t, base, Logger(context.Background(), base))
}

func TestLogger_StoredInContext(t *testing.T) {
	base := zap.NewNop()
	scoped := base.With(zap.String("reference", "TX-1"))
	ctx := WithLogger(context.Background(), scoped)
	assert.Same(t, scoped, Logger(ctx, base))
}

func TestTracingMiddleware_SetsTraceHeaderAndLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tracer := sdktrace.NewTracerProvider().Tracer("test")
	base := zap.NewNop()

	var fromCtx *zap.Logger
	r := gin.New()
	r.Use(TracingMiddleware(tracer, base))
	r.GET("/ping", func(c *gin.Context) {
		fromCtx = Logger(c.Request.Context(), nil)
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
	require.NotNil(t, fromCtx)
	assert.NotSame(t, base, fromCtx)
}

func TestInit_WithoutExporter(t *testing.T) {
	tel, err := Init(context.Background(), "tilopay-connector-test", "")
	require.NoError(t, err)
	require.NotNil(t, tel.Tracer)
	require.NoError(t, tel.Shutdown(context.Background()))
}

type syncSink struct {
	err error
}

func (s syncSink) Write(p []byte) (int, error) { return len(p), nil }
func (s syncSink) Sync() error                 { return s.err }

func newSinkLogger(err error) *zap.Logger {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		syncSink{err: err},
		zapcore.InfoLevel,
	)
	return zap.New(core)
}

func TestShutdown_LoggerSync(t *testing.T) {
	tests := []struct {
		name    string
		syncErr error
		wantErr bool
	}{
		{"clean", nil, false},
		{"console stream", syscall.EINVAL, false},
		{"terminal", syscall.ENOTTY, false},
		{"disk failure", errors.New("input/output error"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tel := &Telemetry{Logger: newSinkLogger(tt.syncErr)}

			err := tel.Shutdown(context.Background())

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "input/output error")
				return
			}
			assert.NoError(t, err)
		})
	}
}
