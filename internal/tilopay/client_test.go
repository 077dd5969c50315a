package tilopay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/tilopay-connector/internal/metrics"
)

var testCreds = Credentials{APIUser: "api-user", Password: "secret", Key: "key-123"}

func newLoginServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/loginSdk", r.URL.Path)

		var req map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, map[string]string{"apiuser": "api-user", "password": "secret", "key": "key-123"}, req)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Login(t *testing.T) {
	srv := newLoginServer(t, http.StatusOK, `{"access_token": "tok-abc", "expires_in": 86400}`)
	m := metrics.NewNop()
	c := NewClient(srv.URL+"/api/v1/", testCreds, m, zap.NewNop())

	token, err := c.Login(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "tok-abc", token)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TokenRequests.WithLabelValues("ok")))
}

func TestClient_LoginFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		result string
	}{
		{name: "rejected credentials", status: http.StatusUnauthorized, body: `{"message": "Unauthorized"}`, result: "rejected"},
		{name: "server error", status: http.StatusInternalServerError, body: `oops`, result: "rejected"},
		{name: "no token in response", status: http.StatusOK, body: `{"message": "ok"}`, result: "no_token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newLoginServer(t, tt.status, tt.body)
			m := metrics.NewNop()
			c := NewClient(srv.URL+"/api/v1", testCreds, m, zap.NewNop())

			token, err := c.Login(context.Background())

			assert.Empty(t, token)
			var cerr *ConfigurationError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, 1.0, testutil.ToFloat64(m.TokenRequests.WithLabelValues(tt.result)))
		})
	}
}

func TestClient_LoginUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	c := NewClient(url, testCreds, metrics.NewNop(), zap.NewNop())

	_, err := c.Login(context.Background())

	var cerr *ConfigurationError
	require.ErrorAs(t, err, &cerr)
	assert.NotNil(t, cerr.Unwrap())
}
