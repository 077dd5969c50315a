// Package tilopay talks to the Tilopay API and builds the values the
// checkout needs to render the inline payment form.
package tilopay

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/tilopay-connector/internal/metrics"
)

const (
	DefaultAPIURL = "https://app.tilopay.com/api/v1"
	loginTimeout  = 10 * time.Second
)

// ConfigurationError means the connector cannot talk to Tilopay with the
// configured credentials. It is shown to the shopper as a setup problem.
type ConfigurationError struct {
	Msg string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tilopay: %s: %v", e.Msg, e.Err)
	}
	return "tilopay: " + e.Msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

type Credentials struct {
	APIUser  string
	Password string
	Key      string
}

type loginRequest struct {
	APIUser  string `json:"apiuser"`
	Password string `json:"password"`
	Key      string `json:"key"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

type Client struct {
	http    *resty.Client
	creds   Credentials
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewClient(apiURL string, creds Credentials, m *metrics.Metrics, logger *zap.Logger) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(apiURL, "/")).
		SetTimeout(loginTimeout).
		SetHeader("Content-Type", "application/json")

	return &Client{http: httpClient, creds: creds, metrics: m, logger: logger}
}

// Login exchanges the API credentials for a short-lived SDK token.
func (c *Client) Login(ctx context.Context) (string, error) {
	var out loginResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(loginRequest{
			APIUser:  c.creds.APIUser,
			Password: c.creds.Password,
			Key:      c.creds.Key,
		}).
		SetResult(&out).
		Post("/loginSdk")
	if err != nil {
		c.logger.Error("Tilopay API request failed", zap.Error(err))
		c.metrics.TokenRequests.WithLabelValues("error").Inc()
		return "", &ConfigurationError{
			Msg: "failed to connect to Tilopay API, check the credentials and network connection",
			Err: err,
		}
	}
	if resp.IsError() {
		c.logger.Error("Tilopay API rejected login",
			zap.Int("status", resp.StatusCode()),
			zap.String("body", resp.String()),
		)
		c.metrics.TokenRequests.WithLabelValues("rejected").Inc()
		return "", &ConfigurationError{
			Msg: fmt.Sprintf("failed to connect to Tilopay API, status %d", resp.StatusCode()),
		}
	}
	if out.AccessToken == "" {
		c.logger.Error("Tilopay API response did not contain access token", zap.String("body", resp.String()))
		c.metrics.TokenRequests.WithLabelValues("no_token").Inc()
		return "", &ConfigurationError{Msg: "failed to retrieve access token from Tilopay"}
	}

	c.metrics.TokenRequests.WithLabelValues("ok").Inc()
	return out.AccessToken, nil
}
