package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"tenantpay/internal/auth"
	"tenantpay/internal/models"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
)

// Client is the rental backend REST API as seen by the payment flow
type Client interface {
	CheckAuth(ctx context.Context) error
	InitiatePayment(ctx context.Context, req *models.InitiatePaymentRequest) (*models.InitiatePaymentResponse, error)
	VerifyStatus(ctx context.Context, merchantOrderID string) (models.PaymentState, error)
}

// Error carries the backend's message so callers can classify failures
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend error: status %d", e.StatusCode)
}

type client struct {
	baseURL    string
	httpClient *http.Client
	tokens     auth.TokenSource
	cb         *gobreaker.CircuitBreaker
}

func NewClient(baseURL string, timeout time.Duration, tokens auth.TokenSource) Client {
	settings := gobreaker.Settings{
		Name:        "RentalBackend",
		MaxRequests: 10,
		Interval:    2 * time.Second,
		Timeout:     4 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 10
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit Breaker '%s' changed state from '%s' to '%s'", name, from, to)
		},
	}

	return &client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		tokens: tokens,
		cb:     gobreaker.NewCircuitBreaker(settings),
	}
}

func (c *client) CheckAuth(ctx context.Context) error {
	body, err := c.do(ctx, "GET", "/api/auth/verify", nil)
	if err != nil {
		return err
	}

	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error,omitempty"`
	}
	if err := sonic.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("failed to decode auth response: %w", err)
	}
	if !resp.Success {
		return &Error{StatusCode: http.StatusUnauthorized, Message: resp.Error}
	}
	return nil
}

func (c *client) InitiatePayment(ctx context.Context, req *models.InitiatePaymentRequest) (*models.InitiatePaymentResponse, error) {
	payload, err := sonic.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode initiation request: %w", err)
	}

	body, err := c.do(ctx, "POST", "/api/payments/initiate", payload)
	if err != nil {
		return nil, err
	}

	var resp models.InitiatePaymentResponse
	if err := sonic.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode initiation response: %w", err)
	}
	if !resp.Success {
		return nil, &Error{StatusCode: http.StatusOK, Message: resp.Error}
	}
	return &resp, nil
}

func (c *client) VerifyStatus(ctx context.Context, merchantOrderID string) (models.PaymentState, error) {
	body, err := c.do(ctx, "GET", "/api/payments/"+merchantOrderID+"/status", nil)
	if err != nil {
		return "", err
	}

	var resp models.VerifyStatusResponse
	if err := sonic.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode status response: %w", err)
	}
	if !resp.Success {
		return "", &Error{StatusCode: http.StatusOK, Message: resp.Error}
	}
	return resp.State, nil
}

// do performs one backend round-trip through the circuit breaker and
// returns the response body. Non-2xx statuses become *Error with the
// backend's message when one is present.
func (c *client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	result, err := c.cb.Execute(func() (interface{}, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewBuffer(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Request-ID", uuid.New().String())

		if tok, err := c.tokens.Token(); err == nil {
			req.Header.Set("Authorization", "Bearer "+tok)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode >= 300 {
			apiErr := &Error{StatusCode: resp.StatusCode}
			var errBody struct {
				Error string `json:"error"`
			}
			if sonic.Unmarshal(body, &errBody) == nil {
				apiErr.Message = errBody.Error
			}
			return nil, apiErr
		}

		return body, nil
	})

	if err != nil {
		if err == gobreaker.ErrOpenState {
			return nil, fmt.Errorf("backend circuit breaker is open: %w", err)
		}
		return nil, err
	}

	return result.([]byte), nil
}
