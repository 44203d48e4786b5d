// Package backoffice talks to the restaurant's remote back office over
// JSON/HTTP. It serves the catalog and records transactions.
package backoffice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kiwari-pos/tablepos/internal/auth"
	"github.com/kiwari-pos/tablepos/internal/catalog"
	"github.com/kiwari-pos/tablepos/internal/checkout"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const serviceSubject = "tablepos"

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

var ErrUnavailable = errors.New("back office unavailable")

// Client is the back-office API client. Every call carries a short-lived
// service JWT and goes through a circuit breaker; nothing is retried.
type Client struct {
	baseURL string
	secret  string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[[]byte]
	logger  *zap.Logger
}

// New creates a Client for baseURL.
func New(baseURL, secret string, timeout time.Duration, logger *zap.Logger) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
	c.cb = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "backoffice",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Business rejections mean the back office is healthy.
		IsSuccessful: func(err error) bool {
			var re *checkout.RemoteError
			if errors.As(err, &re) {
				return re.StatusCode < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return c
}

type menuItemResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

// ListMenuItems fetches the menu of a restaurant.
func (c *Client) ListMenuItems(ctx context.Context, restaurantID uuid.UUID) ([]catalog.MenuItem, error) {
	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/restaurants/%s/menu-items", restaurantID), nil)
	if err != nil {
		return nil, err
	}
	var rows []menuItemResponse
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode menu items: %w", err)
	}
	out := make([]catalog.MenuItem, 0, len(rows))
	for _, r := range rows {
		price, err := parseMoney(r.Price)
		if err != nil {
			return nil, fmt.Errorf("menu item %s: %w", r.ID, err)
		}
		out = append(out, catalog.MenuItem{ID: r.ID, Name: r.Name, Price: price})
	}
	return out, nil
}

// ListCustomers fetches the customers of a restaurant.
func (c *Client) ListCustomers(ctx context.Context, restaurantID uuid.UUID) ([]catalog.Customer, error) {
	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/restaurants/%s/customers", restaurantID), nil)
	if err != nil {
		return nil, err
	}
	var out []catalog.Customer
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode customers: %w", err)
	}
	return out, nil
}

// SubmitTransaction posts a finalized transaction. Non-2xx responses come
// back as *checkout.RemoteError carrying the server's message.
func (c *Client) SubmitTransaction(ctx context.Context, tx checkout.Transaction) (checkout.Ack, error) {
	payload, err := json.Marshal(toTransactionRequest(tx))
	if err != nil {
		return checkout.Ack{}, fmt.Errorf("encode transaction: %w", err)
	}
	body, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/restaurants/%s/transactions", tx.RestaurantID), payload)
	if err != nil {
		return checkout.Ack{}, err
	}
	var ack checkout.Ack
	if err := json.Unmarshal(body, &ack); err != nil {
		return checkout.Ack{}, fmt.Errorf("decode transaction ack: %w", err)
	}
	return ack, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, method, path, payload)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return body, err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	token, err := auth.GenerateServiceToken(c.secret, serviceSubject)
	if err != nil {
		return nil, fmt.Errorf("sign service token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("back office call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &e)
		return nil, &checkout.RemoteError{StatusCode: resp.StatusCode, Message: e.Error}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}
