// Package api is the request layer over the backing user service.
// Every failure is normalized into a *domain.APIError.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/duynhne/user-console/internal/core/domain"
	"github.com/duynhne/user-console/middleware"
)

// DefaultBaseURL is the public mock service the console talks to.
const DefaultBaseURL = "https://jsonplaceholder.typicode.com"

// RequestOptions configures one call. Zero value is a GET without body.
type RequestOptions struct {
	Method  string
	Body    any
	Headers map[string]string
}

// Client issues JSON requests against one base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client. A nil httpClient falls back to one without a
// timeout; calls run until the backing service answers or fails.
func NewClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// Do sends the request and decodes a successful JSON body into out.
// A nil out discards the body.
func (c *Client) Do(ctx context.Context, endpoint string, opts RequestOptions, out any) error {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if opts.Body != nil {
		payload, err := json.Marshal(opts.Body)
		if err != nil {
			return domain.NewNetworkError(fmt.Errorf("encode request body: %w", err))
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return domain.NewNetworkError(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Backend request failed",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		return domain.NewNetworkError(fmt.Errorf("%s %s: %w", method, endpoint, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.logger.Warn("Backend returned error status",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
		)
		return domain.NewHTTPError(resp.StatusCode)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Warn("Backend response could not be decoded",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		return domain.NewNetworkError(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// ListUsers fetches every user
func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := c.call(ctx, "list", "/users", RequestOptions{}, &users)
	if err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser fetches one user by id
func (c *Client) GetUser(ctx context.Context, id int) (*domain.User, error) {
	var user domain.User
	err := c.call(ctx, "get", fmt.Sprintf("/users/%d", id), RequestOptions{}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser posts the draft. The echoed id is not durable on the mock service.
func (c *Client) CreateUser(ctx context.Context, draft domain.Draft) (*domain.User, error) {
	var user domain.User
	err := c.call(ctx, "create", "/users", RequestOptions{
		Method: http.MethodPost,
		Body:   draft,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser puts the draft merged with the id
func (c *Client) UpdateUser(ctx context.Context, id int, draft domain.Draft) (*domain.User, error) {
	var user domain.User
	err := c.call(ctx, "update", fmt.Sprintf("/users/%d", id), RequestOptions{
		Method: http.MethodPut,
		Body:   domain.UpdateUserRequest{ID: id, Draft: draft},
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser deletes a user; the response body is ignored
func (c *Client) DeleteUser(ctx context.Context, id int) error {
	return c.call(ctx, "delete", fmt.Sprintf("/users/%d", id), RequestOptions{
		Method: http.MethodDelete,
	}, nil)
}

// call wraps Do with a span and backend metrics.
func (c *Client) call(ctx context.Context, operation, endpoint string, opts RequestOptions, out any) error {
	ctx, span := middleware.StartSpan(ctx, "backend."+operation, trace.WithAttributes(
		attribute.String("layer", "api"),
		attribute.String("backend.endpoint", endpoint),
	))
	defer span.End()

	start := time.Now()
	err := c.Do(ctx, endpoint, opts, out)
	middleware.ObserveBackendRequest(operation, outcomeOf(err), time.Since(start))

	if err != nil {
		span.RecordError(err)
		if status := domain.StatusOf(err); status != 0 {
			span.SetAttributes(attribute.Int("http.status_code", status))
		}
		return err
	}
	return nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case domain.StatusOf(err) != 0:
		return "http_error"
	default:
		return "network_error"
	}
}

var _ domain.UserAPI = (*Client)(nil)
