package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hongminglow/approval-desk/internal/middleware"
	"github.com/hongminglow/approval-desk/internal/models"
	"github.com/hongminglow/approval-desk/internal/models/dto"
	"github.com/hongminglow/approval-desk/internal/storage"
	"github.com/hongminglow/approval-desk/internal/validation"
)

const (
	loginPath        = "/api/v1/auth/login"
	transactionsPath = "/api/v2/transactions"
	statsPath        = "/api/v2/transactions/stats"
)

// Client talks to the remote transaction service. Login goes through a
// public client; every other call carries the persisted bearer token.
type Client struct {
	baseURL        *url.URL
	public         *http.Client
	authed         *http.Client
	logger         *slog.Logger
	now            func() time.Time
	onUnauthorized func(token string)
	base           http.RoundTripper
	timeout        time.Duration
}

// Option customises a Client.
type Option func(*Client)

// WithTransport replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.base = rt }
}

// WithTimeout bounds every request. Zero leaves requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithUnauthorizedHandler registers the callback fired on any 401, with the
// token the rejected request carried.
func WithUnauthorizedHandler(fn func(token string)) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// WithClock overrides the clock used to fill missing timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New builds a client for baseURL that reads its bearer token from tokens.
func New(baseURL string, tokens storage.TokenStore, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL: parsed,
		logger:  slog.Default(),
		now:     time.Now,
		base:    http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(c)
	}

	logged := middleware.Logging(c.logger, c.base)
	c.public = &http.Client{Transport: logged, Timeout: c.timeout}
	c.authed = &http.Client{
		Transport: middleware.Unauthorized(c.onUnauthorized, middleware.Bearer(tokens, logged)),
		Timeout:   c.timeout,
	}
	return c, nil
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, username, password string) (dto.LoginResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(loginPath, nil), strings.NewReader(form.Encode()))
	if err != nil {
		return dto.LoginResponse{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out dto.LoginResponse
	if err := c.do(c.public, req, &out); err != nil {
		if isStatus(err) {
			return dto.LoginResponse{}, fmt.Errorf("%w: %w", ErrAuthentication, err)
		}
		return dto.LoginResponse{}, err
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return dto.LoginResponse{}, fmt.Errorf("%w: response carried no access token", ErrAuthentication)
	}
	return out, nil
}

// ListTransactions returns transactions in server order. An empty status
// lists every status visible to the caller.
func (c *Client) ListTransactions(ctx context.Context, status models.Status) ([]models.Transaction, error) {
	var query url.Values
	if status != "" {
		query = url.Values{"status": {string(status)}}
	}
	var wire []wireTransaction
	if err := c.send(ctx, http.MethodGet, c.endpoint(transactionsPath, query), nil, &wire); err != nil {
		return nil, err
	}
	now := c.now()
	out := make([]models.Transaction, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.normalize(now))
	}
	return out, nil
}

// GetTransaction fetches a single transaction. A missing id yields ErrNotFound.
func (c *Client) GetTransaction(ctx context.Context, id string) (models.Transaction, error) {
	return c.transaction(ctx, http.MethodGet, transactionPath(id), nil)
}

// CreateTransaction validates locally and, only if valid, creates a draft.
func (c *Client) CreateTransaction(ctx context.Context, req dto.CreateTransactionRequest) (models.Transaction, error) {
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	if err := validation.Struct(req); err != nil {
		return models.Transaction{}, err
	}
	body := struct {
		Amount   json.Number `json:"amount"`
		Currency string      `json:"currency"`
	}{Amount: json.Number(req.Amount.String()), Currency: req.Currency}
	return c.transaction(ctx, http.MethodPost, transactionsPath, body)
}

// Submit moves a draft to pending approval.
func (c *Client) Submit(ctx context.Context, id string) (models.Transaction, error) {
	return c.transaction(ctx, http.MethodPost, transactionPath(id)+"/submit", nil)
}

// Approve approves a pending transaction.
func (c *Client) Approve(ctx context.Context, id string) (models.Transaction, error) {
	return c.transaction(ctx, http.MethodPost, transactionPath(id)+"/approve", nil)
}

// Reject rejects a pending transaction.
func (c *Client) Reject(ctx context.Context, id string) (models.Transaction, error) {
	return c.transaction(ctx, http.MethodPost, transactionPath(id)+"/reject", nil)
}

// Execute executes an approved transaction.
func (c *Client) Execute(ctx context.Context, id string) (models.Transaction, error) {
	return c.transaction(ctx, http.MethodPost, transactionPath(id)+"/execute", nil)
}

// Stats returns per-status counts.
func (c *Client) Stats(ctx context.Context) (models.Stats, error) {
	var out models.Stats
	err := c.send(ctx, http.MethodGet, c.endpoint(statsPath, nil), nil, &out)
	return out, err
}

// PendingCount is the number of transactions awaiting approval.
func (c *Client) PendingCount(ctx context.Context) (int, error) {
	list, err := c.ListTransactions(ctx, models.PendingApproval)
	if err != nil {
		return 0, err
	}
	return len(list), nil
}

func (c *Client) transaction(ctx context.Context, method, path string, body any) (models.Transaction, error) {
	var w wireTransaction
	if err := c.send(ctx, method, c.endpoint(path, nil), body, &w); err != nil {
		return models.Transaction{}, err
	}
	return w.normalize(c.now()), nil
}

func (c *Client) send(ctx context.Context, method, target string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return c.do(c.authed, req, out)
}

func (c *Client) do(client *http.Client, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrTransport, req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", ErrTransport, req.URL.Path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			Method: req.Method,
			Path:   req.URL.Path,
			Code:   resp.StatusCode,
			Detail: parseDetail(data),
		}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrTransport, req.URL.Path, err)
	}
	return nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func transactionPath(id string) string {
	return transactionsPath + "/" + url.PathEscape(id)
}

func isStatus(err error) bool {
	_, ok := err.(*StatusError)
	return ok
}
