// Package remote is the HTTP client for the cloud invoice backend.
//
// The backend owns the authoritative multi-tenant copy of invoices and
// enforces ownership/team-role checks on its side. This package speaks
// the request/response contract only: backend rejections come back as
// *APIError and are propagated to callers verbatim, never translated
// or retried here.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/roach88/billfold/internal/model"
)

// ClientConfig configures the backend client.
type ClientConfig struct {
	BaseURL string
	Token   string        // bearer token
	Timeout time.Duration // default: 30 seconds
}

// Client is the cloud backend API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient creates a backend client.
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    config.BaseURL,
		token:      config.Token,
	}
}

// APIError is a rejection from the backend, carried through to callers
// unchanged. Authorization failures and not-found both arrive here.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("backend %d: %s", e.StatusCode, e.Message)
}

// IsAuthError reports whether the backend rejected the operation for
// ownership or team-role reasons.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsNotFound reports whether the target record does not exist in the
// caller's scope.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// ListInvoices returns the invoices visible to the caller, optionally
// scoped to a team.
func (c *Client) ListInvoices(ctx context.Context, teamID string) ([]model.Invoice, error) {
	endpoint := c.baseURL + "/api/v1/invoices"
	if teamID != "" {
		endpoint += "?team=" + url.QueryEscape(teamID)
	}

	var out struct {
		Invoices []wireInvoice `json:"invoices"`
	}
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}

	invoices := make([]model.Invoice, len(out.Invoices))
	for i, w := range out.Invoices {
		invoices[i] = w.toModel()
	}
	return invoices, nil
}

// CreateInvoice creates an invoice and returns the backend-assigned
// identifier. The team scope, when non-empty, places the record in
// that team's partition.
func (c *Client) CreateInvoice(ctx context.Context, payload InvoicePayload, teamID string) (string, error) {
	body := createRequest{InvoicePayload: payload, TeamID: teamID}

	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/api/v1/invoices", body, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// UpdateInvoice overwrites the invoice with the given id.
func (c *Client) UpdateInvoice(ctx context.Context, id string, payload InvoicePayload) error {
	endpoint := c.baseURL + "/api/v1/invoices/" + url.PathEscape(id)
	return c.do(ctx, http.MethodPut, endpoint, payload, nil)
}

// DeleteInvoice removes the invoice with the given id.
func (c *Client) DeleteInvoice(ctx context.Context, id string) error {
	endpoint := c.baseURL + "/api/v1/invoices/" + url.PathEscape(id)
	return c.do(ctx, http.MethodDelete, endpoint, nil, nil)
}

// BatchCreateInvoices creates every payload in one call and returns
// the number of records the backend accepted. Used by the one-time
// local-to-cloud handoff.
func (c *Client) BatchCreateInvoices(ctx context.Context, payloads []InvoicePayload) (int, error) {
	body := struct {
		Invoices []InvoicePayload `json:"invoices"`
	}{Invoices: payloads}

	var out struct {
		Count int `json:"count"`
	}
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/api/v1/invoices/batch", body, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// NextInvoiceNumber returns the server-computed next free number. Same
// format and heuristic as the local store's: max existing digit-only
// number plus one, zero-padded, INV- prefixed.
func (c *Client) NextInvoiceNumber(ctx context.Context, teamID string) (string, error) {
	endpoint := c.baseURL + "/api/v1/invoices/next-number"
	if teamID != "" {
		endpoint += "?team=" + url.QueryEscape(teamID)
	}

	var out struct {
		Number string `json:"invoice_number"`
	}
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return "", err
	}
	return out.Number, nil
}

type createRequest struct {
	InvoicePayload
	TeamID string `json:"team_id,omitempty"`
}

// do runs one request/response cycle: encode the body, set auth,
// decode either the expected payload or the error envelope.
func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.parseError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// parseError decodes the backend's error envelope, falling back to the
// raw body when the envelope itself does not parse.
func (c *Client) parseError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		apiErr.Message = resp.Status
		return apiErr
	}

	var envelope struct {
		Error APIError `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
		return apiErr
	}

	apiErr.Message = string(raw)
	if apiErr.Message == "" {
		apiErr.Message = resp.Status
	}
	return apiErr
}
