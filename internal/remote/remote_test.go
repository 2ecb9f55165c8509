package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListInvoices_DecodesAndNormalizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/invoices", r.URL.Path)
		assert.Equal(t, "team-9", r.URL.Query().Get("team"))
		assert.Equal(t, "Bearer sekrit", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"invoices":[{
			"id":"r-1",
			"invoice_number":"INV-0001",
			"client":{"name":"ACME","email":"billing@acme.test","address":"1 Road"},
			"currency":"USD",
			"status":"sent"
		}]}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL, Token: "sekrit"})
	invoices, err := c.ListInvoices(context.Background(), "team-9")
	require.NoError(t, err)
	require.Len(t, invoices, 1)

	inv := invoices[0]
	assert.Equal(t, "r-1", inv.ID)
	assert.Equal(t, "ACME", inv.ToName, "client snapshot unfolds into to-fields")
	assert.Equal(t, "billing@acme.test", inv.ToEmail)
	assert.Equal(t, "1 Road", inv.ToAddress)
}

func TestCreateInvoice_ThreadsTeamScope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "team-9", body["team_id"])
		assert.Equal(t, "INV-0001", body["invoice_number"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"backend-1"}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	id, err := c.CreateInvoice(context.Background(),
		InvoicePayload{Number: "INV-0001"}, "team-9")
	require.NoError(t, err)
	assert.Equal(t, "backend-1", id)
}

func TestBatchCreateInvoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/invoices/batch", r.URL.Path)

		var body struct {
			Invoices []InvoicePayload `json:"invoices"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Len(t, body.Invoices, 2)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"count":2}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	count, err := c.BatchCreateInvoices(context.Background(), []InvoicePayload{
		{Number: "INV-0001"}, {Number: "INV-0002"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNextInvoiceNumber(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/invoices/next-number", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"invoice_number":"INV-0042"}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	got, err := c.NextInvoiceNumber(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "INV-0042", got)
}

func TestDo_ParsesErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":"not_team_member","message":"not a member of team-9"}}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	err := c.DeleteInvoice(context.Background(), "r-1")
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok, "backend rejection must surface as *APIError, got %T", err)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "not_team_member", apiErr.Code)
	assert.True(t, apiErr.IsAuthError())
	assert.False(t, apiErr.IsNotFound())
}

func TestDo_RawBodyErrorFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("no such invoice"))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	err := c.DeleteInvoice(context.Background(), "gone")
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.True(t, apiErr.IsNotFound())
	assert.Equal(t, "no such invoice", apiErr.Message)
}

func TestDo_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	_, err := c.ListInvoices(context.Background(), "")
	require.Error(t, err)

	_, ok := err.(*APIError)
	assert.False(t, ok, "transport failures are not backend rejections")
}
