package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iho/partyledger/internal/adapter/http/dto"
	"github.com/iho/partyledger/internal/adapter/http/middleware"
)

// apiClient talks to the partyledger HTTP API.
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(baseURL, token string, timeout time.Duration) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// apiError is a non-2xx answer from the server.
type apiError struct {
	Status int
	Body   dto.ErrorResponse
}

func (e *apiError) Error() string {
	msg := fmt.Sprintf("server returned %d: %s", e.Status, e.Body.Error)
	if e.Body.Message != "" {
		msg += ": " + e.Body.Message
	}
	return msg
}

// do sends body as JSON and decodes the response into out when out is not nil.
func (c *apiClient) do(ctx context.Context, method, path string, query url.Values, body any, headers map[string]string, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &apiError{Status: resp.StatusCode}
		if json.Unmarshal(raw, &apiErr.Body) != nil || apiErr.Body.Error == "" {
			apiErr.Body.Error = strings.TrimSpace(string(raw))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (c *apiClient) ListParties(ctx context.Context, query url.Values) (*dto.ListPartiesResponse, error) {
	var out dto.ListPartiesResponse
	return &out, c.do(ctx, http.MethodGet, "/api/v1/parties/", query, nil, nil, &out)
}

func (c *apiClient) CreateParty(ctx context.Context, req dto.CreatePartyRequest) (*dto.PartyResponse, error) {
	var out dto.PartyResponse
	return &out, c.do(ctx, http.MethodPost, "/api/v1/parties/", nil, req, nil, &out)
}

func (c *apiClient) GetParty(ctx context.Context, partyID string) (*dto.PartyResponse, error) {
	var out dto.PartyResponse
	return &out, c.do(ctx, http.MethodGet, "/api/v1/parties/"+url.PathEscape(partyID), nil, nil, nil, &out)
}

func (c *apiClient) ListStats(ctx context.Context, query url.Values) (*dto.ListStatsResponse, error) {
	var out dto.ListStatsResponse
	return &out, c.do(ctx, http.MethodGet, "/api/v1/parties/stats", query, nil, nil, &out)
}

func (c *apiClient) Ledger(ctx context.Context, partyID string, query url.Values) (*dto.LedgerResponse, error) {
	var out dto.LedgerResponse
	return &out, c.do(ctx, http.MethodGet, "/api/v1/parties/"+url.PathEscape(partyID)+"/ledger", query, nil, nil, &out)
}

func (c *apiClient) RecordPayment(ctx context.Context, partyID string, req dto.RecordPaymentRequest, key string) (*dto.MutationResponse, error) {
	var out dto.MutationResponse
	headers := map[string]string{middleware.IdempotencyKeyHeader: key}
	return &out, c.do(ctx, http.MethodPost, "/api/v1/parties/"+url.PathEscape(partyID)+"/payments", nil, req, headers, &out)
}

func (c *apiClient) AddTransaction(ctx context.Context, partyID string, req dto.AddTransactionRequest, key string) (*dto.MutationResponse, error) {
	var out dto.MutationResponse
	headers := map[string]string{middleware.IdempotencyKeyHeader: key}
	return &out, c.do(ctx, http.MethodPost, "/api/v1/parties/"+url.PathEscape(partyID)+"/transactions", nil, req, headers, &out)
}

func (c *apiClient) DeleteTransaction(ctx context.Context, partyID, txID string) (*dto.MutationResponse, error) {
	var out dto.MutationResponse
	path := "/api/v1/parties/" + url.PathEscape(partyID) + "/transactions/" + url.PathEscape(txID)
	return &out, c.do(ctx, http.MethodDelete, path, nil, nil, nil, &out)
}

func (c *apiClient) ReconcileParty(ctx context.Context, partyID, company string) (*dto.ReconciliationResponse, error) {
	var out dto.ReconciliationResponse
	query := url.Values{}
	if company != "" {
		query.Set("company", company)
	}
	return &out, c.do(ctx, http.MethodGet, "/api/v1/parties/"+url.PathEscape(partyID)+"/reconcile", query, nil, nil, &out)
}

func (c *apiClient) ReconciliationReport(ctx context.Context) (*dto.ReconciliationReportResponse, error) {
	var out dto.ReconciliationReportResponse
	return &out, c.do(ctx, http.MethodGet, "/api/v1/reconciliation", nil, nil, nil, &out)
}
