package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/afgc/registry/internal/model"
)

const (
	defaultTimeout = 30 * time.Second
	// bodySnippetLimit caps how much of an error response body is carried
	// in a fetch error.
	bodySnippetLimit = 512
)

// AirtableClient handles communication with the Airtable records API
type AirtableClient struct {
	client   *http.Client
	baseURL  string
	apiKey   string
	baseID   string
	tableID  string
	pageSize int
}

// NewAirtableClient creates a new records API client. baseURL covers the API
// root (e.g. https://api.airtable.com/v0); timeout applies per page request.
func NewAirtableClient(baseURL, apiKey, baseID, tableID string, pageSize int, timeout time.Duration) *AirtableClient {
	if pageSize <= 0 {
		pageSize = 100
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &AirtableClient{
		client:   &http.Client{Timeout: timeout},
		baseURL:  baseURL,
		apiKey:   apiKey,
		baseID:   baseID,
		tableID:  tableID,
		pageSize: pageSize,
	}
}

// recordsResponse represents one page of the list-records API response
type recordsResponse struct {
	Records []struct {
		ID     string                 `json:"id"`
		Fields map[string]interface{} `json:"fields"`
	} `json:"records"`
	// Offset is the opaque continuation cursor; absent on the last page.
	Offset string `json:"offset"`
}

// FetchAllRecords retrieves every record in the configured table, walking the
// cursor chain page by page. A failed page aborts the whole fetch: callers
// get either the complete record set or none of it.
func (c *AirtableClient) FetchAllRecords(ctx context.Context) ([]model.RawRecord, error) {
	return c.fetchAll(ctx, "")
}

// FetchFiltered retrieves every record matching the given filter formula.
func (c *AirtableClient) FetchFiltered(ctx context.Context, formula string) ([]model.RawRecord, error) {
	return c.fetchAll(ctx, formula)
}

func (c *AirtableClient) fetchAll(ctx context.Context, formula string) ([]model.RawRecord, error) {
	var records []model.RawRecord
	offset := ""

	for {
		page, err := c.fetchPage(ctx, formula, offset)
		if err != nil {
			return nil, err
		}

		for _, r := range page.Records {
			records = append(records, model.RawRecord{ID: r.ID, Fields: r.Fields})
		}

		if page.Offset == "" {
			return records, nil
		}
		offset = page.Offset
	}
}

func (c *AirtableClient) fetchPage(ctx context.Context, formula, offset string) (*recordsResponse, error) {
	query := url.Values{}
	query.Set("pageSize", fmt.Sprintf("%d", c.pageSize))
	if formula != "" {
		query.Set("filterByFormula", formula)
	}
	if offset != "" {
		query.Set("offset", offset)
	}

	endpoint := fmt.Sprintf("%s/%s/%s?%s", c.baseURL, c.baseID, c.tableID, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &SourceFetchError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &SourceFetchError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &SourceFetchError{Status: resp.StatusCode, Body: snippet(body)}
	}

	var page recordsResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to parse records response: %w", err)
	}

	return &page, nil
}

// UpdateRecord patches the named fields on one source record.
func (c *AirtableClient) UpdateRecord(ctx context.Context, recordID string, fields map[string]interface{}) error {
	payload, err := json.Marshal(map[string]interface{}{"fields": fields})
	if err != nil {
		return fmt.Errorf("failed to encode record update: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/%s/%s", c.baseURL, c.baseID, c.tableID, recordID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &SourceFetchError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &SourceFetchError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return &SourceFetchError{Status: resp.StatusCode, Body: snippet(body)}
	}

	return nil
}

func snippet(body []byte) string {
	if len(body) > bodySnippetLimit {
		body = body[:bodySnippetLimit]
	}
	return string(body)
}
