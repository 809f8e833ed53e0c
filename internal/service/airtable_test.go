package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSourceServer serves a paginated record listing in the shape of the
// Airtable list API. Page sizes follow pageCounts; the offset cursor is an
// opaque token the client must echo back verbatim.
func fakeSourceServer(t *testing.T, pageCounts []int) (*httptest.Server, *[]string) {
	t.Helper()

	var seenOffsets []string
	next := 0

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":{"type":"AUTHENTICATION_REQUIRED"}}`)
			return
		}

		offset := r.URL.Query().Get("offset")
		seenOffsets = append(seenOffsets, offset)

		page := next
		next++

		resp := map[string]interface{}{}
		var recs []map[string]interface{}
		base := 0
		for i := 0; i < page; i++ {
			base += pageCounts[i]
		}
		for i := 0; i < pageCounts[page]; i++ {
			recs = append(recs, map[string]interface{}{
				"id": fmt.Sprintf("rec%04d", base+i),
				"fields": map[string]interface{}{
					"Certification_ID": fmt.Sprintf("AFGC-2026-%04d", base+i),
				},
			})
		}
		resp["records"] = recs
		if page < len(pageCounts)-1 {
			resp["offset"] = fmt.Sprintf("cursor-%d", page+1)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, &seenOffsets
}

func newTestClient(baseURL string) *AirtableClient {
	return NewAirtableClient(baseURL, "test-key", "appTEST", "tblTEST", 100, 5*time.Second)
}

func TestFetchAllRecordsPaginates(t *testing.T) {
	srv, offsets := fakeSourceServer(t, []int{100, 100, 37})
	client := newTestClient(srv.URL)

	records, err := client.FetchAllRecords(context.Background())
	require.NoError(t, err)

	// Exactly N records: no duplicates, no drops.
	require.Len(t, records, 237)
	seen := make(map[string]bool)
	for _, r := range records {
		assert.False(t, seen[r.ID], "duplicate record %s", r.ID)
		seen[r.ID] = true
	}

	// Cursor chain: empty on the first request, then echoed tokens.
	assert.Equal(t, []string{"", "cursor-1", "cursor-2"}, *offsets)
}

func TestFetchAllRecordsSinglePage(t *testing.T) {
	srv, offsets := fakeSourceServer(t, []int{5})
	client := newTestClient(srv.URL)

	records, err := client.FetchAllRecords(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 5)
	assert.Equal(t, []string{""}, *offsets)
}

func TestFetchAllRecordsNonSuccessAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "upstream unavailable")
	}))
	t.Cleanup(srv.Close)

	client := newTestClient(srv.URL)
	records, err := client.FetchAllRecords(context.Background())
	require.Error(t, err)
	assert.Nil(t, records)

	var fetchErr *SourceFetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusBadGateway, fetchErr.Status)
	assert.Equal(t, "upstream unavailable", fetchErr.Body)
}

func TestFetchErrorBodyTruncated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		for i := 0; i < 1000; i++ {
			fmt.Fprint(w, "x")
		}
	}))
	t.Cleanup(srv.Close)

	client := newTestClient(srv.URL)
	_, err := client.FetchAllRecords(context.Background())
	require.Error(t, err)

	var fetchErr *SourceFetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Len(t, fetchErr.Body, bodySnippetLimit)
}

func TestFetchAllRecordsBadCredential(t *testing.T) {
	srv, _ := fakeSourceServer(t, []int{1})
	client := NewAirtableClient(srv.URL, "wrong-key", "appTEST", "tblTEST", 100, 5*time.Second)

	_, err := client.FetchAllRecords(context.Background())
	require.Error(t, err)

	var fetchErr *SourceFetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusUnauthorized, fetchErr.Status)
}

func TestFetchFilteredPassesFormula(t *testing.T) {
	var gotFormula string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotFormula = r.URL.Query().Get("filterByFormula")
		fmt.Fprint(w, `{"records":[]}`)
	}))
	t.Cleanup(srv.Close)

	client := newTestClient(srv.URL)
	_, err := client.FetchFiltered(context.Background(), "{Status}='Active'")
	require.NoError(t, err)
	assert.Equal(t, "{Status}='Active'", gotFormula)
}

func TestFetchPageSizeParameter(t *testing.T) {
	var gotPageSize string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPageSize = r.URL.Query().Get("pageSize")
		fmt.Fprint(w, `{"records":[]}`)
	}))
	t.Cleanup(srv.Close)

	client := newTestClient(srv.URL)
	_, err := client.FetchAllRecords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "100", gotPageSize)
}

func TestUpdateRecord(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		fmt.Fprint(w, `{"id":"rec0001"}`)
	}))
	t.Cleanup(srv.Close)

	client := newTestClient(srv.URL)
	err := client.UpdateRecord(context.Background(), "rec0001", map[string]interface{}{
		"Issuance_Pack_Generated": true,
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/appTEST/tblTEST/rec0001", gotPath)
	fields, ok := gotBody["fields"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, fields["Issuance_Pack_Generated"])
}

func TestUpdateRecordNonSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"error":"INVALID_VALUE_FOR_COLUMN"}`)
	}))
	t.Cleanup(srv.Close)

	client := newTestClient(srv.URL)
	err := client.UpdateRecord(context.Background(), "rec0001", map[string]interface{}{"X": 1})
	require.Error(t, err)

	var fetchErr *SourceFetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusUnprocessableEntity, fetchErr.Status)
}
