package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/driftline/driftline/pkg/logging"
	"github.com/driftline/driftline/pkg/search"
	"github.com/driftline/driftline/pkg/search/memory"
	"github.com/driftline/driftline/pkg/server"
)

func setUpSearchServer(t *testing.T) (*httptest.Server, *memory.Index) {
	t.Helper()

	index := memory.MakeIndex()
	handler := server.NewSearchHandler(index, logging.NullLogger{})

	srv := httptest.NewServer(handler.Routes())
	t.Cleanup(srv.Close)
	return srv, index
}

func TestSearchHandler_Search(t *testing.T) {
	t.Run("Test if anonymous request is rejected", func(t *testing.T) {
		srv, _ := setUpSearchServer(t)

		resp := doJSON(t, http.MethodGet, srv.URL+"/?query=hello", "", "")
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("Status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
		}
	})

	t.Run("Test if missing query parameter is a client error", func(t *testing.T) {
		srv, _ := setUpSearchServer(t)

		resp := doJSON(t, http.MethodGet, srv.URL+"/", "u1", "")
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
		}
	})

	t.Run("Test if matching posts are returned ranked", func(t *testing.T) {
		srv, index := setUpSearchServer(t)

		index.Upsert(context.Background(), search.Entry{ContentId: "p1", Body: "gophers and more gophers"})
		index.Upsert(context.Background(), search.Entry{ContentId: "p2", Body: "one gophers mention"})
		index.Upsert(context.Background(), search.Entry{ContentId: "p3", Body: "unrelated"})

		resp := doJSON(t, http.MethodGet, srv.URL+"/?query=gophers", "u1", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		var results []search.Entry
		if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("Got %d results, want 2", len(results))
		}
		if results[0].ContentId != "p1" {
			t.Errorf("Top result = %q, want the most relevant post p1", results[0].ContentId)
		}
	})
}
