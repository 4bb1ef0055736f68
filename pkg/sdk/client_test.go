package itemradar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_RequiresBaseURL(t *testing.T) {
	if _, err := New("  "); err == nil {
		t.Fatal("expected error for empty base URL")
	}
}

func TestRegisterItem_SendsAuthAndDecodes(t *testing.T) {
	var gotAuth, gotPath, gotMethod string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotMethod = r.Method

		var req RegisterItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Type != "found" || req.Description != "black wallet" {
			t.Fatalf("unexpected request: %+v", req)
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Item{ID: "found_a1b2c3d4", Type: "found", Status: "active"})
	}, WithAPIKey("secret-key"))

	item, err := c.RegisterItem(context.Background(), RegisterItemRequest{
		Type:         "found",
		Description:  "black wallet",
		Latitude:     40.78,
		Longitude:    -73.96,
		ContactEmail: "finder@example.com",
	})
	if err != nil {
		t.Fatalf("RegisterItem: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/items" {
		t.Fatalf("got %s %s, want POST /items", gotMethod, gotPath)
	}
	if gotAuth != "Bearer secret-key" {
		t.Fatalf("got auth header %q", gotAuth)
	}
	if item.ID != "found_a1b2c3d4" || item.Status != "active" {
		t.Fatalf("unexpected item: %+v", item)
	}
}

func TestRegisterBatch_ReportsPerItemErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/items/batch" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"item_id": "found_11111111"},
				{"error": map[string]string{"code": "validation_failed", "message": "description is required"}},
			},
		})
	})

	results, err := c.RegisterBatch(context.Background(), []RegisterItemRequest{
		{Type: "found", Description: "umbrella"},
		{Type: "found"},
	})
	if err != nil {
		t.Fatalf("RegisterBatch: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].ItemID != "found_11111111" || results[0].Error != nil {
		t.Fatalf("unexpected first result: %+v", results[0])
	}
	if results[1].Error == nil || results[1].Error.Code != "validation_failed" {
		t.Fatalf("unexpected second result: %+v", results[1])
	}
}

func TestListItems_EncodesQueryAndDecodesPage(t *testing.T) {
	var gotQuery map[string][]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/items" {
			t.Fatalf("got %s %s, want GET /items", r.Method, r.URL.Path)
		}
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode(ItemList{
			Items: []Item{{ID: "found_11111111", Category: "electronics", Status: "active"}},
			Total: 7,
		})
	})

	page, err := c.ListItems(context.Background(), ListItemsRequest{
		Category: "electronics",
		Status:   "active",
		Offset:   5,
		Limit:    1,
	})
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	want := map[string]string{"category": "electronics", "status": "active", "offset": "5", "limit": "1"}
	for k, v := range want {
		if len(gotQuery[k]) != 1 || gotQuery[k][0] != v {
			t.Errorf("query %s = %v, want %s", k, gotQuery[k], v)
		}
	}
	if page.Total != 7 || len(page.Items) != 1 || page.Items[0].ID != "found_11111111" {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestGetItem_NotFoundMapsToSentinel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{
			"code":    "item_not_found",
			"message": "Item not found",
		})
	})

	_, err := c.GetItem(context.Background(), "found_missing0")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSessionWorkflow_Paths(t *testing.T) {
	calls := make([]string, 0, 8)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		switch {
		case r.URL.Path == "/sessions/session_ab12cd34/phase":
			json.NewEncoder(w).Encode(map[string]string{"phase": "multiple_matches"})
		case r.URL.Path == "/sessions/session_ab12cd34/question":
			json.NewEncoder(w).Encode(Question{Question: "Is your item blue in color?", Available: true})
		case r.URL.Path == "/sessions/session_ab12cd34/result":
			json.NewEncoder(w).Encode(Result{SessionID: "session_ab12cd34", ItemID: "found_a1b2c3d4", Confidence: 0.91})
		default:
			json.NewEncoder(w).Encode(Session{SessionID: "session_ab12cd34", Phase: "multiple_matches"})
		}
	})

	ctx := context.Background()
	if _, err := c.InitiateSearch(ctx, "session_ab12cd34", SearchRequest{Description: "blue backpack", Location: "Central Park"}); err != nil {
		t.Fatalf("InitiateSearch: %v", err)
	}
	if phase, err := c.CheckPhase(ctx, "session_ab12cd34"); err != nil || phase != "multiple_matches" {
		t.Fatalf("CheckPhase: %q, %v", phase, err)
	}
	if _, err := c.StoreMatchResults(ctx, "session_ab12cd34"); err != nil {
		t.Fatalf("StoreMatchResults: %v", err)
	}
	q, err := c.GetQuestion(ctx, "session_ab12cd34")
	if err != nil || !q.Available || q.Question == "" {
		t.Fatalf("GetQuestion: %+v, %v", q, err)
	}
	if _, err := c.StoreAnswer(ctx, "session_ab12cd34", "", "yes"); err != nil {
		t.Fatalf("StoreAnswer: %v", err)
	}
	if _, err := c.ApplyFilter(ctx, "session_ab12cd34"); err != nil {
		t.Fatalf("ApplyFilter: %v", err)
	}
	res, err := c.FinalResult(ctx, "session_ab12cd34")
	if err != nil || res.ItemID != "found_a1b2c3d4" {
		t.Fatalf("FinalResult: %+v, %v", res, err)
	}

	want := []string{
		"POST /sessions/session_ab12cd34/search",
		"GET /sessions/session_ab12cd34/phase",
		"POST /sessions/session_ab12cd34/matches",
		"GET /sessions/session_ab12cd34/question",
		"POST /sessions/session_ab12cd34/answer",
		"POST /sessions/session_ab12cd34/filter",
		"GET /sessions/session_ab12cd34/result",
	}
	if len(calls) != len(want) {
		t.Fatalf("got %d calls, want %d: %v", len(calls), len(want), calls)
	}
	for i, w := range want {
		if calls[i] != w {
			t.Fatalf("call %d: got %q, want %q", i, calls[i], w)
		}
	}
}

func TestFinalResult_PhaseConflictCarriesPhase(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{
			"code":    "phase_conflict",
			"message": "format_final_result is not valid in phase multiple_matches",
			"phase":   "multiple_matches",
		})
	})

	_, err := c.FinalResult(context.Background(), "session_ab12cd34")
	if !errors.Is(err, ErrPhaseConflict) {
		t.Fatalf("got %v, want ErrPhaseConflict", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Phase != "multiple_matches" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDo_NonJSONErrorBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	})

	_, err := c.Health(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway || apiErr.Message != http.StatusText(http.StatusBadGateway) {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}
