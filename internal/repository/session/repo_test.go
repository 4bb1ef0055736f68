package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/itemradar/internal/db"
	"github.com/kailas-cloud/itemradar/internal/domain"
	domsession "github.com/kailas-cloud/itemradar/internal/domain/session"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	jsonSetFn func(ctx context.Context, key, path string, data []byte) error
	jsonGetFn func(ctx context.Context, key string, paths ...string) ([]byte, error)
	delFn     func(ctx context.Context, key string) error
	expireFn  func(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

func (m *mockStore) JSONSet(ctx context.Context, key, path string, data []byte) error {
	if m.jsonSetFn != nil {
		return m.jsonSetFn(ctx, key, path, data)
	}
	return nil
}

func (m *mockStore) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	if m.jsonGetFn != nil {
		return m.jsonGetFn(ctx, key, paths...)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func (m *mockStore) Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error {
	if m.expireFn != nil {
		return m.expireFn(ctx, key, ttl, nx)
	}
	return nil
}

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testSession(t *testing.T) domsession.Session {
	t.Helper()
	s, err := domsession.New("sess-1", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, _ = s.WithLostItem("lost_c3d4e5f6", now)
	s, _ = s.WithMatches([]domsession.Match{
		{ItemID: "found_aaaa1111", Confidence: 0.82, Description: "black wallet"},
		{ItemID: "found_bbbb2222", Confidence: 0.61, Description: "brown wallet"},
	}, now)
	s, _ = s.WithQuestion("Is your item black in color?", now)
	s, _ = s.WithAnswer("Is your item black in color?", "yes", now)
	return s
}

func TestSave_WritesDocWithTTL(t *testing.T) {
	ms := &mockStore{}
	repo := New(ms, 24*time.Hour)
	s := testSession(t)

	var gotKey string
	var gotData []byte
	expired := false
	ms.jsonSetFn = func(_ context.Context, key, path string, data []byte) error {
		gotKey, gotData = key, data
		if path != "$" {
			t.Errorf("path = %q", path)
		}
		return nil
	}
	ms.expireFn = func(_ context.Context, key string, ttl time.Duration, nx bool) error {
		expired = true
		if key != gotKey {
			t.Errorf("expire key = %q, want %q", key, gotKey)
		}
		if ttl != 24*time.Hour {
			t.Errorf("ttl = %v", ttl)
		}
		if nx {
			t.Error("TTL must refresh on every save")
		}
		return nil
	}

	if err := repo.Save(context.Background(), &s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "itemradar:session:sess-1" {
		t.Errorf("key = %q", gotKey)
	}
	if !expired {
		t.Error("expire not called")
	}

	var doc sessionDoc
	if err := json.Unmarshal(gotData, &doc); err != nil {
		t.Fatalf("stored doc is not valid JSON: %v", err)
	}
	if !doc.Searched || len(doc.Matches) != 2 {
		t.Errorf("unexpected doc: %+v", doc)
	}
}

func TestGet_RoundTrip(t *testing.T) {
	ms := &mockStore{}
	repo := New(ms, 0)
	s := testSession(t)

	var stored []byte
	ms.jsonSetFn = func(_ context.Context, _, _ string, data []byte) error {
		stored = data
		return nil
	}
	if err := repo.Save(context.Background(), &s); err != nil {
		t.Fatalf("save: %v", err)
	}

	ms.jsonGetFn = func(_ context.Context, _ string, _ ...string) ([]byte, error) {
		return []byte("[" + string(stored) + "]"), nil
	}

	got, err := repo.Get(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID() != s.ID() || got.LostItemID() != s.LostItemID() {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Phase() != domsession.PhaseMultipleMatches {
		t.Errorf("phase = %s, want multiple_matches", got.Phase())
	}
	if len(got.Matches()) != 2 {
		t.Errorf("matches = %d", len(got.Matches()))
	}
	if got.CurrentQuestion() != "Is your item black in color?" || got.LastAnswer() != "yes" {
		t.Errorf("pending Q/A lost: %q / %q", got.CurrentQuestion(), got.LastAnswer())
	}
	if !got.AnswerPending() {
		t.Error("answer_pending flag lost")
	}
}

func TestGet_NotFound(t *testing.T) {
	ms := &mockStore{}
	repo := New(ms, 0)

	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	ms := &mockStore{}
	repo := New(ms, 0)

	var gotKey string
	ms.delFn = func(_ context.Context, key string) error {
		gotKey = key
		return nil
	}

	if err := repo.Delete(context.Background(), "sess-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "itemradar:session:sess-1" {
		t.Errorf("key = %q", gotKey)
	}
}
