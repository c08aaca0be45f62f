package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/valpere/jatran/internal"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_New(t *testing.T) {
	s := newTestStore(t)

	if s == nil {
		t.Fatal("expected non-nil store")
	}
}

func TestStore_New_InvalidPath(t *testing.T) {
	_, err := New("/nonexistent/path/test.db")
	if err == nil {
		t.Error("expected error for invalid path")
	}
}

func TestStore_SaveRequest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := internal.RequestRecord{
		ID:          uuid.NewString(),
		SourceText:  "こんにちは",
		Translation: "Hello",
		Model:       "lfm2",
		LatencyMs:   120,
		Timestamp:   time.Now(),
	}
	if err := s.SaveRequest(ctx, rec); err != nil {
		t.Fatalf("SaveRequest failed: %v", err)
	}

	failed := internal.RequestRecord{
		ID:         uuid.NewString(),
		SourceText: "さようなら",
		Model:      "lfm2",
		Error:      "generation failed: timeout",
	}
	if err := s.SaveRequest(ctx, failed); err != nil {
		t.Fatalf("SaveRequest failed: %v", err)
	}

	records, err := s.ListRequests(ctx, 10)
	if err != nil {
		t.Fatalf("ListRequests failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}

func TestStore_SaveRequest_DuplicateID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := internal.RequestRecord{ID: "req-1", SourceText: "一", Model: "lfm2"}
	if err := s.SaveRequest(ctx, rec); err != nil {
		t.Fatalf("SaveRequest failed: %v", err)
	}
	if err := s.SaveRequest(ctx, rec); err == nil {
		t.Error("expected error for duplicate id")
	}
}

func TestStore_GetCachedTranslation_Miss(t *testing.T) {
	s := newTestStore(t)

	_, found, err := s.GetCachedTranslation(context.Background(), "こんにちは", "lfm2")
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if found {
		t.Error("expected cache miss")
	}
}

func TestStore_GetCachedTranslation_Hit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveToMemory(ctx, "こんにちは", "lfm2", "Hello"); err != nil {
		t.Fatalf("SaveToMemory failed: %v", err)
	}

	got, found, err := s.GetCachedTranslation(ctx, "  こんにちは\n", "lfm2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("expected cache hit for whitespace-padded text")
	}
	if got != "Hello" {
		t.Errorf("expected 'Hello', got %q", got)
	}

	entries, err := s.ListMemory(ctx)
	if err != nil {
		t.Fatalf("ListMemory failed: %v", err)
	}
	if len(entries) != 1 || entries[0].UsageCount != 2 {
		t.Errorf("expected one entry used twice, got %+v", entries)
	}
}

func TestStore_GetCachedTranslation_PerModel(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.SaveToMemory(ctx, "猫", "lfm2", "Cat")

	_, found, err := s.GetCachedTranslation(ctx, "猫", "another-model")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("cache entries must not leak across models")
	}
}

func TestStore_GetCachedTranslation_EmptyTranslation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.SaveToMemory(ctx, "……", "lfm2", "")

	got, found, err := s.GetCachedTranslation(ctx, "……", "lfm2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found || got != "" {
		t.Errorf("expected cached empty translation, got %q found=%v", got, found)
	}
}

func TestStore_SaveToMemory_Replace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.SaveToMemory(ctx, "犬", "lfm2", "Dogg")
	s.SaveToMemory(ctx, "犬", "lfm2", "Dog")

	got, _, _ := s.GetCachedTranslation(ctx, "犬", "lfm2")
	if got != "Dog" {
		t.Errorf("expected replaced translation 'Dog', got %q", got)
	}

	entries, _ := s.ListMemory(ctx)
	if len(entries) != 1 {
		t.Errorf("expected 1 entry after replace, got %d", len(entries))
	}
}

func TestStore_Stats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.SaveToMemory(ctx, "一", "lfm2", "One")
	s.SaveToMemory(ctx, "二", "lfm2", "Two")
	s.GetCachedTranslation(ctx, "一", "lfm2")

	s.SaveRequest(ctx, internal.RequestRecord{ID: "a", SourceText: "一", Model: "lfm2", CacheHit: true})
	s.SaveRequest(ctx, internal.RequestRecord{ID: "b", SourceText: "二", Model: "lfm2"})
	s.SaveRequest(ctx, internal.RequestRecord{ID: "c", SourceText: "三", Model: "lfm2", Error: "boom"})

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}

	if stats.TotalEntries != 2 {
		t.Errorf("expected 2 entries, got %d", stats.TotalEntries)
	}
	if stats.TotalUsage != 3 {
		t.Errorf("expected usage 3, got %d", stats.TotalUsage)
	}
	if stats.TotalRequests != 3 {
		t.Errorf("expected 3 requests, got %d", stats.TotalRequests)
	}
	if stats.CacheHits != 1 {
		t.Errorf("expected 1 cache hit, got %d", stats.CacheHits)
	}
	if stats.FailedRequests != 1 {
		t.Errorf("expected 1 failed request, got %d", stats.FailedRequests)
	}
}

func TestStore_DeleteMemory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.SaveToMemory(ctx, "山", "lfm2", "Mountain")
	entries, _ := s.ListMemory(ctx)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	if err := s.DeleteMemory(ctx, entries[0].ID); err != nil {
		t.Fatalf("DeleteMemory failed: %v", err)
	}

	_, found, _ := s.GetCachedTranslation(ctx, "山", "lfm2")
	if found {
		t.Error("expected entry to be deleted")
	}

	if err := s.DeleteMemory(ctx, entries[0].ID); err == nil {
		t.Error("expected error deleting a missing entry")
	}
}

func TestStore_ClearMemory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.SaveToMemory(ctx, "川", "lfm2", "River")
	s.SaveToMemory(ctx, "海", "lfm2", "Sea")

	n, err := s.ClearMemory(ctx)
	if err != nil {
		t.Fatalf("ClearMemory failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 rows cleared, got %d", n)
	}

	entries, _ := s.ListMemory(ctx)
	if len(entries) != 0 {
		t.Errorf("expected empty memory, got %d entries", len(entries))
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"  hello  ", "hello"},
		{"\tこんにちは\n", "こんにちは"},
		// "が" as か + combining dakuten composes to the precomposed form.
		{"\u304b\u3099", "\u304c"},
	}

	for _, tt := range tests {
		result := normalizeText(tt.input)
		if result != tt.expected {
			t.Errorf("normalizeText(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}
