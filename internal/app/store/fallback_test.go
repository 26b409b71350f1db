package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"qroute/internal/app/model"
	"qroute/internal/app/safety"
)

func route(id string, updated time.Time) model.QrRoute {
	return model.QrRoute{
		ID:          id,
		Destination: "https://example.com/" + id,
		Enabled:     true,
		UpdatedAt:   updated,
	}
}

func TestFallback_SetGet(t *testing.T) {
	f := NewFallback()

	if _, ok := f.Get("missing"); ok {
		t.Fatal("expected miss on empty store")
	}

	f.Set(route("promo1", time.Now()))
	got, ok := f.Get("promo1")
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if got.Destination != "https://example.com/promo1" {
		t.Fatalf("destination = %q", got.Destination)
	}
}

func TestFallback_ListRecent(t *testing.T) {
	f := NewFallback()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f.Set(route("old", base))
	f.Set(route("mid", base.Add(time.Hour)))
	f.Set(route("new", base.Add(2*time.Hour)))

	got := f.ListRecent(2)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "new" || got[1].ID != "mid" {
		t.Fatalf("order = %s, %s; want new, mid", got[0].ID, got[1].ID)
	}
}

func TestFallback_SeedSkipsBadEntries(t *testing.T) {
	f := NewFallback()

	inline := `[
		{"id": "good1", "destination": "https://example.com/a"},
		{"id": "ab", "destination": "https://example.com/too-short-id"},
		{"id": "badurl", "destination": "not a url"},
		{"id": "private1", "destination": "http://192.168.0.1"}
	]`

	added := f.Seed(SeedSources{InlineJSON: inline}, safety.DefaultPolicy(), nil)
	if added != 1 {
		t.Fatalf("added = %d, want 1", added)
	}
	if _, ok := f.Get("good1"); !ok {
		t.Fatal("expected good1 to be seeded")
	}
	for _, id := range []string{"ab", "badurl", "private1"} {
		if _, ok := f.Get(id); ok {
			t.Errorf("expected %s to be skipped", id)
		}
	}
}

func TestFallback_SeedRunsOnce(t *testing.T) {
	f := NewFallback()
	inline := `[{"id": "good1", "destination": "https://example.com/a"}]`
	sources := SeedSources{InlineJSON: inline}

	if added := f.Seed(sources, safety.DefaultPolicy(), nil); added != 1 {
		t.Fatalf("first seed added = %d, want 1", added)
	}
	if added := f.Seed(sources, safety.DefaultPolicy(), nil); added != 0 {
		t.Fatalf("second seed added = %d, want 0", added)
	}
}

func TestFallback_SeedFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routes.json")
	data := `[{"id": "filed1", "destination": "https://example.com/file", "name": "From file"}]`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	f := NewFallback()
	if added := f.Seed(SeedSources{FilePath: path}, safety.DefaultPolicy(), nil); added != 1 {
		t.Fatalf("added = %d, want 1", added)
	}
	got, ok := f.Get("filed1")
	if !ok {
		t.Fatal("expected filed1 to be seeded")
	}
	if got.Name != "From file" {
		t.Fatalf("name = %q", got.Name)
	}
}

func TestFallback_SeedMissingFileDoesNotPanic(t *testing.T) {
	f := NewFallback()
	if added := f.Seed(SeedSources{FilePath: "/does/not/exist.json"}, safety.DefaultPolicy(), nil); added != 0 {
		t.Fatalf("added = %d, want 0", added)
	}
}
