// ABOUTME: Tests for the SQLite catalog store
// ABOUTME: Each test opens a fresh database under t.TempDir
package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpenSeedsBuiltInLibrary(t *testing.T) {
	store := openTestStore(t)

	items, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	want := BuiltIn()
	if len(items) != len(want) {
		t.Fatalf("List() returned %d items, want %d", len(items), len(want))
	}
	for i, item := range items {
		if item != want[i] {
			t.Errorf("item %d = %+v, want %+v", i, item, want[i])
		}
	}
}

func TestReopenDoesNotDuplicateSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	store.Close()

	store, err = Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer store.Close()

	items, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != len(BuiltIn()) {
		t.Errorf("List() after reopen returned %d items, want %d", len(items), len(BuiltIn()))
	}
}

func TestGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	item, err := store.Get(ctx, "quiet-garden")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if item.Title != "Quiet Garden Mornings" {
		t.Errorf("title = %q, want %q", item.Title, "Quiet Garden Mornings")
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSeedAppendsOnlyNewItems(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	extra := Item{
		ID:    "quiet-garden", // already seeded
		Title: "Should Not Replace",
	}
	fresh := Item{
		ID:          "desert-trains",
		Title:       "Desert Freight Trains",
		Description: "Long freight trains crossing the high desert",
	}
	if err := store.Seed(ctx, []Item{extra, fresh}); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	existing, err := store.Get(ctx, "quiet-garden")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if existing.Title != "Quiet Garden Mornings" {
		t.Errorf("seed replaced existing row: title = %q", existing.Title)
	}

	items, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != len(BuiltIn())+1 {
		t.Fatalf("List() returned %d items, want %d", len(items), len(BuiltIn())+1)
	}
	if last := items[len(items)-1]; last.ID != "desert-trains" {
		t.Errorf("new item should land at the end, got %q", last.ID)
	}
}

func TestUpdateDescription(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.UpdateDescription(ctx, "harbor-lights", "Updated notes"); err != nil {
		t.Fatalf("UpdateDescription() error = %v", err)
	}
	item, err := store.Get(ctx, "harbor-lights")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if item.Description != "Updated notes" {
		t.Errorf("description = %q, want %q", item.Description, "Updated notes")
	}

	if err := store.UpdateDescription(ctx, "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateDescription(missing) error = %v, want ErrNotFound", err)
	}
}
