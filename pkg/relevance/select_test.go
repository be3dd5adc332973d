// ABOUTME: Tests for recommendation selection
// ABOUTME: Covers ranking, stable ties, and degenerate catalogs
package relevance

import "testing"

func testCatalog() []Item {
	return []Item{
		{ID: "1", Title: "Neon Drift", Description: "a racer chases a thief"},
		{ID: "2", Title: "Neon Pulse", Description: "a detective chases a racer"},
		{ID: "3", Title: "Quiet Garden", Description: "a calm afternoon"},
	}
}

func TestSelectScenario(t *testing.T) {
	catalog := testCatalog()
	sel := Select(catalog[0], catalog)

	if sel.Primary == nil {
		t.Fatal("expected a primary recommendation")
	}
	if sel.Primary.ID != "2" {
		t.Errorf("expected primary item 2, got %s", sel.Primary.ID)
	}
	if len(sel.Rest) != 1 || sel.Rest[0].ID != "3" {
		t.Fatalf("expected rest [3], got %v", sel.Rest)
	}

	if got := Score(catalog[0], catalog[1]); got < 4 {
		t.Errorf("expected item 2 to score >= 4, got %d", got)
	}
	if got := Score(catalog[0], catalog[2]); got != 0 {
		t.Errorf("expected item 3 to score 0, got %d", got)
	}
}

func TestSelectExcludesReference(t *testing.T) {
	catalog := testCatalog()
	sel := Select(catalog[0], catalog)

	for _, it := range append([]Item{*sel.Primary}, sel.Rest...) {
		if it.ID == catalog[0].ID {
			t.Fatal("reference item leaked into selection")
		}
	}
}

func TestSelectSingleItemCatalog(t *testing.T) {
	only := Item{ID: "1", Title: "Neon Drift"}
	sel := Select(only, []Item{only})

	if sel.Primary != nil {
		t.Errorf("expected no primary, got %v", sel.Primary)
	}
	if len(sel.Rest) != 0 {
		t.Errorf("expected empty rest, got %v", sel.Rest)
	}
}

func TestSelectEmptyCatalog(t *testing.T) {
	sel := Select(Item{ID: "1"}, nil)
	if sel.Primary != nil || len(sel.Rest) != 0 {
		t.Errorf("expected empty selection, got %+v", sel)
	}
}

func TestSelectStableTieOrder(t *testing.T) {
	ref := Item{ID: "r", Title: "Orbit", Description: "station repair"}
	catalog := []Item{
		ref,
		{ID: "a", Title: "Alpha", Description: "nothing shared"},
		{ID: "b", Title: "Beta", Description: "also nothing common"},
		{ID: "c", Title: "Gamma", Description: "station repair log"},
	}

	sel := Select(ref, catalog)
	if sel.Primary == nil || sel.Primary.ID != "c" {
		t.Fatalf("expected primary c, got %+v", sel.Primary)
	}

	// a and b both score zero and must keep catalog order.
	if len(sel.Rest) != 2 || sel.Rest[0].ID != "a" || sel.Rest[1].ID != "b" {
		t.Fatalf("expected stable tie order [a b], got %v", sel.Rest)
	}
}
