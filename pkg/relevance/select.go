// ABOUTME: Recommendation selection over a catalog
// ABOUTME: Ranks candidates by relevance score with stable tie ordering
package relevance

import "sort"

// Selection is the result of ranking a catalog against a reference
// item: a single top pick and the ordered remainder.
type Selection struct {
	Primary *Item
	Rest    []Item
}

// Select ranks every catalog entry other than ref by Score, descending.
// Ties keep the catalog's relative order; scores are recomputed from
// scratch on every call.
func Select(ref Item, catalog []Item) Selection {
	type scored struct {
		item  Item
		score int
	}

	candidates := make([]scored, 0, len(catalog))
	for _, c := range catalog {
		if c.ID == ref.ID {
			continue
		}
		candidates = append(candidates, scored{item: c, score: Score(ref, c)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) == 0 {
		return Selection{}
	}

	sel := Selection{Primary: &candidates[0].item}
	for _, c := range candidates[1:] {
		sel.Rest = append(sel.Rest, c.item)
	}
	return sel
}
