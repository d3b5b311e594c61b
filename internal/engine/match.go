// Package engine decides what the bar can actually serve: it links
// free-text recipe ingredients to inventory, computes availability, and
// owns every mutation of stock volumes so the read-modify-write
// discipline lives in one place.
package engine

import (
	"strings"

	"barkeep/internal/measure"
	"barkeep/models"
)

// MatchStock resolves an ingredient name against the inventory. Candidates
// are compared on normalized keys with a bidirectional substring match:
// the item's own name first, its aliases only when the name fails. The
// first item in the caller-supplied order wins; there is no scoring, so
// the caller must keep the list order stable for reproducible results.
// A nil return means "unresolved", which is an expected state, not an error.
func MatchStock(name string, items []models.StockItem) *models.StockItem {
	key := measure.NormalizeName(name)
	if key == "" {
		return nil
	}

	for i := range items {
		if keysMatch(key, measure.NormalizeName(items[i].Name)) {
			return &items[i]
		}
		for _, alias := range items[i].AliasList() {
			if keysMatch(key, measure.NormalizeName(alias)) {
				return &items[i]
			}
		}
	}

	return nil
}

func keysMatch(key, candidate string) bool {
	if key == "" || candidate == "" {
		return false
	}
	return key == candidate ||
		strings.Contains(candidate, key) ||
		strings.Contains(key, candidate)
}
