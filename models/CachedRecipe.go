package models

import (
	"encoding/json"

	"gorm.io/gorm"
)

// CachedIngredient is one {name, measure} pair exactly as delivered by an
// external recipe source (API response or scraped page).
type CachedIngredient struct {
	Name    string `json:"name"`
	Measure string `json:"measure"`
}

// CachedRecipe is an external recipe record. Rows are immutable once
// written: the cache preserves what the source said at fetch time and is
// only consumed when importing a recipe into the drink catalog.
type CachedRecipe struct {
	gorm.Model
	SourceID        string `gorm:"uniqueIndex;not null" json:"source_id"`
	Name            string `gorm:"not null" json:"name"`
	Category        string `json:"category"`
	Instructions    string `gorm:"type:text" json:"instructions"`
	IngredientsJSON string `gorm:"type:text" json:"-"`
}

// IngredientPairs decodes the serialized ingredient list. A corrupt or
// empty payload yields an empty slice, never an error, so a bad cache row
// degrades to a recipe without ingredients instead of failing the import.
func (c CachedRecipe) IngredientPairs() []CachedIngredient {
	if c.IngredientsJSON == "" {
		return nil
	}
	var pairs []CachedIngredient
	if err := json.Unmarshal([]byte(c.IngredientsJSON), &pairs); err != nil {
		return nil
	}
	return pairs
}

// SetIngredientPairs serializes the ingredient list for storage.
func (c *CachedRecipe) SetIngredientPairs(pairs []CachedIngredient) error {
	encoded, err := json.Marshal(pairs)
	if err != nil {
		return err
	}
	c.IngredientsJSON = string(encoded)
	return nil
}
