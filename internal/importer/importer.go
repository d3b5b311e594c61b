package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gorm.io/gorm"

	"barkeep/internal/engine"
	applog "barkeep/internal/log"
	"barkeep/internal/measure"
	"barkeep/models"
)

// ErrAlreadyImported marks a cache record whose drink already exists.
var ErrAlreadyImported = errors.New("importer: recipe already imported")

// CacheRecipes stores fetched recipes that are not cached yet. Cached
// rows are immutable: a record whose SourceID already exists is left
// untouched, whatever the source says now. Returns how many were stored.
func CacheRecipes(ctx context.Context, db *gorm.DB, recipes []models.CachedRecipe) (int, error) {
	stored := 0
	for _, recipe := range recipes {
		var count int64
		if err := db.WithContext(ctx).
			Model(&models.CachedRecipe{}).
			Where("source_id = ?", recipe.SourceID).
			Count(&count).Error; err != nil {
			return stored, fmt.Errorf("check cache for %q: %w", recipe.SourceID, err)
		}
		if count > 0 {
			continue
		}
		if err := db.WithContext(ctx).Create(&recipe).Error; err != nil {
			return stored, fmt.Errorf("cache recipe %q: %w", recipe.SourceID, err)
		}
		stored++
	}
	return stored, nil
}

// ImportDrink converts a cached external recipe into a drink. Every
// {name, measure} pair becomes an ingredient: the measure text is parsed
// into canonical milliliters where a rule recognizes it (and kept as text
// either way), and the name is matched against the current inventory in
// stable id order. Unparsed measures and unmatched names are normal
// outcomes, not failures.
func ImportDrink(ctx context.Context, db *gorm.DB, cached models.CachedRecipe) (models.Drink, error) {
	var existing int64
	if err := db.WithContext(ctx).
		Model(&models.Drink{}).
		Where("source_id = ?", cached.SourceID).
		Count(&existing).Error; err != nil {
		return models.Drink{}, fmt.Errorf("check existing drink: %w", err)
	}
	if existing > 0 {
		return models.Drink{}, ErrAlreadyImported
	}

	var stock []models.StockItem
	if err := db.WithContext(ctx).Order("id asc").Find(&stock).Error; err != nil {
		return models.Drink{}, fmt.Errorf("load stock: %w", err)
	}

	drink := models.Drink{
		Name:         cached.Name,
		Category:     cached.Category,
		Instructions: cached.Instructions,
		SourceID:     cached.SourceID,
	}

	for _, pair := range cached.IngredientPairs() {
		ingredient := models.DrinkIngredient{
			Name:       pair.Name,
			AmountText: pair.Measure,
		}
		if ml, ok := measure.Parse(pair.Measure); ok {
			ingredient.AmountML = &ml
		} else if pair.Measure != "" {
			applog.Debug(ctx, "measure not recognized, keeping text only",
				"recipe", cached.Name, "ingredient", pair.Name, "measure", pair.Measure)
		}
		if match := engine.MatchStock(pair.Name, stock); match != nil {
			id := match.ID
			ingredient.StockItemID = &id
		}
		drink.Ingredients = append(drink.Ingredients, ingredient)
	}

	if err := db.WithContext(ctx).Create(&drink).Error; err != nil {
		return models.Drink{}, fmt.Errorf("create drink: %w", err)
	}

	return drink, nil
}

type fileRecipe struct {
	SourceID     string                    `json:"source_id"`
	Name         string                    `json:"name"`
	Category     string                    `json:"category"`
	Instructions string                    `json:"instructions"`
	Ingredients  []models.CachedIngredient `json:"ingredients"`
}

// ReadCacheFile loads recipes from a JSON file, the handoff format used
// by the page scraper. Records missing a source id are rejected so the
// cache's uniqueness key stays meaningful.
func ReadCacheFile(path string) ([]models.CachedRecipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cache file: %w", err)
	}

	var raw []fileRecipe
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode cache file: %w", err)
	}

	recipes := make([]models.CachedRecipe, 0, len(raw))
	for _, entry := range raw {
		if entry.SourceID == "" {
			return nil, fmt.Errorf("recipe %q has no source id", entry.Name)
		}
		recipe := models.CachedRecipe{
			SourceID:     entry.SourceID,
			Name:         entry.Name,
			Category:     entry.Category,
			Instructions: entry.Instructions,
		}
		if err := recipe.SetIngredientPairs(entry.Ingredients); err != nil {
			return nil, fmt.Errorf("encode ingredients for %q: %w", entry.Name, err)
		}
		recipes = append(recipes, recipe)
	}

	return recipes, nil
}
