// Package importer brings recipes from external sources into the drink
// catalog: a thin HTTP client for a CocktailDB-style API, an immutable
// local cache of what the source delivered, and the conversion of raw
// {name, measure} pairs into resolved recipe ingredients.
package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"barkeep/internal/config"
	"barkeep/models"
)

// wireIngredientSlots is how many numbered ingredient columns the API
// exposes per recipe.
const wireIngredientSlots = 15

// Client fetches recipes from the external recipe API. The wire format
// is the CocktailDB convention: one flat object per drink with numbered
// strIngredientN / strMeasureN columns.
type Client struct {
	http *resty.Client
}

// NewClient builds a client for the configured recipe API.
func NewClient(cfg config.ImporterConfig) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.APIBaseURL, "/")).
		SetTimeout(cfg.APITimeout).
		SetHeader("Accept", "application/json")

	return &Client{http: httpClient}
}

type searchResponse struct {
	Drinks []map[string]any `json:"drinks"`
}

// SearchByName queries the API for recipes matching the term and returns
// them as cache records, ready to persist. An empty result is not an
// error: the source simply knows nothing under that name.
func (c *Client) SearchByName(ctx context.Context, term string) ([]models.CachedRecipe, error) {
	var payload searchResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("s", term).
		SetResult(&payload).
		Get("/search.php")
	if err != nil {
		return nil, fmt.Errorf("search recipes: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("search recipes: unexpected status %s", resp.Status())
	}

	recipes := make([]models.CachedRecipe, 0, len(payload.Drinks))
	for _, raw := range payload.Drinks {
		recipe, err := recipeFromWire(raw)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, recipe)
	}

	return recipes, nil
}

func recipeFromWire(raw map[string]any) (models.CachedRecipe, error) {
	recipe := models.CachedRecipe{
		SourceID:     wireString(raw, "idDrink"),
		Name:         wireString(raw, "strDrink"),
		Category:     wireString(raw, "strCategory"),
		Instructions: wireString(raw, "strInstructions"),
	}
	if recipe.SourceID == "" {
		return models.CachedRecipe{}, fmt.Errorf("recipe %q has no source id", recipe.Name)
	}

	pairs := make([]models.CachedIngredient, 0, wireIngredientSlots)
	for i := 1; i <= wireIngredientSlots; i++ {
		name := wireString(raw, fmt.Sprintf("strIngredient%d", i))
		if name == "" {
			continue
		}
		pairs = append(pairs, models.CachedIngredient{
			Name:    name,
			Measure: wireString(raw, fmt.Sprintf("strMeasure%d", i)),
		})
	}
	if err := recipe.SetIngredientPairs(pairs); err != nil {
		return models.CachedRecipe{}, fmt.Errorf("encode ingredients for %q: %w", recipe.Name, err)
	}

	return recipe, nil
}

// wireString reads a string column, tolerating the API's null and
// whitespace-padded values.
func wireString(raw map[string]any, key string) string {
	value, ok := raw[key]
	if !ok || value == nil {
		return ""
	}
	text, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(text)
}
