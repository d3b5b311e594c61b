package importer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"barkeep/internal/config"
)

func TestSearchByNameDecodesWireFormat(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search.php" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("s"); got != "margarita" {
			t.Errorf("search term = %q, want margarita", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"drinks": [{
			"idDrink": "11007",
			"strDrink": "Margarita",
			"strCategory": "Ordinary Drink",
			"strInstructions": "Shake with ice.",
			"strIngredient1": "Tequila",
			"strMeasure1": "1 1/2 oz ",
			"strIngredient2": "Lime juice",
			"strMeasure2": "1 oz",
			"strIngredient3": null,
			"strMeasure3": null
		}]}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(config.ImporterConfig{
		APIBaseURL: server.URL,
		APITimeout: 5 * time.Second,
	})

	recipes, err := client.SearchByName(context.Background(), "margarita")
	if err != nil {
		t.Fatalf("SearchByName returned error: %v", err)
	}
	if len(recipes) != 1 {
		t.Fatalf("expected 1 recipe, got %d", len(recipes))
	}

	recipe := recipes[0]
	if recipe.SourceID != "11007" {
		t.Fatalf("SourceID = %q, want 11007", recipe.SourceID)
	}
	if recipe.Name != "Margarita" {
		t.Fatalf("Name = %q, want Margarita", recipe.Name)
	}

	pairs := recipe.IngredientPairs()
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs (nulls skipped), got %d", len(pairs))
	}
	if pairs[0].Name != "Tequila" || pairs[0].Measure != "1 1/2 oz" {
		t.Fatalf("unexpected first pair: %+v", pairs[0])
	}
}

func TestSearchByNameEmptyResult(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"drinks": null}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(config.ImporterConfig{APIBaseURL: server.URL, APITimeout: time.Second})

	recipes, err := client.SearchByName(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("SearchByName returned error: %v", err)
	}
	if len(recipes) != 0 {
		t.Fatalf("expected no recipes, got %d", len(recipes))
	}
}

func TestSearchByNameServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	client := NewClient(config.ImporterConfig{APIBaseURL: server.URL, APITimeout: time.Second})

	if _, err := client.SearchByName(context.Background(), "margarita"); err == nil {
		t.Fatal("expected error for upstream failure")
	}
}
