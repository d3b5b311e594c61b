package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"barkeep/models"
)

func TestStockCreateClampsCurrentToTotal(t *testing.T) {
	_, cleanupDB := withTestDatabase(t)
	t.Cleanup(cleanupDB)

	body := `{"name":"Rye Whiskey","category":"spirits","current_ml":900,"total_ml":700}`
	req := httptest.NewRequest(http.MethodPost, "/api/stock", strings.NewReader(body))
	w := httptest.NewRecorder()
	StockResource(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var item models.StockItem
	if err := json.Unmarshal(w.Body.Bytes(), &item); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if item.CurrentML != 700 {
		t.Fatalf("expected current_ml clamped to 700, got %d", item.CurrentML)
	}
	if item.Category != models.CategorySpirits {
		t.Fatalf("expected normalized category Spirits, got %q", item.Category)
	}
}

func TestStockCreateRejectsInvalidPayloads(t *testing.T) {
	_, cleanupDB := withTestDatabase(t)
	t.Cleanup(cleanupDB)

	cases := []struct {
		name string
		body string
	}{
		{name: "missing name", body: `{"total_ml":700}`},
		{name: "negative volume", body: `{"name":"Gin","current_ml":-5,"total_ml":700}`},
		{name: "malformed json", body: `{"name":`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/stock", strings.NewReader(tc.body))
			w := httptest.NewRecorder()
			StockResource(w, req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", w.Code)
			}
		})
	}
}

func TestStockAdjustAndRefill(t *testing.T) {
	db, cleanupDB := withTestDatabase(t)
	t.Cleanup(cleanupDB)

	item := models.StockItem{Name: "Campari", Category: models.CategoryLiqueurs, CurrentML: 500, TotalML: 700}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("failed to seed stock: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/stock/1/adjust", strings.NewReader(`{"current_ml":120}`))
	w := httptest.NewRecorder()
	StockResource(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("adjust: expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var adjusted models.StockItem
	if err := json.Unmarshal(w.Body.Bytes(), &adjusted); err != nil {
		t.Fatalf("failed to decode adjust response: %v", err)
	}
	if adjusted.CurrentML != 120 {
		t.Fatalf("expected current_ml 120, got %d", adjusted.CurrentML)
	}

	// Refill with an empty body tops the bottle back up to its size.
	req = httptest.NewRequest(http.MethodPost, "/api/stock/1/refill", nil)
	w = httptest.NewRecorder()
	StockResource(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("refill: expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var refilled models.StockItem
	if err := json.Unmarshal(w.Body.Bytes(), &refilled); err != nil {
		t.Fatalf("failed to decode refill response: %v", err)
	}
	if refilled.CurrentML != 700 {
		t.Fatalf("expected current_ml 700 after refill, got %d", refilled.CurrentML)
	}
}

func TestStockAdjustRejectsNegative(t *testing.T) {
	db, cleanupDB := withTestDatabase(t)
	t.Cleanup(cleanupDB)

	if err := db.Create(&models.StockItem{Name: "Gin", TotalML: 700}).Error; err != nil {
		t.Fatalf("failed to seed stock: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/stock/1/adjust", strings.NewReader(`{"current_ml":-1}`))
	w := httptest.NewRecorder()
	StockResource(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestStockDeletePreservesRecipes(t *testing.T) {
	db, cleanupDB := withTestDatabase(t)
	t.Cleanup(cleanupDB)

	gin := models.StockItem{Name: "Gin", Category: models.CategorySpirits, CurrentML: 700, TotalML: 700}
	if err := db.Create(&gin).Error; err != nil {
		t.Fatalf("failed to seed stock: %v", err)
	}
	amount := 60
	drink := models.Drink{
		Name: "Martini",
		Ingredients: []models.DrinkIngredient{
			{Name: "Gin", StockItemID: &gin.ID, AmountML: &amount},
		},
	}
	if err := db.Create(&drink).Error; err != nil {
		t.Fatalf("failed to seed drink: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/stock/1", nil)
	w := httptest.NewRecorder()
	StockResource(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", w.Code)
	}

	var ingredient models.DrinkIngredient
	if err := db.First(&ingredient, "drink_id = ?", drink.ID).Error; err != nil {
		t.Fatalf("expected ingredient to survive bottle deletion: %v", err)
	}
	if ingredient.StockItemID != nil {
		t.Fatal("expected ingredient link to be severed")
	}
}

func TestStockShowUnknownID(t *testing.T) {
	_, cleanupDB := withTestDatabase(t)
	t.Cleanup(cleanupDB)

	req := httptest.NewRequest(http.MethodGet, "/api/stock/42", nil)
	w := httptest.NewRecorder()
	StockResource(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}
