package engine

import (
	"context"
	"testing"

	"barkeep/models"
)

func TestSuggestRestock(t *testing.T) {
	t.Parallel()

	items := []models.StockItem{
		{Name: "Full Gin", CurrentML: 700, TotalML: 700},
		{Name: "Low Vermouth", CurrentML: 100, TotalML: 500},  // 20%
		{Name: "Empty Campari", CurrentML: 0, TotalML: 700},   // 0%
		{Name: "Quarter Tonic", CurrentML: 250, TotalML: 1000}, // exactly 25%
		{Name: "Sizeless Syrup", CurrentML: 10, TotalML: 0},
	}

	low := SuggestRestock(items)

	want := []string{"Empty Campari", "Low Vermouth", "Quarter Tonic"}
	if len(low) != len(want) {
		t.Fatalf("SuggestRestock returned %d items, want %d", len(low), len(want))
	}
	for i, name := range want {
		if low[i].Name != name {
			t.Fatalf("position %d = %q, want %q (ascending fill ratio)", i, low[i].Name, name)
		}
	}
}

func TestAddSuggestedSkipsExistingEntries(t *testing.T) {
	ctx := context.Background()
	db := newEngineTestDB(t)
	shopping := NewShopping(db)

	low := models.StockItem{Name: "Low Vermouth", CurrentML: 50, TotalML: 500}
	if err := db.Create(&low).Error; err != nil {
		t.Fatalf("create stock: %v", err)
	}
	if err := db.Create(&models.ShoppingListItem{Name: "low vermouth"}).Error; err != nil {
		t.Fatalf("create existing entry: %v", err)
	}

	added, err := shopping.AddSuggested(ctx)
	if err != nil {
		t.Fatalf("AddSuggested returned error: %v", err)
	}
	if len(added) != 0 {
		t.Fatalf("expected no new entries (case-insensitive dedup), got %d", len(added))
	}

	var count int64
	if err := db.Model(&models.ShoppingListItem{}).Count(&count).Error; err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 entry, got %d", count)
	}
}

func TestAddSuggestedCreatesLinkedEntries(t *testing.T) {
	ctx := context.Background()
	db := newEngineTestDB(t)
	shopping := NewShopping(db)

	low := models.StockItem{Name: "Campari", CurrentML: 0, TotalML: 700}
	full := models.StockItem{Name: "Gin", CurrentML: 700, TotalML: 700}
	if err := db.Create(&low).Error; err != nil {
		t.Fatalf("create low stock: %v", err)
	}
	if err := db.Create(&full).Error; err != nil {
		t.Fatalf("create full stock: %v", err)
	}

	added, err := shopping.AddSuggested(ctx)
	if err != nil {
		t.Fatalf("AddSuggested returned error: %v", err)
	}
	if len(added) != 1 {
		t.Fatalf("expected 1 suggested entry, got %d", len(added))
	}
	entry := added[0]
	if entry.Name != "Campari" {
		t.Fatalf("entry name = %q, want Campari", entry.Name)
	}
	if !entry.Suggested {
		t.Fatal("entry should be marked suggested")
	}
	if entry.StockItemID == nil || *entry.StockItemID != low.ID {
		t.Fatal("entry should link back to the depleted stock item")
	}
}

func TestAddMissingFromDrink(t *testing.T) {
	ctx := context.Background()
	db := newEngineTestDB(t)
	shopping := NewShopping(db)

	empty := models.StockItem{Name: "Orgeat", CurrentML: 0, TotalML: 250}
	stocked := models.StockItem{Name: "Rum", CurrentML: 500, TotalML: 700}
	if err := db.Create(&empty).Error; err != nil {
		t.Fatalf("create orgeat: %v", err)
	}
	if err := db.Create(&stocked).Error; err != nil {
		t.Fatalf("create rum: %v", err)
	}

	drink := models.Drink{
		Name: "Mai Tai",
		Ingredients: []models.DrinkIngredient{
			{Name: "Rum", StockItemID: &stocked.ID, AmountML: intPtr(60)},
			{Name: "Orgeat", StockItemID: &empty.ID, AmountML: intPtr(15)},
			{Name: "Falernum"}, // unresolved
		},
	}
	if err := db.Create(&drink).Error; err != nil {
		t.Fatalf("create drink: %v", err)
	}

	touched, err := shopping.AddMissingFromDrink(ctx, drink.ID)
	if err != nil {
		t.Fatalf("AddMissingFromDrink returned error: %v", err)
	}
	if len(touched) != 2 {
		t.Fatalf("expected 2 entries (empty + unresolved), got %d", len(touched))
	}

	// Running it again must not duplicate entries.
	if _, err := shopping.AddMissingFromDrink(ctx, drink.ID); err != nil {
		t.Fatalf("second AddMissingFromDrink returned error: %v", err)
	}
	var count int64
	if err := db.Model(&models.ShoppingListItem{}).Count(&count).Error; err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 entries after rerun, got %d", count)
	}

	var orgeatEntry models.ShoppingListItem
	if err := db.Where("lower(name) = ?", "orgeat").First(&orgeatEntry).Error; err != nil {
		t.Fatalf("load orgeat entry: %v", err)
	}
	if orgeatEntry.Suggested {
		t.Fatal("drink-derived entries must not be marked suggested")
	}
	if orgeatEntry.StockItemID == nil || *orgeatEntry.StockItemID != empty.ID {
		t.Fatal("resolved-but-empty entry should keep its stock link")
	}

	var linked int64
	if err := db.Table("shopping_list_item_drinks").
		Where("shopping_list_item_id = ?", orgeatEntry.ID).
		Count(&linked).Error; err != nil {
		t.Fatalf("count drink links: %v", err)
	}
	if linked != 1 {
		t.Fatalf("expected 1 drink link, got %d", linked)
	}
}

func TestAddMissingClearsSuggestedFlag(t *testing.T) {
	ctx := context.Background()
	db := newEngineTestDB(t)
	shopping := NewShopping(db)

	if err := db.Create(&models.ShoppingListItem{Name: "Falernum", Suggested: true}).Error; err != nil {
		t.Fatalf("create suggested entry: %v", err)
	}

	drink := models.Drink{
		Name: "Corn n Oil",
		Ingredients: []models.DrinkIngredient{
			{Name: "falernum"},
		},
	}
	if err := db.Create(&drink).Error; err != nil {
		t.Fatalf("create drink: %v", err)
	}

	touched, err := shopping.AddMissingFromDrink(ctx, drink.ID)
	if err != nil {
		t.Fatalf("AddMissingFromDrink returned error: %v", err)
	}
	if len(touched) != 1 {
		t.Fatalf("expected 1 touched entry, got %d", len(touched))
	}
	if touched[0].Suggested {
		t.Fatal("existing suggested entry should be re-marked as user-originated")
	}
}

func TestResolveBoughtRefillsLinkedEntry(t *testing.T) {
	ctx := context.Background()
	db := newEngineTestDB(t)
	shopping := NewShopping(db)

	stock := models.StockItem{Name: "Campari", CurrentML: 30, TotalML: 700}
	if err := db.Create(&stock).Error; err != nil {
		t.Fatalf("create stock: %v", err)
	}
	entry := models.ShoppingListItem{Name: "Campari", StockItemID: &stock.ID}
	if err := db.Create(&entry).Error; err != nil {
		t.Fatalf("create entry: %v", err)
	}

	result, err := shopping.ResolveBought(ctx, entry.ID, nil)
	if err != nil {
		t.Fatalf("ResolveBought returned error: %v", err)
	}
	if result.Action != ActionRefilled {
		t.Fatalf("action = %q, want %q", result.Action, ActionRefilled)
	}
	if result.Stock == nil || result.Stock.CurrentML != 700 || result.Stock.TotalML != 700 {
		t.Fatalf("stock not refilled to existing size: %+v", result.Stock)
	}

	var remaining int64
	if err := db.Model(&models.ShoppingListItem{}).Count(&remaining).Error; err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected entry removal, %d left", remaining)
	}
}

func TestResolveBoughtAdoptsNewSize(t *testing.T) {
	ctx := context.Background()
	db := newEngineTestDB(t)
	shopping := NewShopping(db)

	stock := models.StockItem{Name: "Campari", CurrentML: 30, TotalML: 700}
	if err := db.Create(&stock).Error; err != nil {
		t.Fatalf("create stock: %v", err)
	}
	entry := models.ShoppingListItem{Name: "Campari", StockItemID: &stock.ID}
	if err := db.Create(&entry).Error; err != nil {
		t.Fatalf("create entry: %v", err)
	}

	result, err := shopping.ResolveBought(ctx, entry.ID, &BoughtPayload{TotalML: 1000})
	if err != nil {
		t.Fatalf("ResolveBought returned error: %v", err)
	}
	if result.Action != ActionRefilled {
		t.Fatalf("action = %q, want %q", result.Action, ActionRefilled)
	}
	if result.Stock.TotalML != 1000 || result.Stock.CurrentML != 1000 {
		t.Fatalf("stock should adopt new size: %+v", result.Stock)
	}
}

func TestResolveBoughtNeedsSize(t *testing.T) {
	ctx := context.Background()
	db := newEngineTestDB(t)
	shopping := NewShopping(db)

	entry := models.ShoppingListItem{Name: "Aquafaba"}
	if err := db.Create(&entry).Error; err != nil {
		t.Fatalf("create entry: %v", err)
	}

	result, err := shopping.ResolveBought(ctx, entry.ID, nil)
	if err != nil {
		t.Fatalf("ResolveBought returned error: %v", err)
	}
	if result.Action != ActionNeedsSize {
		t.Fatalf("action = %q, want %q", result.Action, ActionNeedsSize)
	}

	// Nothing may mutate on a needs_size outcome.
	var entries, stock int64
	if err := db.Model(&models.ShoppingListItem{}).Count(&entries).Error; err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if err := db.Model(&models.StockItem{}).Count(&stock).Error; err != nil {
		t.Fatalf("count stock: %v", err)
	}
	if entries != 1 || stock != 0 {
		t.Fatalf("expected no mutation, entries=%d stock=%d", entries, stock)
	}
}

func TestResolveBoughtCreatesStock(t *testing.T) {
	ctx := context.Background()
	db := newEngineTestDB(t)
	shopping := NewShopping(db)

	entry := models.ShoppingListItem{Name: "Aquafaba"}
	if err := db.Create(&entry).Error; err != nil {
		t.Fatalf("create entry: %v", err)
	}

	result, err := shopping.ResolveBought(ctx, entry.ID, &BoughtPayload{TotalML: 500, Category: "mixers"})
	if err != nil {
		t.Fatalf("ResolveBought returned error: %v", err)
	}
	if result.Action != ActionCreated {
		t.Fatalf("action = %q, want %q", result.Action, ActionCreated)
	}
	if result.Stock == nil || result.Stock.CurrentML != 500 || result.Stock.TotalML != 500 {
		t.Fatalf("created stock should be full: %+v", result.Stock)
	}
	if result.Stock.Category != "Mixers" {
		t.Fatalf("category = %q, want normalized Mixers", result.Stock.Category)
	}

	var remaining int64
	if err := db.Model(&models.ShoppingListItem{}).Count(&remaining).Error; err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected entry removal, %d left", remaining)
	}
}

func TestResolveBoughtUnknownEntry(t *testing.T) {
	db := newEngineTestDB(t)
	shopping := NewShopping(db)

	if _, err := shopping.ResolveBought(context.Background(), 777, nil); err != ErrShoppingItemNotFound {
		t.Fatalf("expected ErrShoppingItemNotFound, got %v", err)
	}
}
