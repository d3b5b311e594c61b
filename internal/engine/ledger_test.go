package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"barkeep/models"
)

func TestDeductConsumesAndCounts(t *testing.T) {
	ctx := context.Background()
	db := newEngineTestDB(t)
	ledger := NewLedger(db)

	gin := models.StockItem{Name: "Gin", CurrentML: 700, TotalML: 700}
	vermouth := models.StockItem{Name: "Dry Vermouth", CurrentML: 100, TotalML: 500}
	if err := db.Create(&gin).Error; err != nil {
		t.Fatalf("create gin: %v", err)
	}
	if err := db.Create(&vermouth).Error; err != nil {
		t.Fatalf("create vermouth: %v", err)
	}

	drink := models.Drink{
		Name: "Martini",
		Ingredients: []models.DrinkIngredient{
			{Name: "Gin", StockItemID: &gin.ID, AmountML: intPtr(60)},
			{Name: "Dry Vermouth", StockItemID: &vermouth.ID, AmountML: intPtr(10)},
			{Name: "Olive", Optional: true}, // unresolved, no quantity
		},
	}
	if err := db.Create(&drink).Error; err != nil {
		t.Fatalf("create drink: %v", err)
	}

	result, err := ledger.Deduct(ctx, drink.ID)
	if err != nil {
		t.Fatalf("Deduct returned error: %v", err)
	}

	if result.Drink.TimesMade != 1 {
		t.Fatalf("TimesMade = %d, want 1", result.Drink.TimesMade)
	}
	if len(result.Updated) != 2 {
		t.Fatalf("expected 2 updated stock rows, got %d", len(result.Updated))
	}
	if result.ConsumedML[gin.ID] != 60 {
		t.Fatalf("consumed gin = %d, want 60", result.ConsumedML[gin.ID])
	}
	if result.ConsumedML[vermouth.ID] != 10 {
		t.Fatalf("consumed vermouth = %d, want 10", result.ConsumedML[vermouth.ID])
	}

	var reloaded models.StockItem
	if err := db.First(&reloaded, gin.ID).Error; err != nil {
		t.Fatalf("reload gin: %v", err)
	}
	if reloaded.CurrentML != 640 {
		t.Fatalf("gin CurrentML = %d, want 640", reloaded.CurrentML)
	}
	if reloaded.TotalUsedML != 60 {
		t.Fatalf("gin TotalUsedML = %d, want 60", reloaded.TotalUsedML)
	}
}

func TestDeductClampsAtZero(t *testing.T) {
	ctx := context.Background()
	db := newEngineTestDB(t)
	ledger := NewLedger(db)

	rum := models.StockItem{Name: "Rum", CurrentML: 20, TotalML: 700}
	if err := db.Create(&rum).Error; err != nil {
		t.Fatalf("create rum: %v", err)
	}

	drink := models.Drink{
		Name: "Daiquiri",
		Ingredients: []models.DrinkIngredient{
			{Name: "Rum", StockItemID: &rum.ID, AmountML: intPtr(50)},
		},
	}
	if err := db.Create(&drink).Error; err != nil {
		t.Fatalf("create drink: %v", err)
	}

	result, err := ledger.Deduct(ctx, drink.ID)
	if err != nil {
		t.Fatalf("Deduct returned error: %v", err)
	}

	if result.ConsumedML[rum.ID] != 20 {
		t.Fatalf("consumed = %d, want 20 (clamped)", result.ConsumedML[rum.ID])
	}

	var reloaded models.StockItem
	if err := db.First(&reloaded, rum.ID).Error; err != nil {
		t.Fatalf("reload rum: %v", err)
	}
	if reloaded.CurrentML != 0 {
		t.Fatalf("CurrentML = %d, want 0", reloaded.CurrentML)
	}
	if reloaded.TotalUsedML != 20 {
		t.Fatalf("TotalUsedML = %d, want 20, not the requested 50", reloaded.TotalUsedML)
	}
}

func TestDeductSkipsUnresolvedAndQuantityless(t *testing.T) {
	ctx := context.Background()
	db := newEngineTestDB(t)
	ledger := NewLedger(db)

	soda := models.StockItem{Name: "Soda Water", CurrentML: 500, TotalML: 1000}
	if err := db.Create(&soda).Error; err != nil {
		t.Fatalf("create soda: %v", err)
	}

	drink := models.Drink{
		Name: "Mystery Highball",
		Ingredients: []models.DrinkIngredient{
			{Name: "mystery spirit"},                   // unresolved
			{Name: "Soda Water", StockItemID: &soda.ID}, // no quantity
		},
	}
	if err := db.Create(&drink).Error; err != nil {
		t.Fatalf("create drink: %v", err)
	}

	result, err := ledger.Deduct(ctx, drink.ID)
	if err != nil {
		t.Fatalf("Deduct returned error: %v", err)
	}

	if len(result.Updated) != 0 {
		t.Fatalf("expected no stock updates, got %d", len(result.Updated))
	}
	if result.Drink.TimesMade != 1 {
		t.Fatalf("TimesMade = %d, want 1", result.Drink.TimesMade)
	}

	var reloaded models.StockItem
	if err := db.First(&reloaded, soda.ID).Error; err != nil {
		t.Fatalf("reload soda: %v", err)
	}
	if reloaded.CurrentML != 500 {
		t.Fatalf("CurrentML = %d, want untouched 500", reloaded.CurrentML)
	}
}

func TestDeductUnknownDrink(t *testing.T) {
	db := newEngineTestDB(t)
	ledger := NewLedger(db)

	if _, err := ledger.Deduct(context.Background(), 4242); !errors.Is(err, ErrDrinkNotFound) {
		t.Fatalf("expected ErrDrinkNotFound, got %v", err)
	}
}

func TestConcurrentDeductionsNeverDoubleSpend(t *testing.T) {
	ctx := context.Background()
	db := newEngineTestDB(t)
	ledger := NewLedger(db)

	shared := models.StockItem{Name: "Amaro", CurrentML: 50, TotalML: 700}
	if err := db.Create(&shared).Error; err != nil {
		t.Fatalf("create amaro: %v", err)
	}

	makeDrink := func(name string) models.Drink {
		drink := models.Drink{
			Name: name,
			Ingredients: []models.DrinkIngredient{
				{Name: "Amaro", StockItemID: &shared.ID, AmountML: intPtr(40)},
			},
		}
		if err := db.Create(&drink).Error; err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		return drink
	}
	first := makeDrink("Paper Plane")
	second := makeDrink("Black Manhattan")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []uint{first.ID, second.ID} {
		wg.Add(1)
		go func(slot int, drinkID uint) {
			defer wg.Done()
			_, errs[slot] = ledger.Deduct(ctx, drinkID)
		}(i, id)
	}
	wg.Wait()

	// Either call may lose to lock contention, but the inventory must
	// never go negative and the consumed total must never exceed what
	// was actually in the bottle.
	var reloaded models.StockItem
	if err := db.First(&reloaded, shared.ID).Error; err != nil {
		t.Fatalf("reload amaro: %v", err)
	}
	if reloaded.CurrentML < 0 {
		t.Fatalf("CurrentML = %d, must never be negative", reloaded.CurrentML)
	}
	if reloaded.TotalUsedML > 50 {
		t.Fatalf("TotalUsedML = %d, exceeds the 50 ml that existed", reloaded.TotalUsedML)
	}
	if reloaded.CurrentML+reloaded.TotalUsedML != 50 {
		t.Fatalf("CurrentML %d + TotalUsedML %d != 50: an update was lost",
			reloaded.CurrentML, reloaded.TotalUsedML)
	}

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	if succeeded == 0 {
		t.Fatalf("expected at least one deduction to succeed: %v, %v", errs[0], errs[1])
	}
}

func TestAdjustClampsAndRejects(t *testing.T) {
	ctx := context.Background()
	db := newEngineTestDB(t)
	ledger := NewLedger(db)

	tonic := models.StockItem{Name: "Tonic", CurrentML: 300, TotalML: 500}
	if err := db.Create(&tonic).Error; err != nil {
		t.Fatalf("create tonic: %v", err)
	}

	if _, err := ledger.Adjust(ctx, tonic.ID, -10); !errors.Is(err, ErrNegativeVolume) {
		t.Fatalf("expected ErrNegativeVolume, got %v", err)
	}

	updated, err := ledger.Adjust(ctx, tonic.ID, 900)
	if err != nil {
		t.Fatalf("Adjust returned error: %v", err)
	}
	if updated.CurrentML != 500 {
		t.Fatalf("CurrentML = %d, want clamped 500", updated.CurrentML)
	}

	updated, err = ledger.Adjust(ctx, tonic.ID, 120)
	if err != nil {
		t.Fatalf("Adjust returned error: %v", err)
	}
	if updated.CurrentML != 120 {
		t.Fatalf("CurrentML = %d, want 120", updated.CurrentML)
	}

	if _, err := ledger.Adjust(ctx, 999, 10); !errors.Is(err, ErrStockNotFound) {
		t.Fatalf("expected ErrStockNotFound, got %v", err)
	}
}

func TestRefill(t *testing.T) {
	ctx := context.Background()
	db := newEngineTestDB(t)
	ledger := NewLedger(db)

	campari := models.StockItem{Name: "Campari", CurrentML: 50, TotalML: 700}
	if err := db.Create(&campari).Error; err != nil {
		t.Fatalf("create campari: %v", err)
	}

	updated, err := ledger.Refill(ctx, campari.ID, nil)
	if err != nil {
		t.Fatalf("Refill returned error: %v", err)
	}
	if updated.CurrentML != 700 || updated.TotalML != 700 {
		t.Fatalf("after refill: current %d total %d, want 700/700", updated.CurrentML, updated.TotalML)
	}

	updated, err = ledger.Refill(ctx, campari.ID, intPtr(1000))
	if err != nil {
		t.Fatalf("Refill with size returned error: %v", err)
	}
	if updated.CurrentML != 1000 || updated.TotalML != 1000 {
		t.Fatalf("after resize refill: current %d total %d, want 1000/1000", updated.CurrentML, updated.TotalML)
	}
}
