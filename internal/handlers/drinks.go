package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"barkeep/internal/engine"
	applog "barkeep/internal/log"
	"barkeep/internal/measure"
	"barkeep/models"
)

type drinkIngredientRequest struct {
	Name        string `json:"name"`
	StockItemID *uint  `json:"stock_item_id"`
	AmountML    *int   `json:"amount_ml"`
	AmountText  string `json:"amount_text"`
	Optional    bool   `json:"optional"`
}

type drinkRequest struct {
	Name         string                   `json:"name"`
	Category     string                   `json:"category"`
	Instructions string                   `json:"instructions"`
	Ingredients  []drinkIngredientRequest `json:"ingredients"`
}

type drinkResponse struct {
	ID           uint                     `json:"id"`
	Name         string                   `json:"name"`
	Category     string                   `json:"category"`
	Instructions string                   `json:"instructions"`
	TimesMade    int                      `json:"times_made"`
	SourceID     string                   `json:"source_id,omitempty"`
	Ingredients  []models.DrinkIngredient `json:"ingredients"`
	CanMake      bool                     `json:"can_make"`
	ServingsLeft int                      `json:"servings_left"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

type makeResponse struct {
	Drink      drinkResponse      `json:"drink"`
	Updated    []models.StockItem `json:"updated_stock"`
	ConsumedML map[uint]int       `json:"consumed_ml"`
}

// DrinkResource handles REST-style interactions for drink records,
// including the availability read and the "make" event.
func DrinkResource(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/drinks")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listDrinks(w, r)
		case http.MethodPost:
			createDrink(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	segments := strings.Split(path, "/")
	drinkID := parseID(segments[0])
	if drinkID == 0 {
		applog.Debug(r.Context(), "invalid drink identifier", "identifier", segments[0])
		http.NotFound(w, r)
		return
	}

	if len(segments) > 1 && segments[1] == "make" {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		makeDrink(w, r, drinkID)
		return
	}

	switch r.Method {
	case http.MethodGet:
		showDrink(w, r, drinkID)
	case http.MethodPut:
		updateDrink(w, r, drinkID)
	case http.MethodDelete:
		deleteDrink(w, r, drinkID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func loadStockSnapshot(ctx context.Context) ([]models.StockItem, error) {
	var stock []models.StockItem
	err := database.WithContext(ctx).Order("id asc").Find(&stock).Error
	return stock, err
}

func projectDrink(drink models.Drink, stock []models.StockItem) drinkResponse {
	// Availability is recomputed on every read; it is never cached or
	// stored, so it always reflects the latest committed stock state.
	availability := engine.ComputeAvailability(drink, stock)

	ingredients := drink.Ingredients
	if ingredients == nil {
		ingredients = []models.DrinkIngredient{}
	}

	return drinkResponse{
		ID:           drink.ID,
		Name:         drink.Name,
		Category:     drink.Category,
		Instructions: drink.Instructions,
		TimesMade:    drink.TimesMade,
		SourceID:     drink.SourceID,
		Ingredients:  ingredients,
		CanMake:      availability.CanMake,
		ServingsLeft: availability.Servings.Display(),
		CreatedAt:    drink.CreatedAt,
		UpdatedAt:    drink.UpdatedAt,
	}
}

func listDrinks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var drinks []models.Drink
	if err := database.WithContext(ctx).
		Preload("Ingredients").
		Order("name asc").
		Find(&drinks).Error; err != nil {
		applog.Error(ctx, "failed to list drinks", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load drinks")
		return
	}

	stock, err := loadStockSnapshot(ctx)
	if err != nil {
		applog.Error(ctx, "failed to load stock snapshot", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load stock")
		return
	}

	responses := make([]drinkResponse, 0, len(drinks))
	for _, drink := range drinks {
		responses = append(responses, projectDrink(drink, stock))
	}
	writeJSON(w, http.StatusOK, responses)
}

func showDrink(w http.ResponseWriter, r *http.Request, drinkID uint) {
	ctx := r.Context()
	var drink models.Drink
	if err := database.WithContext(ctx).
		Preload("Ingredients").
		First(&drink, drinkID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load drink", "error", err, "id", drinkID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load drink")
		return
	}

	stock, err := loadStockSnapshot(ctx)
	if err != nil {
		applog.Error(ctx, "failed to load stock snapshot", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load stock")
		return
	}

	writeJSON(w, http.StatusOK, projectDrink(drink, stock))
}

// buildIngredients converts payload rows into ingredient records,
// parsing quantities from text when no canonical amount was supplied and
// resolving names against inventory when no link was.
func buildIngredients(payload []drinkIngredientRequest, stock []models.StockItem) []models.DrinkIngredient {
	ingredients := make([]models.DrinkIngredient, 0, len(payload))
	for _, row := range payload {
		name := strings.TrimSpace(row.Name)
		if name == "" {
			continue
		}

		ingredient := models.DrinkIngredient{
			Name:        name,
			StockItemID: row.StockItemID,
			AmountML:    row.AmountML,
			AmountText:  strings.TrimSpace(row.AmountText),
			Optional:    row.Optional,
		}

		if ingredient.AmountML == nil && ingredient.AmountText != "" {
			if ml, ok := measure.Parse(ingredient.AmountText); ok {
				ingredient.AmountML = &ml
			}
		}
		if ingredient.StockItemID == nil {
			if match := engine.MatchStock(name, stock); match != nil {
				id := match.ID
				ingredient.StockItemID = &id
			}
		}

		ingredients = append(ingredients, ingredient)
	}
	return ingredients
}

func createDrink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload drinkRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	name := strings.TrimSpace(payload.Name)
	if name == "" {
		writeJSONError(w, http.StatusBadRequest, "name is required")
		return
	}

	stock, err := loadStockSnapshot(ctx)
	if err != nil {
		applog.Error(ctx, "failed to load stock snapshot", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load stock")
		return
	}

	drink := models.Drink{
		Name:         name,
		Category:     strings.TrimSpace(payload.Category),
		Instructions: payload.Instructions,
		Ingredients:  buildIngredients(payload.Ingredients, stock),
	}
	if err := database.WithContext(ctx).Create(&drink).Error; err != nil {
		applog.Error(ctx, "failed to create drink", "error", err)
		writeJSONError(w, http.StatusBadRequest, "unable to create drink")
		return
	}

	writeJSON(w, http.StatusCreated, projectDrink(drink, stock))
}

func updateDrink(w http.ResponseWriter, r *http.Request, drinkID uint) {
	ctx := r.Context()
	var drink models.Drink
	if err := database.WithContext(ctx).First(&drink, drinkID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load drink for update", "error", err, "id", drinkID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load drink")
		return
	}

	var payload drinkRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	name := strings.TrimSpace(payload.Name)
	if name == "" {
		writeJSONError(w, http.StatusBadRequest, "name is required")
		return
	}

	stock, err := loadStockSnapshot(ctx)
	if err != nil {
		applog.Error(ctx, "failed to load stock snapshot", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load stock")
		return
	}

	ingredients := buildIngredients(payload.Ingredients, stock)

	// Saving a recipe replaces its ingredient list wholesale; partial
	// patching of ingredient rows is not supported.
	err = database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&drink).Updates(map[string]any{
			"name":         name,
			"category":     strings.TrimSpace(payload.Category),
			"instructions": payload.Instructions,
		}).Error; err != nil {
			return err
		}

		if err := tx.Unscoped().
			Where("drink_id = ?", drinkID).
			Delete(&models.DrinkIngredient{}).Error; err != nil {
			return err
		}

		for i := range ingredients {
			ingredients[i].DrinkID = drinkID
			if err := tx.Create(&ingredients[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		applog.Error(ctx, "failed to update drink", "error", err, "id", drinkID)
		writeJSONError(w, http.StatusBadRequest, "unable to update drink")
		return
	}

	if err := database.WithContext(ctx).Preload("Ingredients").First(&drink, drinkID).Error; err != nil {
		applog.Error(ctx, "failed to reload drink", "error", err, "id", drinkID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load updated record")
		return
	}
	writeJSON(w, http.StatusOK, projectDrink(drink, stock))
}

func deleteDrink(w http.ResponseWriter, r *http.Request, drinkID uint) {
	ctx := r.Context()
	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var drink models.Drink
		if err := tx.First(&drink, drinkID).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().
			Where("drink_id = ?", drinkID).
			Delete(&models.DrinkIngredient{}).Error; err != nil {
			return err
		}
		return tx.Delete(&drink).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to delete drink", "error", err, "id", drinkID)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete drink")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func makeDrink(w http.ResponseWriter, r *http.Request, drinkID uint) {
	ctx := r.Context()
	result, err := stockLedger.Deduct(ctx, drinkID)
	if err != nil {
		if errors.Is(err, engine.ErrDrinkNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to deduct drink", "error", err, "id", drinkID)
		writeJSONError(w, http.StatusInternalServerError, "unable to make drink")
		return
	}

	stock, err := loadStockSnapshot(ctx)
	if err != nil {
		applog.Error(ctx, "failed to load stock snapshot", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load stock")
		return
	}

	updated := result.Updated
	if updated == nil {
		updated = []models.StockItem{}
	}

	writeJSON(w, http.StatusOK, makeResponse{
		Drink:      projectDrink(result.Drink, stock),
		Updated:    updated,
		ConsumedML: result.ConsumedML,
	})
}
