package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"barkeep/internal/engine"
	applog "barkeep/internal/log"
	"barkeep/models"
)

type stockRequest struct {
	Name      string `json:"name"`
	Category  string `json:"category"`
	CurrentML int    `json:"current_ml"`
	TotalML   int    `json:"total_ml"`
	Aliases   string `json:"aliases"`
	UnitType  string `json:"unit_type"`
}

type adjustRequest struct {
	CurrentML int `json:"current_ml"`
}

type refillRequest struct {
	TotalML *int `json:"total_ml"`
}

// StockResource handles REST-style interactions for inventory records.
func StockResource(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/stock")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listStock(w, r)
		case http.MethodPost:
			createStock(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	segments := strings.Split(path, "/")
	stockID := parseID(segments[0])
	if stockID == 0 {
		applog.Debug(r.Context(), "invalid stock identifier", "identifier", segments[0])
		http.NotFound(w, r)
		return
	}

	if len(segments) > 1 {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		switch segments[1] {
		case "adjust":
			adjustStock(w, r, stockID)
		case "refill":
			refillStock(w, r, stockID)
		default:
			http.NotFound(w, r)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		showStock(w, r, stockID)
	case http.MethodPut:
		updateStock(w, r, stockID)
	case http.MethodDelete:
		deleteStock(w, r, stockID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var items []models.StockItem
	// Insertion order is the matcher's only tie-break; keep it stable.
	if err := database.WithContext(ctx).Order("id asc").Find(&items).Error; err != nil {
		applog.Error(ctx, "failed to list stock", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load stock")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func showStock(w http.ResponseWriter, r *http.Request, stockID uint) {
	ctx := r.Context()
	var item models.StockItem
	if err := database.WithContext(ctx).First(&item, stockID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load stock item", "error", err, "id", stockID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load stock item")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func createStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload stockRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	item, err := stockFromPayload(payload)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := database.WithContext(ctx).Create(&item).Error; err != nil {
		applog.Error(ctx, "failed to create stock item", "error", err)
		writeJSONError(w, http.StatusBadRequest, "unable to create stock item")
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func updateStock(w http.ResponseWriter, r *http.Request, stockID uint) {
	ctx := r.Context()
	var item models.StockItem
	if err := database.WithContext(ctx).First(&item, stockID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load stock item for update", "error", err, "id", stockID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load stock item")
		return
	}

	var payload stockRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	sanitized, err := stockFromPayload(payload)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	updates := map[string]any{
		"name":       sanitized.Name,
		"category":   sanitized.Category,
		"current_ml": sanitized.CurrentML,
		"total_ml":   sanitized.TotalML,
		"aliases":    sanitized.Aliases,
		"unit_type":  sanitized.UnitType,
	}
	if err := database.WithContext(ctx).Model(&item).Updates(updates).Error; err != nil {
		applog.Error(ctx, "failed to update stock item", "error", err, "id", stockID)
		writeJSONError(w, http.StatusBadRequest, "unable to update stock item")
		return
	}

	if err := database.WithContext(ctx).First(&item, stockID).Error; err != nil {
		applog.Error(ctx, "failed to reload stock item", "error", err, "id", stockID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load updated record")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// stockFromPayload validates and clamps a stock payload so no record can
// be stored outside 0 <= current_ml <= total_ml.
func stockFromPayload(payload stockRequest) (models.StockItem, error) {
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		return models.StockItem{}, errors.New("name is required")
	}
	if payload.CurrentML < 0 || payload.TotalML < 0 {
		return models.StockItem{}, errors.New("volumes must not be negative")
	}

	current := payload.CurrentML
	if current > payload.TotalML {
		current = payload.TotalML
	}

	return models.StockItem{
		Name:      name,
		Category:  models.NormalizeCategory(payload.Category),
		CurrentML: current,
		TotalML:   payload.TotalML,
		Aliases:   strings.TrimSpace(payload.Aliases),
		UnitType:  strings.TrimSpace(payload.UnitType),
	}, nil
}

func deleteStock(w http.ResponseWriter, r *http.Request, stockID uint) {
	ctx := r.Context()
	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.StockItem
		if err := tx.First(&item, stockID).Error; err != nil {
			return err
		}

		// Recipes survive the bottle: sever ingredient links instead of
		// cascading the delete.
		if err := tx.Model(&models.DrinkIngredient{}).
			Where("stock_item_id = ?", stockID).
			Update("stock_item_id", nil).Error; err != nil {
			return err
		}

		return tx.Delete(&item).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to delete stock item", "error", err, "id", stockID)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete stock item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func adjustStock(w http.ResponseWriter, r *http.Request, stockID uint) {
	ctx := r.Context()
	var payload adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	item, err := stockLedger.Adjust(ctx, stockID, payload.CurrentML)
	switch {
	case errors.Is(err, engine.ErrNegativeVolume):
		writeJSONError(w, http.StatusBadRequest, "current_ml must not be negative")
	case errors.Is(err, engine.ErrStockNotFound):
		http.NotFound(w, r)
	case err != nil:
		applog.Error(ctx, "failed to adjust stock item", "error", err, "id", stockID)
		writeJSONError(w, http.StatusInternalServerError, "unable to adjust stock item")
	default:
		writeJSON(w, http.StatusOK, item)
	}
}

func refillStock(w http.ResponseWriter, r *http.Request, stockID uint) {
	ctx := r.Context()
	// An empty body is a plain refill to the existing bottle size.
	var payload refillRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	item, err := stockLedger.Refill(ctx, stockID, payload.TotalML)
	switch {
	case errors.Is(err, engine.ErrNegativeVolume):
		writeJSONError(w, http.StatusBadRequest, "total_ml must not be negative")
	case errors.Is(err, engine.ErrStockNotFound):
		http.NotFound(w, r)
	case err != nil:
		applog.Error(ctx, "failed to refill stock item", "error", err, "id", stockID)
		writeJSONError(w, http.StatusInternalServerError, "unable to refill stock item")
	default:
		writeJSON(w, http.StatusOK, item)
	}
}
