package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"barkeep/internal/engine"
	applog "barkeep/internal/log"
	"barkeep/models"
)

type shoppingAddRequest struct {
	Name        string `json:"name"`
	StockItemID *uint  `json:"stock_item_id"`
}

// ShoppingResource handles the shopping list: manual entries, derived
// suggestions, and "bought" resolutions that flow back into stock.
func ShoppingResource(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/shopping")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listShopping(w, r)
		case http.MethodPost:
			addShoppingItem(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	segments := strings.Split(path, "/")

	if segments[0] == "suggest" {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		suggestShopping(w, r)
		return
	}

	if segments[0] == "from-drink" && len(segments) > 1 {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		drinkID := parseID(segments[1])
		if drinkID == 0 {
			http.NotFound(w, r)
			return
		}
		shoppingFromDrink(w, r, drinkID)
		return
	}

	itemID := parseID(segments[0])
	if itemID == 0 {
		applog.Debug(r.Context(), "invalid shopping entry identifier", "identifier", segments[0])
		http.NotFound(w, r)
		return
	}

	if len(segments) > 1 && segments[1] == "bought" {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		resolveShoppingBought(w, r, itemID)
		return
	}

	if r.Method == http.MethodDelete {
		removeShoppingItem(w, r, itemID)
		return
	}
	w.WriteHeader(http.StatusMethodNotAllowed)
}

func listShopping(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var entries []models.ShoppingListItem
	if err := database.WithContext(ctx).
		Preload("Drinks").
		Order("id asc").
		Find(&entries).Error; err != nil {
		applog.Error(ctx, "failed to list shopping entries", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load shopping list")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func addShoppingItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload shoppingAddRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if strings.TrimSpace(payload.Name) == "" {
		writeJSONError(w, http.StatusBadRequest, "name is required")
		return
	}

	entry, err := shoppingSvc.Add(ctx, payload.Name, payload.StockItemID)
	if err != nil {
		applog.Error(ctx, "failed to add shopping entry", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to add shopping entry")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func removeShoppingItem(w http.ResponseWriter, r *http.Request, itemID uint) {
	ctx := r.Context()
	if err := shoppingSvc.Remove(ctx, itemID); err != nil {
		if errors.Is(err, engine.ErrShoppingItemNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to remove shopping entry", "error", err, "id", itemID)
		writeJSONError(w, http.StatusInternalServerError, "unable to remove shopping entry")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func suggestShopping(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	added, err := shoppingSvc.AddSuggested(ctx)
	if err != nil {
		applog.Error(ctx, "failed to add suggested entries", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to suggest restock")
		return
	}
	writeJSON(w, http.StatusOK, added)
}

func shoppingFromDrink(w http.ResponseWriter, r *http.Request, drinkID uint) {
	ctx := r.Context()
	touched, err := shoppingSvc.AddMissingFromDrink(ctx, drinkID)
	if err != nil {
		if errors.Is(err, engine.ErrDrinkNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to reconcile drink against shopping list", "error", err, "drink", drinkID)
		writeJSONError(w, http.StatusInternalServerError, "unable to update shopping list")
		return
	}
	writeJSON(w, http.StatusOK, touched)
}

func resolveShoppingBought(w http.ResponseWriter, r *http.Request, itemID uint) {
	ctx := r.Context()

	// The body is optional: linked entries refill without any details.
	var payload *engine.BoughtPayload
	var body engine.BoughtPayload
	err := json.NewDecoder(r.Body).Decode(&body)
	switch {
	case err == nil:
		payload = &body
	case errors.Is(err, io.EOF):
		// no body supplied
	default:
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	result, err := shoppingSvc.ResolveBought(ctx, itemID, payload)
	if err != nil {
		if errors.Is(err, engine.ErrShoppingItemNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to resolve bought entry", "error", err, "id", itemID)
		writeJSONError(w, http.StatusInternalServerError, "unable to resolve purchase")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
