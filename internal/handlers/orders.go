package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"barkeep/internal/engine"
	applog "barkeep/internal/log"
	"barkeep/models"
)

type orderRequest struct {
	DrinkID   uint   `json:"drink_id"`
	GuestName string `json:"guest_name"`
	Notes     string `json:"notes"`
}

// OrderResource handles guest drink orders. Creating an order and
// checking it by token are public; everything else requires the host to
// be signed in.
func OrderResource(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/orders")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodPost:
			createOrder(w, r)
		case http.MethodGet:
			if !requireUser(w, r) {
				return
			}
			listOrders(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	segments := strings.Split(path, "/")

	if segments[0] == "token" && len(segments) > 1 {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		showOrderByToken(w, r, segments[1])
		return
	}

	orderID := parseID(segments[0])
	if orderID == 0 {
		applog.Debug(r.Context(), "invalid order identifier", "identifier", segments[0])
		http.NotFound(w, r)
		return
	}

	// Order routes sit outside the authenticated route group because
	// guests must reach them, so host-only actions are gated here.
	if !requireUser(w, r) {
		return
	}

	if len(segments) > 1 {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		switch segments[1] {
		case "accept":
			transitionOrder(w, r, orderID, models.OrderPending, models.OrderAccepted)
		case "reject":
			transitionOrder(w, r, orderID, models.OrderPending, models.OrderRejected)
		case "done":
			completeOrder(w, r, orderID)
		default:
			http.NotFound(w, r)
		}
		return
	}

	w.WriteHeader(http.StatusMethodNotAllowed)
}

func createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload orderRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if payload.DrinkID == 0 {
		writeJSONError(w, http.StatusBadRequest, "drink_id is required")
		return
	}

	var drink models.Drink
	if err := database.WithContext(ctx).First(&drink, payload.DrinkID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSONError(w, http.StatusBadRequest, "unknown drink")
			return
		}
		applog.Error(ctx, "failed to load drink for order", "error", err, "drink", payload.DrinkID)
		writeJSONError(w, http.StatusInternalServerError, "unable to place order")
		return
	}

	order := models.GuestOrder{
		DrinkID:   drink.ID,
		GuestName: strings.TrimSpace(payload.GuestName),
		Notes:     strings.TrimSpace(payload.Notes),
		Token:     uuid.NewString(),
		Status:    models.OrderPending,
	}
	if err := database.WithContext(ctx).Create(&order).Error; err != nil {
		applog.Error(ctx, "failed to create guest order", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to place order")
		return
	}

	order.Drink = &drink
	writeJSON(w, http.StatusCreated, order)
}

func listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := database.WithContext(ctx).Preload("Drink").Order("created_at asc")

	if status := strings.TrimSpace(r.URL.Query().Get("status")); status != "" {
		if !models.ValidOrderStatus(status) {
			writeJSONError(w, http.StatusBadRequest, "unknown order status")
			return
		}
		query = query.Where("status = ?", status)
	}

	var orders []models.GuestOrder
	if err := query.Find(&orders).Error; err != nil {
		applog.Error(ctx, "failed to list guest orders", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load orders")
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func showOrderByToken(w http.ResponseWriter, r *http.Request, token string) {
	ctx := r.Context()
	var order models.GuestOrder
	err := database.WithContext(ctx).
		Preload("Drink").
		Where("token = ?", token).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load guest order", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load order")
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func transitionOrder(w http.ResponseWriter, r *http.Request, orderID uint, from, to string) {
	ctx := r.Context()
	var order models.GuestOrder
	if err := database.WithContext(ctx).Preload("Drink").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load order for transition", "error", err, "id", orderID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load order")
		return
	}

	// The update is conditional on the expected status so two racing
	// requests cannot both claim the same transition.
	claim := database.WithContext(ctx).Model(&order).
		Where("status = ?", from).
		Update("status", to)
	if claim.Error != nil {
		applog.Error(ctx, "failed to update order status", "error", claim.Error, "id", orderID)
		writeJSONError(w, http.StatusInternalServerError, "unable to update order")
		return
	}
	if claim.RowsAffected == 0 {
		writeJSONError(w, http.StatusConflict, "order is not "+from)
		return
	}
	order.Status = to
	writeJSON(w, http.StatusOK, order)
}

// completeOrder marks an accepted order done and deducts the drink from
// stock in the same breath, so serving a guest keeps the ledger honest.
func completeOrder(w http.ResponseWriter, r *http.Request, orderID uint) {
	ctx := r.Context()
	var order models.GuestOrder
	if err := database.WithContext(ctx).First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load order for completion", "error", err, "id", orderID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load order")
		return
	}

	// Claim accepted -> done before touching the ledger: the conditional
	// update lets exactly one of two racing requests through, so one order
	// can never be poured twice.
	claim := database.WithContext(ctx).Model(&order).
		Where("status = ?", models.OrderAccepted).
		Update("status", models.OrderDone)
	if claim.Error != nil {
		applog.Error(ctx, "failed to mark order done", "error", claim.Error, "id", orderID)
		writeJSONError(w, http.StatusInternalServerError, "unable to update order")
		return
	}
	if claim.RowsAffected == 0 {
		writeJSONError(w, http.StatusConflict, "order is not accepted")
		return
	}
	order.Status = models.OrderDone

	result, err := stockLedger.Deduct(ctx, order.DrinkID)
	if errors.Is(err, engine.ErrDrinkNotFound) {
		// The drink was deleted after the order was accepted; the order
		// still completes, there is just nothing left to pour.
		applog.Warn(ctx, "completing order for deleted drink", "id", orderID, "drink", order.DrinkID)
		writeJSON(w, http.StatusOK, order)
		return
	}
	if err != nil {
		applog.Error(ctx, "failed to deduct stock for order", "error", err, "id", orderID)
		writeJSONError(w, http.StatusInternalServerError, "unable to complete order")
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
