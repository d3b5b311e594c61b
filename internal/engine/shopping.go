package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	applog "barkeep/internal/log"
	"barkeep/models"
)

// ErrShoppingItemNotFound is returned when a shopping entry id does not exist.
var ErrShoppingItemNotFound = errors.New("engine: shopping list item not found")

// restockThreshold is the fill ratio at or below which a bottle counts as
// running low.
const restockThreshold = 0.25

// SuggestRestock returns the stock items that are running low, most
// depleted first. Items without a known bottle size are skipped because
// their ratio means nothing.
func SuggestRestock(items []models.StockItem) []models.StockItem {
	low := make([]models.StockItem, 0)
	for _, item := range items {
		if item.TotalML <= 0 {
			continue
		}
		if item.FillRatio() <= restockThreshold {
			low = append(low, item)
		}
	}

	sort.SliceStable(low, func(i, j int) bool {
		return low[i].FillRatio() < low[j].FillRatio()
	})

	return low
}

// BoughtAction tells the caller how a "bought" resolution was handled.
type BoughtAction string

const (
	// ActionRefilled means an existing bottle was topped back up to full.
	ActionRefilled BoughtAction = "refilled"
	// ActionCreated means a new stock item was created from the entry.
	ActionCreated BoughtAction = "created"
	// ActionNeedsSize means nothing happened: the entry is not linked to
	// stock and the caller must re-invoke with a bottle size.
	ActionNeedsSize BoughtAction = "needs_size"
)

// BoughtPayload carries the optional bottle details supplied with a
// "bought" resolution.
type BoughtPayload struct {
	TotalML  int    `json:"total_ml"`
	Category string `json:"category"`
}

// BoughtResult is the outcome of resolving a bought shopping entry.
type BoughtResult struct {
	Action BoughtAction      `json:"action"`
	Stock  *models.StockItem `json:"stock,omitempty"`
}

// Shopping reconciles the shopping list against inventory: deriving
// entries from missing or depleted ingredients and folding "bought"
// events back into stock.
type Shopping struct {
	db     *gorm.DB
	ledger *Ledger
}

// NewShopping binds the reconciliation service to a database handle.
func NewShopping(db *gorm.DB) *Shopping {
	return &Shopping{db: db, ledger: NewLedger(db)}
}

// AddSuggested batch-adds low-stock items to the shopping list as
// suggested entries. Existing entries are left alone. A failure on one
// item is logged and does not stop the rest of the batch.
func (s *Shopping) AddSuggested(ctx context.Context) ([]models.ShoppingListItem, error) {
	var stock []models.StockItem
	if err := s.db.WithContext(ctx).Order("id asc").Find(&stock).Error; err != nil {
		return nil, fmt.Errorf("load stock: %w", err)
	}

	added := make([]models.ShoppingListItem, 0)
	for _, item := range SuggestRestock(stock) {
		existing, err := s.findByName(ctx, item.Name)
		if err != nil {
			applog.Error(ctx, "failed to check shopping entry", "name", item.Name, "error", err)
			continue
		}
		if existing != nil {
			continue
		}

		stockID := item.ID
		entry := models.ShoppingListItem{
			Name:        item.Name,
			StockItemID: &stockID,
			Suggested:   true,
		}
		if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
			applog.Error(ctx, "failed to add suggested shopping entry", "name", item.Name, "error", err)
			continue
		}
		added = append(added, entry)
	}

	return added, nil
}

// AddMissingFromDrink ensures a shopping entry exists for every
// ingredient of the drink that is unresolved or whose bottle is empty.
// Entries are keyed by case-insensitive name; an existing entry gets the
// drink linked to it instead of a duplicate. Entries touched here are
// user/recipe-originated, so Suggested is cleared.
func (s *Shopping) AddMissingFromDrink(ctx context.Context, drinkID uint) ([]models.ShoppingListItem, error) {
	var drink models.Drink
	if err := s.db.WithContext(ctx).Preload("Ingredients.StockItem").First(&drink, drinkID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDrinkNotFound
		}
		return nil, fmt.Errorf("load drink: %w", err)
	}

	touched := make([]models.ShoppingListItem, 0)
	for _, ingredient := range drink.Ingredients {
		missing := !ingredient.Resolved() ||
			ingredient.StockItem == nil ||
			ingredient.StockItem.CurrentML == 0
		if !missing {
			continue
		}

		name := strings.TrimSpace(ingredient.Name)
		if name == "" {
			continue
		}

		entry, err := s.ensureEntry(ctx, name, ingredient.StockItemID, drink)
		if err != nil {
			applog.Error(ctx, "failed to reconcile shopping entry", "name", name, "error", err)
			continue
		}
		touched = append(touched, *entry)
	}

	return touched, nil
}

// Add puts a manually-entered item on the shopping list. Names are
// deduplicated case-insensitively: adding an existing name returns the
// existing entry (clearing its Suggested flag) rather than a duplicate.
// When no stock link is given the name is resolved against inventory.
func (s *Shopping) Add(ctx context.Context, name string, stockID *uint) (*models.ShoppingListItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("engine: shopping entry name is required")
	}

	existing, err := s.findByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Suggested {
			if err := s.db.WithContext(ctx).Model(existing).Update("suggested", false).Error; err != nil {
				return nil, err
			}
			existing.Suggested = false
		}
		return existing, nil
	}

	if stockID == nil {
		var stock []models.StockItem
		if err := s.db.WithContext(ctx).Order("id asc").Find(&stock).Error; err != nil {
			return nil, fmt.Errorf("load stock: %w", err)
		}
		if match := MatchStock(name, stock); match != nil {
			id := match.ID
			stockID = &id
		}
	}

	entry := models.ShoppingListItem{
		Name:        name,
		StockItemID: stockID,
		Suggested:   false,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// Remove deletes a shopping entry and its drink links.
func (s *Shopping) Remove(ctx context.Context, itemID uint) error {
	var entry models.ShoppingListItem
	if err := s.db.WithContext(ctx).First(&entry, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrShoppingItemNotFound
		}
		return fmt.Errorf("load shopping entry: %w", err)
	}
	return s.removeEntry(ctx, entry)
}

func (s *Shopping) ensureEntry(ctx context.Context, name string, stockID *uint, drink models.Drink) (*models.ShoppingListItem, error) {
	existing, err := s.findByName(ctx, name)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		entry := models.ShoppingListItem{
			Name:        name,
			StockItemID: stockID,
			Suggested:   false,
		}
		if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
			return nil, err
		}
		existing = &entry
	} else if existing.Suggested {
		if err := s.db.WithContext(ctx).Model(existing).Update("suggested", false).Error; err != nil {
			return nil, err
		}
		existing.Suggested = false
	}

	if err := s.db.WithContext(ctx).Model(existing).Association("Drinks").Append(&models.Drink{Model: drink.Model}); err != nil {
		return nil, err
	}

	return existing, nil
}

// findByName looks up a shopping entry by case-insensitive name.
func (s *Shopping) findByName(ctx context.Context, name string) (*models.ShoppingListItem, error) {
	var entry models.ShoppingListItem
	err := s.db.WithContext(ctx).
		Where("lower(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ResolveBought folds a purchase back into inventory. A linked entry
// refills its bottle (optionally adopting a new size). An unlinked entry
// needs a bottle size: without one nothing mutates and the caller gets
// ActionNeedsSize; with one a new full stock item is created. In both
// mutating outcomes the shopping entry is removed.
func (s *Shopping) ResolveBought(ctx context.Context, itemID uint, payload *BoughtPayload) (BoughtResult, error) {
	var entry models.ShoppingListItem
	if err := s.db.WithContext(ctx).First(&entry, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BoughtResult{}, ErrShoppingItemNotFound
		}
		return BoughtResult{}, fmt.Errorf("load shopping entry: %w", err)
	}

	if entry.StockItemID != nil {
		var newTotal *int
		if payload != nil && payload.TotalML > 0 {
			newTotal = &payload.TotalML
		}

		stock, err := s.ledger.Refill(ctx, *entry.StockItemID, newTotal)
		if errors.Is(err, ErrStockNotFound) {
			// The bottle was deleted since the entry was added;
			// fall through to the unlinked flow.
			return s.resolveUnlinked(ctx, entry, payload)
		}
		if err != nil {
			return BoughtResult{}, err
		}

		if err := s.removeEntry(ctx, entry); err != nil {
			return BoughtResult{}, err
		}
		return BoughtResult{Action: ActionRefilled, Stock: &stock}, nil
	}

	return s.resolveUnlinked(ctx, entry, payload)
}

func (s *Shopping) resolveUnlinked(ctx context.Context, entry models.ShoppingListItem, payload *BoughtPayload) (BoughtResult, error) {
	if payload == nil || payload.TotalML <= 0 {
		return BoughtResult{Action: ActionNeedsSize}, nil
	}

	stock := models.StockItem{
		Name:      entry.Name,
		Category:  models.NormalizeCategory(payload.Category),
		CurrentML: payload.TotalML,
		TotalML:   payload.TotalML,
	}
	if err := s.db.WithContext(ctx).Create(&stock).Error; err != nil {
		return BoughtResult{}, fmt.Errorf("create stock item: %w", err)
	}

	if err := s.removeEntry(ctx, entry); err != nil {
		return BoughtResult{}, err
	}

	return BoughtResult{Action: ActionCreated, Stock: &stock}, nil
}

func (s *Shopping) removeEntry(ctx context.Context, entry models.ShoppingListItem) error {
	if err := s.db.WithContext(ctx).Model(&entry).Association("Drinks").Clear(); err != nil {
		return fmt.Errorf("clear drink links: %w", err)
	}
	if err := s.db.WithContext(ctx).Delete(&entry).Error; err != nil {
		return fmt.Errorf("delete shopping entry: %w", err)
	}
	return nil
}
