package engine

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	applog "barkeep/internal/log"
	"barkeep/models"
)

var (
	ErrDrinkNotFound   = errors.New("engine: drink not found")
	ErrStockNotFound   = errors.New("engine: stock item not found")
	ErrNegativeVolume  = errors.New("engine: volume must not be negative")
	ErrStockContention = errors.New("engine: stock update contention")
)

// casAttempts bounds the compare-and-set retry loop. Contention on a
// home bar is rare; hitting the bound signals something is badly wrong.
const casAttempts = 5

// Ledger owns every mutation of stock volumes. Each public method is one
// atomic unit of work: deductions, adjustments, and refills go through a
// transaction plus a compare-and-set keyed on the volume that was read,
// so two concurrent makes sharing an ingredient cannot both spend the
// same milliliters.
type Ledger struct {
	db *gorm.DB
}

// NewLedger binds a ledger to a database handle.
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// DeductionResult reports what one drink-make event changed.
type DeductionResult struct {
	Drink      models.Drink
	Updated    []models.StockItem
	ConsumedML map[uint]int
}

// Deduct consumes inventory for one serving of the drink and increments
// its times_made counter, all in a single transaction. Per ingredient the
// consumed amount is min(amount, current): the ledger clamps at zero
// instead of failing, so a stale availability check degrades to a partial
// pour rather than an error. Unresolved and quantity-less ingredients are
// skipped; they are not tracked by the ledger.
func (l *Ledger) Deduct(ctx context.Context, drinkID uint) (DeductionResult, error) {
	result := DeductionResult{ConsumedML: make(map[uint]int)}

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var drink models.Drink
		if err := tx.Preload("Ingredients").First(&drink, drinkID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDrinkNotFound
			}
			return fmt.Errorf("load drink: %w", err)
		}

		for _, ingredient := range drink.Ingredients {
			if !ingredient.Resolved() || ingredient.AmountML == nil || *ingredient.AmountML <= 0 {
				continue
			}

			item, consumed, err := deductStock(tx, *ingredient.StockItemID, *ingredient.AmountML)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// The link dangles; skip it rather than abort the
				// rest of the pour.
				applog.Warn(ctx, "skipping deduction for missing stock item",
					"drinkID", drinkID, "stockItemID", *ingredient.StockItemID)
				continue
			}
			if err != nil {
				return fmt.Errorf("deduct stock %d: %w", *ingredient.StockItemID, err)
			}

			if _, seen := result.ConsumedML[item.ID]; !seen {
				result.Updated = append(result.Updated, item)
			} else {
				for i := range result.Updated {
					if result.Updated[i].ID == item.ID {
						result.Updated[i] = item
					}
				}
			}
			result.ConsumedML[item.ID] += consumed
		}

		if err := tx.Model(&drink).Update("times_made", gorm.Expr("times_made + 1")).Error; err != nil {
			return fmt.Errorf("increment times made: %w", err)
		}
		drink.TimesMade++
		result.Drink = drink
		return nil
	})
	if err != nil {
		return DeductionResult{}, err
	}

	return result, nil
}

// deductStock applies one clamped deduction with a compare-and-set loop:
// the UPDATE only succeeds when current_ml still equals the value the
// computation was based on.
func deductStock(tx *gorm.DB, stockID uint, amountML int) (models.StockItem, int, error) {
	for attempt := 0; attempt < casAttempts; attempt++ {
		var item models.StockItem
		if err := tx.First(&item, stockID).Error; err != nil {
			return models.StockItem{}, 0, err
		}

		consumed := amountML
		if item.CurrentML < consumed {
			consumed = item.CurrentML
		}

		update := tx.Model(&models.StockItem{}).
			Where("id = ? AND current_ml = ?", stockID, item.CurrentML).
			Updates(map[string]any{
				"current_ml":    item.CurrentML - consumed,
				"total_used_ml": item.TotalUsedML + consumed,
			})
		if update.Error != nil {
			return models.StockItem{}, 0, update.Error
		}
		if update.RowsAffected == 1 {
			item.CurrentML -= consumed
			item.TotalUsedML += consumed
			return item, consumed, nil
		}
	}

	return models.StockItem{}, 0, ErrStockContention
}

// Adjust sets a stock item's current volume to an absolute level.
// Negative values are rejected; values above the bottle size are clamped
// to it, keeping 0 <= current_ml <= total_ml the invariant it is.
func (l *Ledger) Adjust(ctx context.Context, stockID uint, currentML int) (models.StockItem, error) {
	if currentML < 0 {
		return models.StockItem{}, ErrNegativeVolume
	}

	var updated models.StockItem
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.StockItem
		if err := tx.First(&item, stockID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrStockNotFound
			}
			return err
		}

		level := currentML
		if level > item.TotalML {
			level = item.TotalML
		}

		if err := tx.Model(&item).Update("current_ml", level).Error; err != nil {
			return err
		}
		item.CurrentML = level
		updated = item
		return nil
	})
	if err != nil {
		return models.StockItem{}, err
	}

	return updated, nil
}

// Refill fills a stock item back to its bottle size. A non-nil
// newTotalML replaces the bottle size first, so buying a bigger bottle
// is a single call.
func (l *Ledger) Refill(ctx context.Context, stockID uint, newTotalML *int) (models.StockItem, error) {
	if newTotalML != nil && *newTotalML < 0 {
		return models.StockItem{}, ErrNegativeVolume
	}

	var updated models.StockItem
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.StockItem
		if err := tx.First(&item, stockID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrStockNotFound
			}
			return err
		}

		total := item.TotalML
		if newTotalML != nil {
			total = *newTotalML
		}

		if err := tx.Model(&item).Updates(map[string]any{
			"total_ml":   total,
			"current_ml": total,
		}).Error; err != nil {
			return err
		}
		item.TotalML = total
		item.CurrentML = total
		updated = item
		return nil
	})
	if err != nil {
		return models.StockItem{}, err
	}

	return updated, nil
}
