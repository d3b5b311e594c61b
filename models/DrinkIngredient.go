package models

import (
	"gorm.io/gorm"
)

// DrinkIngredient is one line of a drink's recipe. Name is the free text
// exactly as entered or imported; StockItemID links it to inventory when
// the matcher resolved it. When AmountML is set it takes precedence over
// AmountText for every computation; AmountText is kept for display and
// for re-parsing after edits.
type DrinkIngredient struct {
	gorm.Model
	DrinkID uint   `gorm:"not null;index" json:"drink_id"`
	Name    string `gorm:"not null" json:"name"`

	// Deleting a stock item must not take recipes with it; the link is
	// severed instead (SET NULL), leaving the ingredient unresolved.
	StockItemID *uint      `json:"stock_item_id,omitempty"`
	StockItem   *StockItem `gorm:"foreignKey:StockItemID;constraint:OnDelete:SET NULL" json:"stock_item,omitempty"`

	AmountML   *int   `json:"amount_ml,omitempty"`
	AmountText string `json:"amount_text,omitempty"`
	Optional   bool   `gorm:"not null;default:false" json:"optional"`
}

// Resolved reports whether the ingredient is linked to a stock item.
func (i DrinkIngredient) Resolved() bool {
	return i.StockItemID != nil && *i.StockItemID != 0
}
