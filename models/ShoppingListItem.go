package models

import (
	"gorm.io/gorm"
)

// ShoppingListItem is a "need to buy" entry. There is at most one entry
// per case-insensitive ingredient name. A StockItemID link means buying
// it refills an existing bottle rather than creating a new one.
// Suggested marks entries derived from low-stock detection, as opposed
// to ones a user added or that came from a drink's missing ingredients.
type ShoppingListItem struct {
	gorm.Model
	Name        string     `gorm:"not null" json:"name"`
	StockItemID *uint      `json:"stock_item_id,omitempty"`
	StockItem   *StockItem `gorm:"foreignKey:StockItemID;constraint:OnDelete:SET NULL" json:"stock_item,omitempty"`
	Suggested   bool       `gorm:"not null;default:false" json:"suggested"`

	// Drinks that asked for this ingredient. Display-only provenance.
	Drinks []Drink `gorm:"many2many:shopping_list_item_drinks" json:"drinks,omitempty"`
}
