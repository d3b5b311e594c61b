package models

import (
	"gorm.io/gorm"
)

// Drink is a recipe on the bar's menu. TimesMade is only ever incremented
// by the stock ledger when a drink is actually produced.
type Drink struct {
	gorm.Model
	Name         string            `gorm:"not null" json:"name"`
	Category     string            `json:"category"`
	Instructions string            `gorm:"type:text" json:"instructions"`
	TimesMade    int               `gorm:"not null;default:0" json:"times_made"`
	SourceID     string            `gorm:"index" json:"source_id,omitempty"`
	Ingredients  []DrinkIngredient `gorm:"foreignKey:DrinkID;constraint:OnDelete:CASCADE" json:"ingredients"`
}
