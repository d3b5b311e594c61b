package models

import (
	"strings"

	"gorm.io/gorm"
)

// Stock categories. Stored as plain strings so the database stays readable.
const (
	CategorySpirits   = "Spirits"
	CategoryLiqueurs  = "Liqueurs"
	CategoryMixers    = "Mixers"
	CategoryWine      = "Wine"
	CategoryBeer      = "Beer"
	CategorySyrups    = "Syrups"
	CategoryBitters   = "Bitters"
	CategoryGarnishes = "Garnishes"
	CategoryOther     = "Other"
)

// DefaultCategory is assigned when a caller supplies no or an unknown category.
const DefaultCategory = CategoryOther

var categories = []string{
	CategorySpirits,
	CategoryLiqueurs,
	CategoryMixers,
	CategoryWine,
	CategoryBeer,
	CategorySyrups,
	CategoryBitters,
	CategoryGarnishes,
	CategoryOther,
}

// Categories returns the known stock categories in display order.
func Categories() []string {
	out := make([]string, len(categories))
	copy(out, categories)
	return out
}

// ValidCategory reports whether value is a known stock category.
func ValidCategory(value string) bool {
	for _, category := range categories {
		if category == value {
			return true
		}
	}
	return false
}

// NormalizeCategory maps arbitrary input onto a known category,
// falling back to DefaultCategory.
func NormalizeCategory(value string) string {
	trimmed := strings.TrimSpace(value)
	for _, category := range categories {
		if strings.EqualFold(category, trimmed) {
			return category
		}
	}
	return DefaultCategory
}

// StockItem is a physical bottle (or batch) in the bar's inventory.
// CurrentML never exceeds TotalML and never drops below zero; every
// mutation path clamps before persisting. TotalUsedML only grows.
type StockItem struct {
	gorm.Model
	Name        string `gorm:"not null" json:"name"`
	Category    string `gorm:"type:varchar(32);not null;default:Other" json:"category"`
	CurrentML   int    `gorm:"not null;default:0" json:"current_ml"`
	TotalML     int    `gorm:"not null;default:0" json:"total_ml"`
	Aliases     string `json:"aliases"`
	UnitType    string `gorm:"type:varchar(32)" json:"unit_type"`
	TotalUsedML int    `gorm:"not null;default:0" json:"total_used_ml"`
}

// AliasList splits the comma-separated alias field into trimmed entries.
func (s StockItem) AliasList() []string {
	if strings.TrimSpace(s.Aliases) == "" {
		return nil
	}
	parts := strings.Split(s.Aliases, ",")
	aliases := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		aliases = append(aliases, trimmed)
	}
	return aliases
}

// FillRatio returns CurrentML/TotalML, or 0 when TotalML is unset.
func (s StockItem) FillRatio() float64 {
	if s.TotalML <= 0 {
		return 0
	}
	return float64(s.CurrentML) / float64(s.TotalML)
}
