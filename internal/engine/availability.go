package engine

import (
	"barkeep/models"
)

// UnlimitedServingsDisplay stands in for "effectively unlimited" at the
// serialization boundary. Internally an unconstrained count is a tagged
// state, never the number 99.
const UnlimitedServingsDisplay = 99

// ServingCount is the number of servings the inventory still supports.
// Constrained is false when no ingredient limited the count.
type ServingCount struct {
	Constrained bool
	Count       int
}

// Display maps the count onto the 0-99 range shown to users.
func (s ServingCount) Display() int {
	if !s.Constrained {
		return UnlimitedServingsDisplay
	}
	if s.Count < 0 {
		return 0
	}
	if s.Count > UnlimitedServingsDisplay {
		return UnlimitedServingsDisplay
	}
	return s.Count
}

// Availability is the result of checking a drink against the current
// inventory snapshot. It is recomputed on every read and never stored.
type Availability struct {
	CanMake  bool
	Servings ServingCount
}

var unavailable = Availability{
	CanMake:  false,
	Servings: ServingCount{Constrained: true, Count: 0},
}

// ComputeAvailability decides whether the drink can be made right now and
// how many servings remain. Only required ingredients count. An
// unresolved ingredient, or one whose stock link dangles, makes the drink
// unmakeable outright: a quantity that cannot be verified is treated as
// absent. Linked ingredients without a canonical amount are checked for
// presence only; quantified ones bound the serving count by
// floor(current/amount).
func ComputeAvailability(drink models.Drink, stock []models.StockItem) Availability {
	byID := make(map[uint]models.StockItem, len(stock))
	for _, item := range stock {
		byID[item.ID] = item
	}

	servings := ServingCount{}
	for _, ingredient := range drink.Ingredients {
		if ingredient.Optional {
			continue
		}
		if !ingredient.Resolved() {
			return unavailable
		}

		item, ok := byID[*ingredient.StockItemID]
		if !ok {
			return unavailable
		}

		if ingredient.AmountML == nil || *ingredient.AmountML <= 0 {
			if item.CurrentML <= 0 {
				return unavailable
			}
			continue
		}

		possible := item.CurrentML / *ingredient.AmountML
		if possible < 1 {
			return unavailable
		}
		if !servings.Constrained || possible < servings.Count {
			servings = ServingCount{Constrained: true, Count: possible}
		}
	}

	return Availability{CanMake: true, Servings: servings}
}
