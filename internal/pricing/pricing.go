package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/swickapp/swick-server/internal/models"
)

var (
	ErrEmptyCart   = errors.New("cart has no lines")
	ErrQuantity    = errors.New("quantity must be at least 1")
	ErrOptionIndex = errors.New("option index out of range")
)

// Selection is one chosen customization with the indices of the picked options.
type Selection struct {
	Customization models.Customization
	OptionIndexes []int
}

// Line is one cart line against a live meal record. The meal's name and price
// are read here once and frozen into the snapshot.
type Line struct {
	Meal       models.Meal
	Quantity   uint
	Selections []Selection
}

// PricedSelection carries the resolved option labels and their price
// additions, in selection order.
type PricedSelection struct {
	Name           string
	Options        []string
	PriceAdditions []decimal.Decimal
}

type PricedLine struct {
	MealName   string
	MealPrice  decimal.Decimal
	Quantity   uint
	Selections []PricedSelection
	Total      decimal.Decimal
}

type Quote struct {
	Lines []PricedLine
	Total decimal.Decimal
}

// PriceCart computes every line total and the order total. Pure: no I/O, no
// mutation of inputs. Rejects empty carts and out-of-range option indices
// before the caller persists anything.
func PriceCart(lines []Line) (Quote, error) {
	if len(lines) == 0 {
		return Quote{}, ErrEmptyCart
	}

	quote := Quote{Total: decimal.Zero}
	for i, line := range lines {
		if line.Quantity < 1 {
			return Quote{}, fmt.Errorf("%w: line %d", ErrQuantity, i)
		}

		unit := line.Meal.Price
		priced := PricedLine{
			MealName:  line.Meal.Name,
			MealPrice: line.Meal.Price,
			Quantity:  line.Quantity,
		}
		for _, sel := range line.Selections {
			ps := PricedSelection{Name: sel.Customization.Name}
			for _, idx := range sel.OptionIndexes {
				if idx < 0 || idx >= len(sel.Customization.Options) || idx >= len(sel.Customization.PriceAdditions) {
					return Quote{}, fmt.Errorf("%w: customization %q index %d", ErrOptionIndex, sel.Customization.Name, idx)
				}
				ps.Options = append(ps.Options, sel.Customization.Options[idx])
				ps.PriceAdditions = append(ps.PriceAdditions, sel.Customization.PriceAdditions[idx])
				unit = unit.Add(sel.Customization.PriceAdditions[idx])
			}
			priced.Selections = append(priced.Selections, ps)
		}

		priced.Total = unit.Mul(decimal.NewFromUint64(uint64(line.Quantity)))
		quote.Lines = append(quote.Lines, priced)
		quote.Total = quote.Total.Add(priced.Total)
	}

	return quote, nil
}
