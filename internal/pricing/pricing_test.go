package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/swickapp/swick-server/internal/models"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestPriceCartSingleLineWithOption(t *testing.T) {
	lines := []Line{{
		Meal:     models.Meal{Name: "Burger", Price: dec("10.00")},
		Quantity: 2,
		Selections: []Selection{{
			Customization: models.Customization{
				Name:           "Extras",
				Options:        datatypes.JSONSlice[string]{"Cheese", "Bacon"},
				PriceAdditions: datatypes.JSONSlice[decimal.Decimal]{dec("1.50"), dec("2.00")},
			},
			OptionIndexes: []int{0},
		}},
	}}

	quote, err := PriceCart(lines)
	require.NoError(t, err)
	require.True(t, quote.Total.Equal(dec("23.00")), "got %s", quote.Total)
	require.Len(t, quote.Lines, 1)
	require.True(t, quote.Lines[0].Total.Equal(dec("23.00")))
	require.Equal(t, []string{"Cheese"}, quote.Lines[0].Selections[0].Options)
}

func TestPriceCartSumsLines(t *testing.T) {
	lines := []Line{
		{Meal: models.Meal{Name: "Soup", Price: dec("4.25")}, Quantity: 1},
		{Meal: models.Meal{Name: "Steak", Price: dec("19.99")}, Quantity: 3},
	}

	quote, err := PriceCart(lines)
	require.NoError(t, err)
	require.True(t, quote.Total.Equal(dec("64.22")), "got %s", quote.Total)
}

func TestPriceCartEmptyCart(t *testing.T) {
	_, err := PriceCart(nil)
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestPriceCartZeroQuantity(t *testing.T) {
	lines := []Line{{Meal: models.Meal{Price: dec("5.00")}, Quantity: 0}}
	_, err := PriceCart(lines)
	require.ErrorIs(t, err, ErrQuantity)
}

func TestPriceCartOptionIndexOutOfRange(t *testing.T) {
	lines := []Line{{
		Meal:     models.Meal{Price: dec("5.00")},
		Quantity: 1,
		Selections: []Selection{{
			Customization: models.Customization{
				Name:           "Size",
				Options:        datatypes.JSONSlice[string]{"Small"},
				PriceAdditions: datatypes.JSONSlice[decimal.Decimal]{dec("0.00")},
			},
			OptionIndexes: []int{1},
		}},
	}}

	_, err := PriceCart(lines)
	require.ErrorIs(t, err, ErrOptionIndex)
}

func TestPriceCartNegativeOptionIndex(t *testing.T) {
	lines := []Line{{
		Meal:     models.Meal{Price: dec("5.00")},
		Quantity: 1,
		Selections: []Selection{{
			Customization: models.Customization{
				Options:        datatypes.JSONSlice[string]{"A"},
				PriceAdditions: datatypes.JSONSlice[decimal.Decimal]{dec("1.00")},
			},
			OptionIndexes: []int{-1},
		}},
	}}

	_, err := PriceCart(lines)
	require.ErrorIs(t, err, ErrOptionIndex)
}
