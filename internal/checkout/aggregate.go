package checkout

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/littlelemon/restaurant-api/internal/models"
)

var (
	ErrEmptyCart  = errors.New("cart is empty")  // 400
	ErrValidation = errors.New("validation")     // 400
	ErrConflict   = errors.New("conflict")       // 409
)

// Aggregate computes the order total and the item drafts for a set of cart
// lines. Line prices are recomputed from unit price and quantity; the stored
// value is never trusted. The cart itself is not touched.
func Aggregate(lines []models.CartLine) (decimal.Decimal, []models.OrderItem, error) {
	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(lines))

	for i := range lines {
		if lines[i].Quantity < 1 {
			return decimal.Zero, nil, fmt.Errorf("%w: quantity must be >= 1", ErrValidation)
		}
		if lines[i].UnitPrice.IsNegative() {
			return decimal.Zero, nil, fmt.Errorf("%w: unit price must be >= 0", ErrValidation)
		}

		price := lines[i].UnitPrice.Mul(decimal.NewFromInt(int64(lines[i].Quantity)))
		items = append(items, models.OrderItem{
			MenuItemID: lines[i].MenuItemID,
			Quantity:   lines[i].Quantity,
			UnitPrice:  lines[i].UnitPrice,
			Price:      price,
		})
		total = total.Add(price)
	}

	return total, items, nil
}
