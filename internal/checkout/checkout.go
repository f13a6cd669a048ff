package checkout

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/littlelemon/restaurant-api/internal/models"
)

type Service struct {
	DB *gorm.DB
}

// Checkout converts the user's cart into an order with its items and clears
// the cart, all inside one transaction. The final delete carries a
// rows-affected guard: if a concurrent checkout consumed any of the lines
// read at the start, fewer rows are deleted than were read and the whole
// transaction rolls back with ErrConflict, so the same cart snapshot can
// never produce two orders.
func (s *Service) Checkout(ctx context.Context, userID uint) (*models.Order, error) {
	var order models.Order

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lines []models.CartLine
		if err := tx.Where("user_id = ?", userID).Find(&lines).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		total, drafts, err := Aggregate(lines)
		if err != nil {
			return err
		}

		order = models.Order{
			UserID: userID,
			Status: models.StatusPlaced,
			Total:  total,
			Date:   time.Now().UTC(),
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		for i := range drafts {
			drafts[i].OrderID = order.ID
		}
		if err := tx.Create(&drafts).Error; err != nil {
			return err
		}

		ids := make([]uint, len(lines))
		for i := range lines {
			ids[i] = lines[i].ID
		}
		res := tx.Where("user_id = ? AND id IN ?", userID, ids).Delete(&models.CartLine{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(len(lines)) {
			return ErrConflict
		}

		order.Items = drafts
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return &order, nil
}
