package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	authmw "github.com/littlelemon/restaurant-api/internal/middleware/auth"
	"github.com/littlelemon/restaurant-api/internal/models"
	"github.com/littlelemon/restaurant-api/internal/mykafka"
)

type CartHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

func (h *CartHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "cart_events", fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *CartHandler) GetCart(c echo.Context) error {
	userID := authmw.UserID(c)

	var lines []models.CartLine
	if err := h.DB.Where("user_id = ?", userID).Find(&lines).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, lines)
}

// AddToCart adds a menu item to the caller's cart. The owner is always the
// caller and the unit price always comes from the menu item, never from the
// payload. Adding an item already in the cart bumps its quantity.
func (h *CartHandler) AddToCart(c echo.Context) error {
	userID := authmw.UserID(c)

	var req struct {
		MenuItemID uint `json:"menu_item_id"`
		Quantity   uint `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	var item models.MenuItem
	if err := h.DB.First(&item, req.MenuItemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "menu item not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var line models.CartLine
	tx := h.DB.Where("user_id = ? AND menu_item_id = ?", userID, req.MenuItemID).First(&line)
	if tx.Error == nil {
		line.Quantity += req.Quantity
		line.UnitPrice = item.Price
		line.Price = item.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		if err := h.DB.Save(&line).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	} else if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		line = models.CartLine{
			UserID:     userID,
			MenuItemID: req.MenuItemID,
			Quantity:   req.Quantity,
			UnitPrice:  item.Price,
			Price:      item.Price.Mul(decimal.NewFromInt(int64(req.Quantity))),
		}
		if err := h.DB.Create(&line).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	} else {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, map[string]any{
		"type":       "cart_line_added",
		"userID":     userID,
		"menuItemID": req.MenuItemID,
		"quantity":   line.Quantity,
	})
	return c.JSON(http.StatusCreated, line)
}

// ClearCart removes every line the caller owns.
func (h *CartHandler) ClearCart(c echo.Context) error {
	userID := authmw.UserID(c)

	if err := h.DB.Where("user_id = ?", userID).Delete(&models.CartLine{}).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, map[string]any{
		"type":   "cart_cleared",
		"userID": userID,
	})
	return c.NoContent(http.StatusNoContent)
}
