package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/littlelemon/restaurant-api/internal/checkout"
	"github.com/littlelemon/restaurant-api/internal/logging"
	authmw "github.com/littlelemon/restaurant-api/internal/middleware/auth"
	"github.com/littlelemon/restaurant-api/internal/models"
	"github.com/littlelemon/restaurant-api/internal/mykafka"
	"github.com/littlelemon/restaurant-api/internal/permissions"
	"github.com/littlelemon/restaurant-api/internal/roles"
)

type OrderHandler struct {
	DB       *gorm.DB
	Checkout *checkout.Service
	Producer *mykafka.Producer
}

func (h *OrderHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "order_events", fmt.Sprint(event["orderID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func pathID(c echo.Context) (uint, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

// visibleOrder resolves "exists AND visible to the caller" as one query.
// Staff see every order; customers only their own. Both a missing id and a
// foreign order come back as the same not-found, so existence never leaks.
func (h *OrderHandler) visibleOrder(c echo.Context, role roles.Role, userID uint) (*models.Order, error) {
	id, err := pathID(c)
	if err != nil {
		return nil, err
	}

	q := h.DB.Preload("Items").Where("id = ?", id)
	if !role.IsStaff() {
		q = q.Where("user_id = ?", userID)
	}

	var order models.Order
	if err := q.First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return &order, nil
}

// ListOrders returns the role-filtered collection: managers everything,
// delivery crew their assigned orders, customers their own.
func (h *OrderHandler) ListOrders(c echo.Context) error {
	role := authmw.RoleOf(c)
	userID := authmw.UserID(c)

	q := h.DB.Preload("Items")
	switch role {
	case roles.Manager:
	case roles.DeliveryCrew:
		q = q.Where("delivery_crew_id = ?", userID)
	default:
		q = q.Where("user_id = ?", userID)
	}

	var orders []models.Order
	if err := q.Order("id ASC").Find(&orders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, orders)
}

// CreateOrder runs the checkout transaction for the caller's cart.
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create")
	userID := authmw.UserID(c)

	order, err := h.Checkout.Checkout(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrEmptyCart), errors.Is(err, checkout.ErrValidation):
			l.Warn("checkout rejected", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, checkout.ErrConflict):
			l.Warn("checkout conflict", "status", 409, "user_id", userID)
			return echo.NewHTTPError(http.StatusConflict, "cart changed, retry checkout")
		default:
			l.Error("checkout failed", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	l.Info("order placed", "order_id", order.ID, "user_id", userID)
	h.publish(c, map[string]any{
		"type":    "order_placed",
		"orderID": order.ID,
		"userID":  userID,
		"total":   order.Total,
	})
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	role := authmw.RoleOf(c)
	userID := authmw.UserID(c)

	order, err := h.visibleOrder(c, role, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// ReplaceOrder handles PUT. Managers may replace the mutable fields;
// customers may replace their own order's non-staff fields. Total and items
// are immutable after creation for everyone.
func (h *OrderHandler) ReplaceOrder(c echo.Context) error {
	return h.applyUpdate(c, http.MethodPut)
}

// PatchOrder handles PATCH. Delivery crew may only mark the order delivered;
// anything else in their payload is dropped, and a payload left empty after
// filtering is forbidden rather than a silent no-op.
func (h *OrderHandler) PatchOrder(c echo.Context) error {
	return h.applyUpdate(c, http.MethodPatch)
}

func (h *OrderHandler) applyUpdate(c echo.Context, verb string) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update")
	role := authmw.RoleOf(c)
	userID := authmw.UserID(c)

	order, err := h.visibleOrder(c, role, userID)
	if err != nil {
		return err
	}
	if !permissions.CanAccessOrder(role, verb, order.UserID == userID) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}

	var payload map[string]any
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	updates, err := h.filterPayload(role, payload)
	if err != nil {
		return err
	}
	if len(updates) == 0 {
		return echo.NewHTTPError(http.StatusForbidden, "no updatable fields for role")
	}

	if err := h.DB.Model(order).Updates(updates).Error; err != nil {
		l.Error("order update failed", "status", 500, "order_id", order.ID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if err := h.DB.Preload("Items").First(order, order.ID).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if status, ok := updates["status"]; ok {
		l.Info("order status changed", "order_id", order.ID, "status", status)
		h.publish(c, map[string]any{
			"type":    "order_status_changed",
			"orderID": order.ID,
			"status":  status,
		})
	}
	return c.JSON(http.StatusOK, order)
}

// filterPayload reduces the raw payload to the caller role's allow-list of
// mutable columns. Unknown or disallowed fields are dropped; allowed fields
// with bad values are a 400.
func (h *OrderHandler) filterPayload(role roles.Role, payload map[string]any) (map[string]any, error) {
	updates := map[string]any{}

	switch role {
	case roles.DeliveryCrew:
		raw, ok := payload["status"]
		if !ok {
			return updates, nil
		}
		status, ok := toInt(raw)
		if !ok || status != models.StatusDelivered {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "delivery crew may only set status to delivered")
		}
		updates["status"] = models.StatusDelivered

	case roles.Manager:
		if raw, ok := payload["status"]; ok {
			status, ok := toInt(raw)
			if !ok || (status != models.StatusPlaced && status != models.StatusDelivered) {
				return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid status")
			}
			updates["status"] = status
		}
		if raw, ok := payload["delivery_crew_id"]; ok {
			if raw == nil {
				updates["delivery_crew_id"] = nil
				break
			}
			crewID, ok := toInt(raw)
			if !ok || crewID <= 0 {
				return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid delivery_crew_id")
			}
			if err := h.requireCrewMember(uint(crewID)); err != nil {
				return nil, err
			}
			updates["delivery_crew_id"] = uint(crewID)
		}

	default:
		if raw, ok := payload["date"]; ok {
			s, ok := raw.(string)
			if !ok {
				return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid date")
			}
			date, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid date")
			}
			updates["date"] = date
		}
	}

	return updates, nil
}

// requireCrewMember validates that the assignee actually is delivery crew.
func (h *OrderHandler) requireCrewMember(userID uint) error {
	var count int64
	err := h.DB.Model(&models.User{}).
		Joins("JOIN user_groups ON user_groups.user_id = users.id").
		Joins("JOIN groups ON groups.id = user_groups.group_id").
		Where("groups.name = ? AND users.id = ?", roles.GroupDeliveryCrew, userID).
		Count(&count).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if count == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "assignee is not delivery crew")
	}
	return nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}

// DeleteOrder is manager-only and removes the order together with its items.
func (h *OrderHandler) DeleteOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.delete")
	role := authmw.RoleOf(c)
	userID := authmw.UserID(c)

	order, err := h.visibleOrder(c, role, userID)
	if err != nil {
		return err
	}
	if !permissions.CanAccessOrder(role, http.MethodDelete, order.UserID == userID) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Order{}, order.ID).Error
	})
	if txErr != nil {
		l.Error("order delete failed", "status", 500, "order_id", order.ID, "error", txErr)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("order deleted", "order_id", order.ID)
	h.publish(c, map[string]any{
		"type":    "order_deleted",
		"orderID": order.ID,
	})
	return c.NoContent(http.StatusNoContent)
}
