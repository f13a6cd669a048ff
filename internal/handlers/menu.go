package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	authmw "github.com/littlelemon/restaurant-api/internal/middleware/auth"
	"github.com/littlelemon/restaurant-api/internal/models"
	"github.com/littlelemon/restaurant-api/internal/mykafka"
	"github.com/littlelemon/restaurant-api/internal/permissions"
	"github.com/littlelemon/restaurant-api/internal/util"
)

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func pathID(c echo.Context) (uint, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

type MenuHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

func (h *MenuHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "menu_events", fmt.Sprint(event["id"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

// requireWrite gates mutating menu/category verbs to managers.
func (h *MenuHandler) requireWrite(c echo.Context) error {
	if !permissions.CanAccessMenuOrCategory(authmw.RoleOf(c), c.Request().Method) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return nil
}

func (h *MenuHandler) GetCategories(c echo.Context) error {
	var cats []models.Category
	if err := h.DB.Order("id ASC").Find(&cats).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, cats)
}

func (h *MenuHandler) GetCategory(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var cat models.Category
	if err := h.DB.First(&cat, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "category not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *MenuHandler) CreateCategory(c echo.Context) error {
	if err := h.requireWrite(c); err != nil {
		return err
	}

	var req struct {
		Slug  string `json:"slug"`
		Title string `json:"title"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Slug == "" || req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "slug and title required")
	}

	cat := models.Category{Slug: req.Slug, Title: req.Title}
	if err := h.DB.Create(&cat).Error; err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid category")
	}
	return c.JSON(http.StatusCreated, cat)
}

func (h *MenuHandler) UpdateCategory(c echo.Context) error {
	if err := h.requireWrite(c); err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var cat models.Category
	if err := h.DB.First(&cat, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "category not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var req struct {
		Slug  string `json:"slug"`
		Title string `json:"title"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	cat.Slug = req.Slug
	cat.Title = req.Title
	if err := h.DB.Save(&cat).Error; err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid category")
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *MenuHandler) DeleteCategory(c echo.Context) error {
	if err := h.requireWrite(c); err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.DB.Delete(&models.Category{}, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *MenuHandler) GetMenuItems(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	var total int64
	if err := h.DB.Model(&models.MenuItem{}).Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var items []models.MenuItem
	if err := h.DB.Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *MenuHandler) GetMenuItem(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var item models.MenuItem
	if err := h.DB.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "menu item not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, item)
}

type menuItemRequest struct {
	Title      string          `json:"title"`
	Price      decimal.Decimal `json:"price"`
	Featured   bool            `json:"featured"`
	CategoryID uint            `json:"category_id"`
}

func (r *menuItemRequest) validate() error {
	if r.Title == "" {
		return errors.New("title required")
	}
	if r.Price.IsNegative() {
		return errors.New("price must be >= 0")
	}
	return nil
}

func (h *MenuHandler) CreateMenuItem(c echo.Context) error {
	if err := h.requireWrite(c); err != nil {
		return err
	}

	var req menuItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	item := models.MenuItem{
		Title:      req.Title,
		Price:      req.Price,
		Featured:   req.Featured,
		CategoryID: req.CategoryID,
	}
	if err := h.DB.Create(&item).Error; err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid menu item")
	}

	h.publish(c, map[string]any{
		"type":  "menu_item_created",
		"id":    item.ID,
		"title": item.Title,
	})
	return c.JSON(http.StatusCreated, item)
}

func (h *MenuHandler) UpdateMenuItem(c echo.Context) error {
	if err := h.requireWrite(c); err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var item models.MenuItem
	if err := h.DB.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "menu item not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var req menuItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	item.Title = req.Title
	item.Price = req.Price
	item.Featured = req.Featured
	item.CategoryID = req.CategoryID
	if err := h.DB.Save(&item).Error; err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid menu item")
	}

	h.publish(c, map[string]any{
		"type":  "menu_item_updated",
		"id":    item.ID,
		"title": item.Title,
	})
	return c.JSON(http.StatusOK, item)
}

func (h *MenuHandler) DeleteMenuItem(c echo.Context) error {
	if err := h.requireWrite(c); err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.DB.Delete(&models.MenuItem{}, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, map[string]any{
		"type": "menu_item_deleted",
		"id":   id,
	})
	return c.NoContent(http.StatusNoContent)
}
