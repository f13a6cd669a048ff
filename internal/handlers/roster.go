package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	authmw "github.com/littlelemon/restaurant-api/internal/middleware/auth"
	"github.com/littlelemon/restaurant-api/internal/models"
	"github.com/littlelemon/restaurant-api/internal/permissions"
	"github.com/littlelemon/restaurant-api/internal/roles"
)

// RosterHandler serves the membership endpoints of one role group. Two
// instances are registered, one per group, each with its own permission
// predicate.
type RosterHandler struct {
	DB        *gorm.DB
	GroupName string
	Allowed   func(roles.Role, string) bool
}

func NewManagerRoster(db *gorm.DB) *RosterHandler {
	return &RosterHandler{DB: db, GroupName: roles.GroupManager, Allowed: permissions.CanManageManagers}
}

func NewDeliveryCrewRoster(db *gorm.DB) *RosterHandler {
	return &RosterHandler{DB: db, GroupName: roles.GroupDeliveryCrew, Allowed: permissions.CanManageDeliveryCrew}
}

func (h *RosterHandler) check(c echo.Context) error {
	if !h.Allowed(authmw.RoleOf(c), c.Request().Method) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return nil
}

func (h *RosterHandler) members() *gorm.DB {
	return h.DB.Model(&models.User{}).
		Joins("JOIN user_groups ON user_groups.user_id = users.id").
		Joins("JOIN groups ON groups.id = user_groups.group_id").
		Where("groups.name = ?", h.GroupName)
}

func (h *RosterHandler) ListMembers(c echo.Context) error {
	if err := h.check(c); err != nil {
		return err
	}

	var users []models.User
	if err := h.members().Find(&users).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, users)
}

func (h *RosterHandler) GetMember(c echo.Context) error {
	if err := h.check(c); err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var user models.User
	if err := h.members().Where("users.id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, user)
}

// AddMember adds a user to the group by username, 404 when the username is
// unknown.
func (h *RosterHandler) AddMember(c echo.Context) error {
	if err := h.check(c); err != nil {
		return err
	}

	var req struct {
		Username string `json:"username"`
	}
	if err := c.Bind(&req); err != nil || req.Username == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username required")
	}

	var user models.User
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var group models.Group
	if err := h.DB.Where("name = ?", h.GroupName).First(&group).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if err := h.DB.Model(&user).Association("Groups").Append(&group); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusCreated, map[string]string{"message": "ok"})
}

// RemoveMember removes the user from the group by id. Removing a user who is
// not a member is a 404, same as an unknown id.
func (h *RosterHandler) RemoveMember(c echo.Context) error {
	if err := h.check(c); err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var user models.User
	if err := h.members().Where("users.id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var group models.Group
	if err := h.DB.Where("name = ?", h.GroupName).First(&group).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if err := h.DB.Model(&user).Association("Groups").Delete(&group); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "ok"})
}
