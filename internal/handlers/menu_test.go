package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/littlelemon/restaurant-api/internal/models"
	"github.com/littlelemon/restaurant-api/internal/roles"
)

func menuRequest(t *testing.T, e *echo.Echo, method string, body any, role roles.Role, paramID string) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1/menu-items", &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("userID", uint(1))
	c.Set("role", role)
	if paramID != "" {
		c.SetParamNames("id")
		c.SetParamValues(paramID)
	}
	return rec, c
}

func TestCreateMenuItemManagerOnly(t *testing.T) {
	db := newTestDB(t)
	h := &MenuHandler{DB: db}
	e := echo.New()

	body := map[string]any{"title": "pizza", "price": "9.99"}

	for _, role := range []roles.Role{roles.Customer, roles.DeliveryCrew} {
		_, c := menuRequest(t, e, http.MethodPost, body, role, "")
		err := h.CreateMenuItem(c)

		var he *echo.HTTPError
		require.ErrorAs(t, err, &he)
		require.Equal(t, http.StatusForbidden, he.Code)
	}

	rec, c := menuRequest(t, e, http.MethodPost, body, roles.Manager, "")
	require.NoError(t, h.CreateMenuItem(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var item models.MenuItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	require.Equal(t, "pizza", item.Title)
	require.True(t, item.Price.Equal(decimal.RequireFromString("9.99")))
}

func TestMenuReadsOpenToAllRoles(t *testing.T) {
	db := newTestDB(t)
	h := &MenuHandler{DB: db}
	e := echo.New()

	require.NoError(t, db.Create(&models.MenuItem{Title: "soup", Price: decimal.RequireFromString("4.00")}).Error)

	for _, role := range []roles.Role{roles.Customer, roles.DeliveryCrew, roles.Manager} {
		rec, c := menuRequest(t, e, http.MethodGet, nil, role, "1")
		require.NoError(t, h.GetMenuItem(c))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestGetMenuItemNotFound(t *testing.T) {
	db := newTestDB(t)
	h := &MenuHandler{DB: db}
	e := echo.New()

	_, c := menuRequest(t, e, http.MethodGet, nil, roles.Customer, "7")
	err := h.GetMenuItem(c)

	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusNotFound, he.Code)
}

func TestDeleteCategoryManagerOnly(t *testing.T) {
	db := newTestDB(t)
	h := &MenuHandler{DB: db}
	e := echo.New()

	require.NoError(t, db.Create(&models.Category{Slug: "mains", Title: "Mains"}).Error)

	_, c := menuRequest(t, e, http.MethodDelete, nil, roles.Customer, "1")
	err := h.DeleteCategory(c)

	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusForbidden, he.Code)

	rec, c := menuRequest(t, e, http.MethodDelete, nil, roles.Manager, "1")
	require.NoError(t, h.DeleteCategory(c))
	require.Equal(t, http.StatusNoContent, rec.Code)
}
