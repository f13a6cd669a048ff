package order

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/littlelemon/restaurant-api/internal/checkout"
	"github.com/littlelemon/restaurant-api/internal/models"
	"github.com/littlelemon/restaurant-api/internal/roles"
)

type testEnv struct {
	T  *testing.T
	E  *echo.Echo
	DB *gorm.DB
	H  *OrderHandler
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory db: %v", err)
	}
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.Group{}, &models.User{}, &models.CartLine{},
		&models.Order{}, &models.OrderItem{},
	); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	return &testEnv{
		T:  t,
		E:  echo.New(),
		DB: db,
		H:  &OrderHandler{DB: db, Checkout: &checkout.Service{DB: db}},
	}
}

// seedCrewMember creates a user inside the Delivery crew group.
func (env *testEnv) seedCrewMember(username string) models.User {
	group := models.Group{Name: roles.GroupDeliveryCrew}
	require.NoError(env.T, env.DB.Where("name = ?", group.Name).FirstOrCreate(&group).Error)

	user := models.User{Username: username, PasswordHash: "x"}
	require.NoError(env.T, env.DB.Create(&user).Error)
	require.NoError(env.T, env.DB.Model(&user).Association("Groups").Append(&group))
	return user
}

func (env *testEnv) request(method string, body any, role roles.Role, userID uint, orderID string) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1/orders", &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	c.Set("userID", userID)
	c.Set("role", role)
	if orderID != "" {
		c.SetParamNames("id")
		c.SetParamValues(orderID)
	}
	return rec, c
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	return he.Code
}

func TestCreateOrderFromCart(t *testing.T) {
	env := newTestEnv(t)

	lines := []models.CartLine{
		{UserID: 1, MenuItemID: 10, Quantity: 2, UnitPrice: d("10.00"), Price: d("20.00")},
		{UserID: 1, MenuItemID: 11, Quantity: 1, UnitPrice: d("5.50"), Price: d("5.50")},
	}
	require.NoError(t, env.DB.Create(&lines).Error)

	rec, c := env.request(http.MethodPost, nil, roles.Customer, 1, "")
	require.NoError(t, env.H.CreateOrder(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Total.Equal(d("25.50")), "total = %s", resp.Total)
	require.Len(t, resp.Items, 2)

	var remaining int64
	require.NoError(t, env.DB.Model(&models.CartLine{}).Where("user_id = ?", 1).Count(&remaining).Error)
	require.Zero(t, remaining)
}

func TestCreateOrderEmptyCart(t *testing.T) {
	env := newTestEnv(t)

	_, c := env.request(http.MethodPost, nil, roles.Customer, 1, "")
	err := env.H.CreateOrder(c)
	require.Equal(t, http.StatusBadRequest, httpStatus(t, err))
}

func TestListOrdersRoleFiltered(t *testing.T) {
	env := newTestEnv(t)

	crewID := uint(3)
	orders := []models.Order{
		{UserID: 1, Total: d("10.00")},
		{UserID: 2, Total: d("20.00"), DeliveryCrewID: &crewID},
	}
	require.NoError(t, env.DB.Create(&orders).Error)

	cases := []struct {
		name   string
		role   roles.Role
		userID uint
		want   int
	}{
		{"manager sees all", roles.Manager, 99, 2},
		{"crew sees assigned", roles.DeliveryCrew, 3, 1},
		{"customer sees own", roles.Customer, 1, 1},
		{"stranger sees none", roles.Customer, 42, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, c := env.request(http.MethodGet, nil, tc.role, tc.userID, "")
			require.NoError(t, env.H.ListOrders(c))
			require.Equal(t, http.StatusOK, rec.Code)

			var resp []models.Order
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.Len(t, resp, tc.want)
		})
	}
}

func TestCustomerGetForeignOrderNotFound(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.DB.Create(&models.Order{UserID: 2, Total: d("10.00")}).Error)

	_, c := env.request(http.MethodGet, nil, roles.Customer, 1, "1")
	err := env.H.GetOrder(c)
	require.Equal(t, http.StatusNotFound, httpStatus(t, err))
}

func TestCrewPatchSetsOnlyStatus(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.DB.Create(&models.Order{UserID: 1, Total: d("42.00")}).Error)

	body := map[string]any{"status": models.StatusDelivered, "total": 999}
	rec, c := env.request(http.MethodPatch, body, roles.DeliveryCrew, 3, "1")
	require.NoError(t, env.H.PatchOrder(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var order models.Order
	require.NoError(t, env.DB.First(&order, 1).Error)
	require.Equal(t, models.StatusDelivered, order.Status)
	require.True(t, order.Total.Equal(d("42.00")), "total = %s", order.Total)
}

func TestCrewPatchWithoutStatusForbidden(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.DB.Create(&models.Order{UserID: 1, Total: d("42.00")}).Error)

	body := map[string]any{"total": 999}
	_, c := env.request(http.MethodPatch, body, roles.DeliveryCrew, 3, "1")
	err := env.H.PatchOrder(c)
	require.Equal(t, http.StatusForbidden, httpStatus(t, err))
}

func TestCrewPatchRejectsUndeliveredStatus(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.DB.Create(&models.Order{UserID: 1, Total: d("42.00"), Status: models.StatusDelivered}).Error)

	body := map[string]any{"status": models.StatusPlaced}
	_, c := env.request(http.MethodPatch, body, roles.DeliveryCrew, 3, "1")
	err := env.H.PatchOrder(c)
	require.Equal(t, http.StatusBadRequest, httpStatus(t, err))
}

func TestManagerAssignsCrew(t *testing.T) {
	env := newTestEnv(t)

	crew := env.seedCrewMember("rider")
	require.NoError(t, env.DB.Create(&models.Order{UserID: 1, Total: d("10.00")}).Error)

	body := map[string]any{"delivery_crew_id": crew.ID}
	rec, c := env.request(http.MethodPatch, body, roles.Manager, 99, "1")
	require.NoError(t, env.H.PatchOrder(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var order models.Order
	require.NoError(t, env.DB.First(&order, 1).Error)
	require.NotNil(t, order.DeliveryCrewID)
	require.Equal(t, crew.ID, *order.DeliveryCrewID)
}

func TestManagerAssignRejectsNonCrew(t *testing.T) {
	env := newTestEnv(t)

	user := models.User{Username: "plain", PasswordHash: "x"}
	require.NoError(t, env.DB.Create(&user).Error)
	require.NoError(t, env.DB.Create(&models.Order{UserID: 1, Total: d("10.00")}).Error)

	body := map[string]any{"delivery_crew_id": user.ID}
	_, c := env.request(http.MethodPatch, body, roles.Manager, 99, "1")
	err := env.H.PatchOrder(c)
	require.Equal(t, http.StatusBadRequest, httpStatus(t, err))
}

func TestCustomerPatchEmptyEffectivePayloadForbidden(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.DB.Create(&models.Order{UserID: 1, Total: d("10.00")}).Error)

	// only staff-level fields, all filtered away for a customer
	body := map[string]any{"status": models.StatusDelivered, "total": 999}
	_, c := env.request(http.MethodPatch, body, roles.Customer, 1, "1")
	err := env.H.PatchOrder(c)
	require.Equal(t, http.StatusForbidden, httpStatus(t, err))
}

func TestCustomerPutForeignOrderNotFound(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.DB.Create(&models.Order{UserID: 2, Total: d("10.00")}).Error)

	body := map[string]any{"date": "2026-01-02T15:04:05Z"}
	_, c := env.request(http.MethodPut, body, roles.Customer, 1, "1")
	err := env.H.ReplaceOrder(c)
	require.Equal(t, http.StatusNotFound, httpStatus(t, err))
}

func TestCrewPutForbidden(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.DB.Create(&models.Order{UserID: 1, Total: d("10.00")}).Error)

	body := map[string]any{"status": models.StatusDelivered}
	_, c := env.request(http.MethodPut, body, roles.DeliveryCrew, 3, "1")
	err := env.H.ReplaceOrder(c)
	require.Equal(t, http.StatusForbidden, httpStatus(t, err))
}

func TestManagerDeleteCascades(t *testing.T) {
	env := newTestEnv(t)

	order := models.Order{UserID: 1, Total: d("25.50"), Items: []models.OrderItem{
		{MenuItemID: 10, Quantity: 2, UnitPrice: d("10.00"), Price: d("20.00")},
		{MenuItemID: 11, Quantity: 1, UnitPrice: d("5.50"), Price: d("5.50")},
	}}
	require.NoError(t, env.DB.Create(&order).Error)

	rec, c := env.request(http.MethodDelete, nil, roles.Manager, 99, "1")
	require.NoError(t, env.H.DeleteOrder(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	var orders, items int64
	require.NoError(t, env.DB.Model(&models.Order{}).Count(&orders).Error)
	require.NoError(t, env.DB.Model(&models.OrderItem{}).Count(&items).Error)
	require.Zero(t, orders)
	require.Zero(t, items)
}

func TestCustomerDeleteOwnOrderForbidden(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.DB.Create(&models.Order{UserID: 1, Total: d("10.00")}).Error)

	_, c := env.request(http.MethodDelete, nil, roles.Customer, 1, "1")
	err := env.H.DeleteOrder(c)
	require.Equal(t, http.StatusForbidden, httpStatus(t, err))
}
