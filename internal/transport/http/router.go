package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/littlelemon/restaurant-api/internal/handlers"
	"github.com/littlelemon/restaurant-api/internal/handlers/cart"
	"github.com/littlelemon/restaurant-api/internal/handlers/order"
	authmw "github.com/littlelemon/restaurant-api/internal/middleware/auth"
)

type Deps struct {
	DB            *gorm.DB
	AuthMW        *authmw.Middleware
	AuthHandler   *handlers.AuthHandler
	MenuHandler   *handlers.MenuHandler
	ManagerRoster *handlers.RosterHandler
	CrewRoster    *handlers.RosterHandler
	CartHandler   *cart.CartHandler
	OrderHandler  *order.OrderHandler
	SearchHandler *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)

	api := v1.Group("", d.AuthMW.RequireLogin)

	api.GET("/categories", d.MenuHandler.GetCategories)
	api.POST("/categories", d.MenuHandler.CreateCategory)
	api.GET("/categories/:id", d.MenuHandler.GetCategory)
	api.PUT("/categories/:id", d.MenuHandler.UpdateCategory)
	api.DELETE("/categories/:id", d.MenuHandler.DeleteCategory)

	api.GET("/menu-items", d.MenuHandler.GetMenuItems)
	api.POST("/menu-items", d.MenuHandler.CreateMenuItem)
	if d.SearchHandler != nil {
		api.GET("/menu-items/search", d.SearchHandler.Search)
	}
	api.GET("/menu-items/:id", d.MenuHandler.GetMenuItem)
	api.PUT("/menu-items/:id", d.MenuHandler.UpdateMenuItem)
	api.DELETE("/menu-items/:id", d.MenuHandler.DeleteMenuItem)

	api.GET("/groups/manager/users", d.ManagerRoster.ListMembers)
	api.POST("/groups/manager/users", d.ManagerRoster.AddMember)
	api.GET("/groups/manager/users/:id", d.ManagerRoster.GetMember)
	api.DELETE("/groups/manager/users/:id", d.ManagerRoster.RemoveMember)

	api.GET("/groups/delivery-crew/users", d.CrewRoster.ListMembers)
	api.POST("/groups/delivery-crew/users", d.CrewRoster.AddMember)
	api.GET("/groups/delivery-crew/users/:id", d.CrewRoster.GetMember)
	api.DELETE("/groups/delivery-crew/users/:id", d.CrewRoster.RemoveMember)

	api.GET("/cart/menu-items", d.CartHandler.GetCart)
	api.POST("/cart/menu-items", d.CartHandler.AddToCart)
	api.DELETE("/cart/menu-items", d.CartHandler.ClearCart)

	api.GET("/orders", d.OrderHandler.ListOrders)
	api.POST("/orders", d.OrderHandler.CreateOrder)
	api.GET("/orders/:id", d.OrderHandler.GetOrder)
	api.PUT("/orders/:id", d.OrderHandler.ReplaceOrder)
	api.PATCH("/orders/:id", d.OrderHandler.PatchOrder)
	api.DELETE("/orders/:id", d.OrderHandler.DeleteOrder)
}
