package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Group struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"unique;not null"          json:"name"`
}

type User struct {
	ID           uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string  `gorm:"unique;not null"          json:"username"`
	Email        string  `json:"email"`
	PasswordHash string  `gorm:"not null"                 json:"-"`
	Groups       []Group `gorm:"many2many:user_groups"    json:"-"`
}

type Category struct {
	ID    uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Slug  string `gorm:"unique;not null"          json:"slug"`
	Title string `gorm:"not null"                 json:"title"`
}

type MenuItem struct {
	ID         uint            `gorm:"primaryKey;autoIncrement"    json:"id"`
	Title      string          `gorm:"not null"                    json:"title"`
	Price      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Featured   bool            `json:"featured"`
	CategoryID uint            `gorm:"index"                       json:"category_id"`
}

// CartLine is one position in a user's cart. Price is kept equal to
// UnitPrice*Quantity on every write.
type CartLine struct {
	ID         uint            `gorm:"primaryKey"                  json:"id"`
	UserID     uint            `gorm:"index;not null"              json:"user_id"`
	MenuItemID uint            `gorm:"not null"                    json:"menu_item_id"`
	Quantity   uint            `gorm:"default:1;check:quantity>0"  json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Price      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
}

const (
	StatusPlaced    = 0
	StatusDelivered = 1
)

type Order struct {
	ID             uint            `gorm:"primaryKey"                  json:"id"`
	UserID         uint            `gorm:"index;not null"              json:"user_id"`
	DeliveryCrewID *uint           `gorm:"index"                       json:"delivery_crew_id"`
	Status         int             `gorm:"not null;default:0"          json:"status"`
	Total          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`
	Date           time.Time       `gorm:"not null"                    json:"date"`
	Items          []OrderItem     `gorm:"foreignKey:OrderID"          json:"items"`
}

type OrderItem struct {
	ID         uint            `gorm:"primaryKey"                  json:"id"`
	OrderID    uint            `gorm:"index;not null"              json:"order_id"`
	MenuItemID uint            `gorm:"not null"                    json:"menu_item_id"`
	Quantity   uint            `gorm:"default:1;check:quantity>0"  json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Price      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
}
