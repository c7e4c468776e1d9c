package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// OrderStatus is the aggregate status of an order, derived from its items.
type OrderStatus int

const (
	OrderCooking  OrderStatus = 1
	OrderActive   OrderStatus = 2
	OrderComplete OrderStatus = 3
)

// OrderItemStatus is the per-item kitchen lifecycle.
type OrderItemStatus int

const (
	ItemCooking  OrderItemStatus = 1
	ItemSending  OrderItemStatus = 2
	ItemComplete OrderItemStatus = 3
)

func (s OrderItemStatus) Valid() bool {
	return s == ItemCooking || s == ItemSending || s == ItemComplete
}

// User mirrors the identity provider's account record. The server never
// verifies credentials; it only keeps name/email in sync with token claims.
type User struct {
	ID    uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Email string `gorm:"unique;not null"          json:"email"`
	Name  string `gorm:"not null"                 json:"name"`
}

type Restaurant struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       uint   `gorm:"uniqueIndex;not null"     json:"user_id"`
	Name         string `gorm:"not null"                 json:"name"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	Timezone     string `gorm:"default:US/Eastern"       json:"timezone"`
	StripeAcctID string `json:"-"`
}

type Customer struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       uint   `gorm:"uniqueIndex;not null"     json:"user_id"`
	User         User   `gorm:"foreignKey:UserID"        json:"user"`
	StripeCustID string `json:"-"`
}

// Server is a waiter/kitchen account. RestaurantID is nil until the server
// accepts a restaurant's invite; until then the account is pending and is
// rejected from all restaurant-scoped operations.
type Server struct {
	ID           uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       uint        `gorm:"uniqueIndex;not null"     json:"user_id"`
	User         User        `gorm:"foreignKey:UserID"        json:"user"`
	RestaurantID *uint       `gorm:"index"                    json:"restaurant_id"`
	Restaurant   *Restaurant `gorm:"foreignKey:RestaurantID"  json:"-"`
}

// ServerRequest is a single-use invitation from a restaurant to an email
// address. It is deleted once the invited server's account links to the
// restaurant; Accepted marks a deferred link (account did not exist yet).
type ServerRequest struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"not null"                 json:"name"`
	Email        string `gorm:"index;not null"           json:"email"`
	RestaurantID uint   `gorm:"index;not null"           json:"restaurant_id"`
	Token        string `gorm:"uniqueIndex;not null"     json:"-"`
	Accepted     bool   `gorm:"default:false"            json:"accepted"`
}

type Category struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	RestaurantID uint   `gorm:"index;not null"           json:"restaurant_id"`
	Name         string `gorm:"not null"                 json:"name"`
}

type Meal struct {
	ID           uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	RestaurantID uint            `gorm:"index;not null"           json:"restaurant_id"`
	CategoryID   uint            `gorm:"index;not null"           json:"category_id"`
	Name         string          `gorm:"not null"                 json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `gorm:"type:decimal(7,2)"        json:"price"`
	Enabled      bool            `gorm:"default:true"             json:"enabled"`
}

// Customization is a menu-side option group (e.g. "Size", "Toppings").
// Options and PriceAdditions are parallel arrays.
type Customization struct {
	ID             uint                                 `gorm:"primaryKey;autoIncrement" json:"id"`
	MealID         uint                                 `gorm:"index;not null"           json:"meal_id"`
	Name           string                               `gorm:"not null"                 json:"name"`
	Options        datatypes.JSONSlice[string]          `json:"options"`
	PriceAdditions datatypes.JSONSlice[decimal.Decimal] `json:"price_additions"`
	Min            int                                  `gorm:"default:0"                json:"min"`
	Max            int                                  `gorm:"default:0"                json:"max"`
}

type Order struct {
	ID               uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID       uint             `gorm:"index;not null"           json:"customer_id"`
	Customer         Customer         `gorm:"foreignKey:CustomerID"    json:"-"`
	RestaurantID     uint             `gorm:"index;not null"           json:"restaurant_id"`
	Restaurant       Restaurant       `gorm:"foreignKey:RestaurantID"  json:"-"`
	Table            string           `gorm:"not null"                 json:"table"`
	Status           OrderStatus      `gorm:"not null"                 json:"status"`
	Total            *decimal.Decimal `gorm:"type:decimal(7,2)"        json:"total"`
	Tip              *decimal.Decimal `gorm:"type:decimal(7,2)"        json:"tip"`
	PaymentCompleted bool             `gorm:"default:false"            json:"payment_completed"`
	StripePaymentID  string           `json:"-"`
	StripeTipID      string           `json:"-"`
	ChefID           *uint            `gorm:"index"                    json:"chef_id"`
	ServerID         *uint            `gorm:"index"                    json:"server_id"`
	CreatedAt        time.Time        `gorm:"not null"                 json:"order_time"`
	Items            []OrderItem      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// OrderItem snapshots the meal name and price at order time so menu edits
// cannot change historical orders.
type OrderItem struct {
	ID             uint                     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID        uint                     `gorm:"index;not null"           json:"order_id"`
	MealName       string                   `gorm:"not null"                 json:"meal_name"`
	MealPrice      decimal.Decimal          `gorm:"type:decimal(7,2)"        json:"meal_price"`
	Quantity       uint                     `gorm:"not null;check:quantity>0" json:"quantity"`
	Total          decimal.Decimal          `gorm:"type:decimal(7,2)"        json:"total"`
	Status         OrderItemStatus          `gorm:"not null"                 json:"status"`
	Customizations []OrderItemCustomization `gorm:"foreignKey:OrderItemID;constraint:OnDelete:CASCADE" json:"customizations,omitempty"`
}

// OrderItemCustomization snapshots the chosen options and their price
// additions. Immutable after creation.
type OrderItemCustomization struct {
	ID                uint                                 `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderItemID       uint                                 `gorm:"index;not null"           json:"order_item_id"`
	CustomizationName string                               `gorm:"not null"                 json:"name"`
	Options           datatypes.JSONSlice[string]          `json:"options"`
	PriceAdditions    datatypes.JSONSlice[decimal.Decimal] `json:"price_additions"`
}

// RequestOption is a restaurant-defined service request type ("Need napkins").
type RequestOption struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	RestaurantID uint   `gorm:"index;not null"           json:"restaurant_id"`
	Name         string `gorm:"not null"                 json:"name"`
}

// Request is a customer-initiated service request at a table.
type Request struct {
	ID              uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	RequestOptionID uint          `gorm:"index;not null"           json:"request_option_id"`
	RequestOption   RequestOption `gorm:"foreignKey:RequestOptionID" json:"request_option"`
	CustomerID      uint          `gorm:"index;not null"           json:"customer_id"`
	Customer        Customer      `gorm:"foreignKey:CustomerID"    json:"-"`
	Table           string        `gorm:"not null"                 json:"table"`
	CreatedAt       time.Time     `gorm:"not null"                 json:"time"`
}

// All is the migration set, leaves first.
func All() []any {
	return []any{
		&User{}, &Restaurant{}, &Customer{}, &Server{}, &ServerRequest{},
		&Category{}, &Meal{}, &Customization{},
		&Order{}, &OrderItem{}, &OrderItemCustomization{},
		&RequestOption{}, &Request{},
	}
}
