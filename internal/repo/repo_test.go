package repo

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/swickapp/swick-server/internal/models"
)

func InitTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

func seedRestaurant(t *testing.T, db *gorm.DB, userID uint, name string) *models.Restaurant {
	t.Helper()
	user := models.User{ID: userID, Email: name + "@example.com", Name: name}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	restaurant := models.Restaurant{UserID: user.ID, Name: name}
	if err := db.Create(&restaurant).Error; err != nil {
		t.Fatalf("seed restaurant: %v", err)
	}
	return &restaurant
}

func seedCustomer(t *testing.T, db *gorm.DB, userID uint) *models.Customer {
	t.Helper()
	user := models.User{ID: userID, Email: "cust@example.com", Name: "Cust Omer"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	customer := models.Customer{UserID: user.ID, StripeCustID: "cus_test"}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return &customer
}

func seedOrder(t *testing.T, db *gorm.DB, customerID, restaurantID uint, itemStatuses ...models.OrderItemStatus) *models.Order {
	t.Helper()
	total := decimal.RequireFromString("30.00")
	order := models.Order{
		CustomerID:       customerID,
		RestaurantID:     restaurantID,
		Table:            "4",
		Status:           models.OrderCooking,
		Total:            &total,
		PaymentCompleted: true,
	}
	for _, status := range itemStatuses {
		order.Items = append(order.Items, models.OrderItem{
			MealName:  "Meal",
			MealPrice: decimal.RequireFromString("10.00"),
			Quantity:  1,
			Total:     decimal.RequireFromString("10.00"),
			Status:    status,
			Customizations: []models.OrderItemCustomization{{
				CustomizationName: "Size",
				Options:           []string{"Large"},
				PriceAdditions:    []decimal.Decimal{decimal.Zero},
			}},
		})
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return &order
}
