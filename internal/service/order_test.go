package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/swickapp/swick-server/internal/identity"
	"github.com/swickapp/swick-server/internal/models"
	"github.com/swickapp/swick-server/internal/payments"
	"github.com/swickapp/swick-server/internal/realtime"
)

func TestPlaceOrderSucceeded(t *testing.T) {
	env := newTestEnv(t)
	restaurant := env.seedRestaurant(t, 1, "diner")
	customer := env.seedCustomer(t, 2, "cust@example.com")
	meal := env.seedMeal(t, restaurant.ID, "10.00")
	cust := env.seedCustomization(t, meal.ID, "1.50", "0.00")
	ident := identity.Identity{UserID: customer.UserID, Email: "cust@example.com"}

	result, order, err := env.orders.PlaceOrder(context.Background(), ident, PlaceOrderRequest{
		RestaurantID: restaurant.ID,
		Table:        "4",
		Items: []CartItem{{
			MealID:   meal.ID,
			Quantity: 2,
			Customizations: []CartSelection{{
				CustomizationID: cust.ID,
				Options:         []int{0},
			}},
		}},
		PaymentMethodID: "pm_1",
	})
	require.NoError(t, err)
	require.Equal(t, "succeeded", result.IntentStatus)
	require.NotNil(t, order.Total)
	require.Equal(t, "23.00", order.Total.StringFixed(2))

	var persisted models.Order
	require.NoError(t, env.db.Preload("Items").Preload("Items.Customizations").
		First(&persisted, order.ID).Error)
	require.True(t, persisted.PaymentCompleted)
	require.Len(t, persisted.Items, 1)
	require.Equal(t, "Burger", persisted.Items[0].MealName)
	require.Len(t, persisted.Items[0].Customizations, 1)
	require.Equal(t, 1, env.publisher.count(realtime.EventOrderPlaced))
}

func TestPlaceOrderRequiresActionDefersFanOut(t *testing.T) {
	env := newTestEnv(t)
	restaurant := env.seedRestaurant(t, 1, "diner")
	customer := env.seedCustomer(t, 2, "cust@example.com")
	meal := env.seedMeal(t, restaurant.ID, "10.00")
	env.processor.intent = &payments.Intent{
		ID: "pi_3ds", Status: payments.StatusRequiresAction,
		ClientSecret: "pi_3ds_secret", Purpose: payments.PurposeOrder,
	}
	ident := identity.Identity{UserID: customer.UserID}

	result, order, err := env.orders.PlaceOrder(context.Background(), ident, PlaceOrderRequest{
		RestaurantID:    restaurant.ID,
		Table:           "4",
		Items:           []CartItem{{MealID: meal.ID, Quantity: 1}},
		PaymentMethodID: "pm_1",
	})
	require.NoError(t, err)
	require.Equal(t, "requires_action", result.IntentStatus)
	require.Equal(t, "pi_3ds_secret", result.ClientSecret)

	// The kitchen hears nothing until the payment settles.
	require.Zero(t, env.publisher.count(realtime.EventOrderPlaced))

	var pending models.Order
	require.NoError(t, env.db.First(&pending, order.ID).Error)
	require.False(t, pending.PaymentCompleted)
	require.Equal(t, "pi_3ds", pending.StripePaymentID)
}

func TestRetryPaymentFansOutExactlyOnce(t *testing.T) {
	env := newTestEnv(t)
	restaurant := env.seedRestaurant(t, 1, "diner")
	customer := env.seedCustomer(t, 2, "cust@example.com")
	ident := identity.Identity{UserID: customer.UserID}

	total := decimal.RequireFromString("23.00")
	order := models.Order{
		CustomerID: customer.ID, RestaurantID: restaurant.ID,
		Table: "4", Status: models.OrderCooking, Total: &total,
		StripePaymentID: "pi_r",
	}
	require.NoError(t, env.db.Create(&order).Error)
	env.processor.intent = &payments.Intent{
		ID: "pi_r", Status: payments.StatusSucceeded,
		OrderID: order.ID, Purpose: payments.PurposeOrder,
	}

	result, err := env.orders.RetryPayment(context.Background(), ident, "pi_r")
	require.NoError(t, err)
	require.Equal(t, "succeeded", result.IntentStatus)
	require.Equal(t, 1, env.publisher.count(realtime.EventOrderPlaced))

	var paid models.Order
	require.NoError(t, env.db.First(&paid, order.ID).Error)
	require.True(t, paid.PaymentCompleted)

	// Retrying a settled intent succeeds again but stays silent.
	result, err = env.orders.RetryPayment(context.Background(), ident, "pi_r")
	require.NoError(t, err)
	require.Equal(t, "succeeded", result.IntentStatus)
	require.Equal(t, 1, env.publisher.count(realtime.EventOrderPlaced))
}

func TestRetryPaymentTipIntentEmitsTipAdded(t *testing.T) {
	env := newTestEnv(t)
	restaurant := env.seedRestaurant(t, 1, "diner")
	customer := env.seedCustomer(t, 2, "cust@example.com")
	ident := identity.Identity{UserID: customer.UserID}

	total := decimal.RequireFromString("23.00")
	tip := decimal.RequireFromString("3.00")
	order := models.Order{
		CustomerID: customer.ID, RestaurantID: restaurant.ID,
		Table: "4", Status: models.OrderCooking, Total: &total,
		PaymentCompleted: true, StripePaymentID: "pi_r",
		Tip: &tip, StripeTipID: "pi_tip",
	}
	require.NoError(t, env.db.Create(&order).Error)
	env.processor.intent = &payments.Intent{
		ID: "pi_tip", Status: payments.StatusRequiresAction,
		OrderID: order.ID, Purpose: payments.PurposeTip,
	}
	env.processor.confirmed = &payments.Intent{
		ID: "pi_tip", Status: payments.StatusSucceeded,
		OrderID: order.ID, Purpose: payments.PurposeTip,
	}

	result, err := env.orders.RetryPayment(context.Background(), ident, "pi_tip")
	require.NoError(t, err)
	require.Equal(t, "succeeded", result.IntentStatus)
	require.Equal(t, 1, env.publisher.count(realtime.EventTipAdded))
	require.Zero(t, env.publisher.count(realtime.EventOrderPlaced))

	// A later retry observes the settled tip without re-notifying.
	env.processor.intent.Status = payments.StatusSucceeded
	result, err = env.orders.RetryPayment(context.Background(), ident, "pi_tip")
	require.NoError(t, err)
	require.Equal(t, "succeeded", result.IntentStatus)
	require.Equal(t, 1, env.publisher.count(realtime.EventTipAdded))
	require.Zero(t, env.publisher.count(realtime.EventOrderPlaced))
}

func TestPlaceOrderEmptyCartRejectedBeforePersistence(t *testing.T) {
	env := newTestEnv(t)
	restaurant := env.seedRestaurant(t, 1, "diner")
	customer := env.seedCustomer(t, 2, "cust@example.com")
	ident := identity.Identity{UserID: customer.UserID}

	_, _, err := env.orders.PlaceOrder(context.Background(), ident, PlaceOrderRequest{
		RestaurantID: restaurant.ID,
		Table:        "4",
	})
	require.ErrorIs(t, err, ErrValidation)

	var count int64
	require.NoError(t, env.db.Model(&models.Order{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestPlaceOrderBadOptionIndexRejectedBeforePersistence(t *testing.T) {
	env := newTestEnv(t)
	restaurant := env.seedRestaurant(t, 1, "diner")
	customer := env.seedCustomer(t, 2, "cust@example.com")
	meal := env.seedMeal(t, restaurant.ID, "10.00")
	cust := env.seedCustomization(t, meal.ID, "1.50")
	ident := identity.Identity{UserID: customer.UserID}

	_, _, err := env.orders.PlaceOrder(context.Background(), ident, PlaceOrderRequest{
		RestaurantID: restaurant.ID,
		Table:        "4",
		Items: []CartItem{{
			MealID:   meal.ID,
			Quantity: 1,
			Customizations: []CartSelection{{
				CustomizationID: cust.ID,
				Options:         []int{5},
			}},
		}},
	})
	require.ErrorIs(t, err, ErrValidation)

	var count int64
	require.NoError(t, env.db.Model(&models.Order{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestPlaceOrderForeignMealRejected(t *testing.T) {
	env := newTestEnv(t)
	restaurant := env.seedRestaurant(t, 1, "diner")
	other := env.seedRestaurant(t, 3, "rival")
	customer := env.seedCustomer(t, 2, "cust@example.com")
	foreign := env.seedMeal(t, other.ID, "10.00")
	ident := identity.Identity{UserID: customer.UserID}

	_, _, err := env.orders.PlaceOrder(context.Background(), ident, PlaceOrderRequest{
		RestaurantID: restaurant.ID,
		Table:        "4",
		Items:        []CartItem{{MealID: foreign.ID, Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestPlaceOrderCardErrorRollsBack(t *testing.T) {
	env := newTestEnv(t)
	restaurant := env.seedRestaurant(t, 1, "diner")
	customer := env.seedCustomer(t, 2, "cust@example.com")
	meal := env.seedMeal(t, restaurant.ID, "10.00")
	env.processor.createErr = &payments.CardError{Message: "declined"}
	ident := identity.Identity{UserID: customer.UserID}

	result, _, err := env.orders.PlaceOrder(context.Background(), ident, PlaceOrderRequest{
		RestaurantID: restaurant.ID,
		Table:        "4",
		Items:        []CartItem{{MealID: meal.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, "card_error", result.IntentStatus)
	require.Equal(t, "declined", result.ErrorMessage)

	var count int64
	require.NoError(t, env.db.Model(&models.Order{}).Count(&count).Error)
	require.Zero(t, count)
	require.Zero(t, env.publisher.count(realtime.EventOrderPlaced))
}

func TestAddTipGuards(t *testing.T) {
	env := newTestEnv(t)
	restaurant := env.seedRestaurant(t, 1, "diner")
	owner := env.seedCustomer(t, 2, "owner@example.com")
	stranger := env.seedCustomer(t, 3, "stranger@example.com")

	total := decimal.RequireFromString("20.00")
	order := models.Order{
		CustomerID:   owner.ID,
		RestaurantID: restaurant.ID,
		Table:        "4",
		Status:       models.OrderCooking,
		Total:        &total,
	}
	require.NoError(t, env.db.Create(&order).Error)

	// Unpaid order cannot be tipped.
	_, err := env.orders.AddTip(context.Background(),
		identity.Identity{UserID: owner.UserID}, order.ID,
		decimal.RequireFromString("2.00"), "pm_1")
	require.ErrorIs(t, err, ErrValidation)

	require.NoError(t, env.db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("payment_completed", true).Error)

	// Non-positive tip.
	_, err = env.orders.AddTip(context.Background(),
		identity.Identity{UserID: owner.UserID}, order.ID,
		decimal.Zero, "pm_1")
	require.ErrorIs(t, err, ErrValidation)

	// Another customer's order is a uniform invalid result.
	_, err = env.orders.AddTip(context.Background(),
		identity.Identity{UserID: stranger.UserID}, order.ID,
		decimal.RequireFromString("2.00"), "pm_1")
	require.ErrorIs(t, err, ErrInvalid)

	// The owner can tip.
	result, err := env.orders.AddTip(context.Background(),
		identity.Identity{UserID: owner.UserID}, order.ID,
		decimal.RequireFromString("2.00"), "pm_1")
	require.NoError(t, err)
	require.Equal(t, "succeeded", result.IntentStatus)
	require.Equal(t, 1, env.publisher.count(realtime.EventTipAdded))

	var tipped models.Order
	require.NoError(t, env.db.First(&tipped, order.ID).Error)
	require.NotNil(t, tipped.Tip)
	require.Equal(t, "2.00", tipped.Tip.StringFixed(2))
	require.Equal(t, "20.00", tipped.Total.StringFixed(2))
}

func TestOrderDetailsOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	restaurant := env.seedRestaurant(t, 1, "diner")
	owner := env.seedCustomer(t, 2, "owner@example.com")
	stranger := env.seedCustomer(t, 3, "stranger@example.com")

	total := decimal.RequireFromString("20.00")
	order := models.Order{
		CustomerID: owner.ID, RestaurantID: restaurant.ID,
		Table: "4", Status: models.OrderCooking, Total: &total,
	}
	require.NoError(t, env.db.Create(&order).Error)

	_, err := env.orders.OrderDetails(context.Background(),
		identity.Identity{UserID: stranger.UserID}, order.ID)
	require.ErrorIs(t, err, ErrInvalid)

	got, err := env.orders.OrderDetails(context.Background(),
		identity.Identity{UserID: owner.UserID}, order.ID)
	require.NoError(t, err)
	require.Equal(t, order.ID, got.ID)
}

func TestEnsureCustomerIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ident := identity.Identity{UserID: 9, Email: "new@example.com", Name: "New"}

	first, err := env.orders.EnsureCustomer(context.Background(), ident)
	require.NoError(t, err)
	require.Equal(t, "cus_fake", first.StripeCustID)

	second, err := env.orders.EnsureCustomer(context.Background(), ident)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, env.db.Model(&models.Customer{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestCreateRequestValidatesOption(t *testing.T) {
	env := newTestEnv(t)
	restaurant := env.seedRestaurant(t, 1, "diner")
	other := env.seedRestaurant(t, 3, "rival")
	customer := env.seedCustomer(t, 2, "cust@example.com")
	ident := identity.Identity{UserID: customer.UserID}

	option := models.RequestOption{RestaurantID: other.ID, Name: "Napkins"}
	require.NoError(t, env.db.Create(&option).Error)

	// Option from another restaurant is a validation failure.
	_, err := env.orders.CreateRequest(context.Background(), ident, restaurant.ID, option.ID, "4")
	require.ErrorIs(t, err, ErrValidation)

	mine := models.RequestOption{RestaurantID: restaurant.ID, Name: "Water"}
	require.NoError(t, env.db.Create(&mine).Error)

	req, err := env.orders.CreateRequest(context.Background(), ident, restaurant.ID, mine.ID, "4")
	require.NoError(t, err)
	require.Equal(t, "4", req.Table)
	require.Equal(t, 1, env.publisher.count(realtime.EventRequestCreated))
}

func TestRemoveCardDetaches(t *testing.T) {
	env := newTestEnv(t)
	customer := env.seedCustomer(t, 2, "cust@example.com")
	ident := identity.Identity{UserID: customer.UserID}

	require.NoError(t, env.orders.RemoveCard(context.Background(), ident, "pm_gone"))
	require.Equal(t, []string{"pm_gone"}, env.processor.detached)
}
