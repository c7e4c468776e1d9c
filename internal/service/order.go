package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/swickapp/swick-server/internal/events"
	"github.com/swickapp/swick-server/internal/identity"
	"github.com/swickapp/swick-server/internal/models"
	"github.com/swickapp/swick-server/internal/payments"
	"github.com/swickapp/swick-server/internal/pricing"
	"github.com/swickapp/swick-server/internal/realtime"
	"github.com/swickapp/swick-server/internal/repo"
)

// OrderService runs the customer-side pipeline: price the cart, persist the
// order graph, drive the payment protocol, fan out events.
type OrderService struct {
	Orders      *repo.OrderRepo
	Menu        *repo.MenuRepo
	Accounts    *repo.AccountRepo
	Requests    *repo.RequestRepo
	Coordinator *payments.Coordinator
	Processor   payments.Processor
	Notifier    *realtime.Notifier
	Audit       *events.Producer
	Log         *slog.Logger
}

type CartSelection struct {
	CustomizationID uint  `json:"customization_id"`
	Options         []int `json:"options"`
}

type CartItem struct {
	MealID         uint            `json:"meal_id"`
	Quantity       uint            `json:"quantity"`
	Customizations []CartSelection `json:"customizations"`
}

type PlaceOrderRequest struct {
	RestaurantID    uint       `json:"restaurant_id"`
	Table           string     `json:"table"`
	Items           []CartItem `json:"order_items"`
	PaymentMethodID string     `json:"payment_method_id"`
}

// EnsureCustomer creates the customer record (and its processor-side customer)
// on first use. Idempotent.
func (s *OrderService) EnsureCustomer(ctx context.Context, ident identity.Identity) (*models.Customer, error) {
	user, err := s.Accounts.UpsertUser(ctx, ident.UserID, ident.Email, ident.Name)
	if err != nil {
		return nil, err
	}

	customer, err := s.Accounts.CustomerByUserID(ctx, user.ID)
	if err == nil {
		return customer, nil
	}
	if err != repo.ErrNotFound {
		return nil, err
	}

	stripeID, err := s.Processor.CreateCustomer(ctx)
	if err != nil {
		return nil, err
	}
	customer, err = s.Accounts.CreateCustomer(ctx, user.ID, stripeID)
	if err != nil {
		return nil, err
	}
	customer.User = *user
	return customer, nil
}

func (s *OrderService) customer(ctx context.Context, ident identity.Identity) (*models.Customer, error) {
	customer, err := s.Accounts.CustomerByUserID(ctx, ident.UserID)
	if err == repo.ErrNotFound {
		return nil, fmt.Errorf("%w: customer account", ErrNotFound)
	}
	return customer, err
}

// PlaceOrder prices the cart from the live menu, persists the snapshot graph
// in one transaction, then runs the payment protocol outside any store lock.
// Validation failures reject before anything is persisted.
func (s *OrderService) PlaceOrder(ctx context.Context, ident identity.Identity, req PlaceOrderRequest) (*payments.Result, *models.Order, error) {
	customer, err := s.customer(ctx, ident)
	if err != nil {
		return nil, nil, err
	}

	restaurant, err := s.Menu.Restaurant(ctx, req.RestaurantID)
	if err == repo.ErrNotFound {
		return nil, nil, fmt.Errorf("%w: restaurant", ErrNotFound)
	}
	if err != nil {
		return nil, nil, err
	}

	lines, err := s.buildLines(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	quote, err := pricing.PriceCart(lines)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	order := &models.Order{
		CustomerID:   customer.ID,
		RestaurantID: restaurant.ID,
		Table:        req.Table,
		Status:       models.OrderCooking,
		Total:        &quote.Total,
	}
	for _, line := range quote.Lines {
		item := models.OrderItem{
			MealName:  line.MealName,
			MealPrice: line.MealPrice,
			Quantity:  line.Quantity,
			Total:     line.Total,
			Status:    models.ItemCooking,
		}
		for _, sel := range line.Selections {
			item.Customizations = append(item.Customizations, models.OrderItemCustomization{
				CustomizationName: sel.Name,
				Options:           sel.Options,
				PriceAdditions:    sel.PriceAdditions,
			})
		}
		order.Items = append(order.Items, item)
	}
	if err := s.Orders.Create(ctx, order); err != nil {
		return nil, nil, err
	}

	order.Customer = *customer
	order.Restaurant = *restaurant

	result, err := s.Coordinator.Place(ctx, order, req.PaymentMethodID, customer.User.Email)
	if err != nil {
		return nil, nil, err
	}

	s.Audit.Emit(ctx, order.ID, "order_placed", map[string]any{
		"restaurant_id": restaurant.ID,
		"total":         quote.Total.StringFixed(2),
		"intent_status": result.IntentStatus,
	})
	if result.Settled {
		s.Notifier.OrderPlaced(order)
	}
	return result, order, nil
}

func (s *OrderService) buildLines(ctx context.Context, req PlaceOrderRequest) ([]pricing.Line, error) {
	var lines []pricing.Line
	for _, item := range req.Items {
		meal, err := s.Menu.Meal(ctx, req.RestaurantID, item.MealID)
		if err == repo.ErrNotFound {
			return nil, fmt.Errorf("%w: meal %d", ErrValidation, item.MealID)
		}
		if err != nil {
			return nil, err
		}

		line := pricing.Line{Meal: *meal, Quantity: item.Quantity}
		for _, sel := range item.Customizations {
			cust, err := s.Menu.Customization(ctx, meal.ID, sel.CustomizationID)
			if err == repo.ErrNotFound {
				return nil, fmt.Errorf("%w: customization %d", ErrValidation, sel.CustomizationID)
			}
			if err != nil {
				return nil, err
			}
			line.Selections = append(line.Selections, pricing.Selection{
				Customization: *cust,
				OptionIndexes: sel.Options,
			})
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// RetryPayment resolves a stored intent after the client completed the
// required card action. Idempotent after success.
func (s *OrderService) RetryPayment(ctx context.Context, ident identity.Identity, intentID string) (*payments.Result, error) {
	if _, err := s.customer(ctx, ident); err != nil {
		return nil, err
	}

	result, err := s.Coordinator.Retry(ctx, intentID)
	if err != nil {
		return nil, err
	}

	// Fan out only on the retry that actually transitioned payment state; an
	// idempotent re-run of a settled intent stays silent.
	if result.Settled {
		order, err := s.Orders.GetForPayment(ctx, result.OrderID)
		if err != nil {
			s.Log.Error("load order after settled retry",
				"intent_id", intentID, "order_id", result.OrderID, "error", err)
			return result, nil
		}
		switch result.Purpose {
		case payments.PurposeTip:
			s.Notifier.TipAdded(order)
			s.Audit.Emit(ctx, order.ID, "tip_added", map[string]any{"intent_status": result.IntentStatus})
		default:
			// The order only becomes visible to the kitchen once paid.
			s.Notifier.OrderPlaced(order)
			s.Audit.Emit(ctx, order.ID, "payment_retried", map[string]any{"intent_status": result.IntentStatus})
		}
	}
	return result, nil
}

// AddTip charges a follow-on tip for a paid order. The order total is frozen;
// the tip rides on its own intent.
func (s *OrderService) AddTip(ctx context.Context, ident identity.Identity, orderID uint, amount decimal.Decimal, methodRef string) (*payments.Result, error) {
	customer, err := s.customer(ctx, ident)
	if err != nil {
		return nil, err
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: tip must be positive", ErrValidation)
	}

	order, err := s.Orders.GetForPayment(ctx, orderID)
	if err == repo.ErrNotFound {
		return nil, fmt.Errorf("%w: order", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customer.ID {
		return nil, ErrInvalid
	}
	if !order.PaymentCompleted {
		return nil, fmt.Errorf("%w: order payment incomplete", ErrValidation)
	}

	result, err := s.Coordinator.AddTip(ctx, order, amount, methodRef)
	if err != nil {
		return nil, err
	}
	if result.Settled {
		order.Tip = &amount
		s.Notifier.TipAdded(order)
		s.Audit.Emit(ctx, order.ID, "tip_added", map[string]any{"tip": amount.StringFixed(2)})
	}
	return result, nil
}

// CustomerOrders lists the caller's paid orders, newest first.
func (s *OrderService) CustomerOrders(ctx context.Context, ident identity.Identity) ([]models.Order, error) {
	customer, err := s.customer(ctx, ident)
	if err != nil {
		return nil, err
	}
	return s.Orders.ListPaidByCustomer(ctx, customer.ID)
}

// OrderDetails loads one of the caller's orders; another customer's order id
// yields the uniform invalid result.
func (s *OrderService) OrderDetails(ctx context.Context, ident identity.Identity, orderID uint) (*models.Order, error) {
	customer, err := s.customer(ctx, ident)
	if err != nil {
		return nil, err
	}
	order, err := s.Orders.GetDetails(ctx, orderID)
	if err == repo.ErrNotFound {
		return nil, fmt.Errorf("%w: order", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customer.ID {
		return nil, ErrInvalid
	}
	return order, nil
}

// SetupCard starts the processor-side card setup for the caller.
func (s *OrderService) SetupCard(ctx context.Context, ident identity.Identity) (string, error) {
	customer, err := s.customer(ctx, ident)
	if err != nil {
		return "", err
	}
	return s.Processor.CreateSetupIntent(ctx, customer.StripeCustID)
}

func (s *OrderService) Cards(ctx context.Context, ident identity.Identity) ([]payments.Card, error) {
	customer, err := s.customer(ctx, ident)
	if err != nil {
		return nil, err
	}
	return s.Processor.ListPaymentMethods(ctx, customer.StripeCustID)
}

func (s *OrderService) RemoveCard(ctx context.Context, ident identity.Identity, methodRef string) error {
	if _, err := s.customer(ctx, ident); err != nil {
		return err
	}
	return s.Processor.DetachPaymentMethod(ctx, methodRef)
}

// RequestOptions lists the restaurant's service request types for the
// customer's picker.
func (s *OrderService) RequestOptions(ctx context.Context, restaurantID uint) ([]models.RequestOption, error) {
	if _, err := s.Menu.Restaurant(ctx, restaurantID); err == repo.ErrNotFound {
		return nil, fmt.Errorf("%w: restaurant", ErrNotFound)
	} else if err != nil {
		return nil, err
	}
	return s.Requests.Options(ctx, restaurantID)
}

// CreateRequest files a service request ("need napkins") against one of the
// restaurant's request options and notifies the kitchen channel.
func (s *OrderService) CreateRequest(ctx context.Context, ident identity.Identity, restaurantID, optionID uint, table string) (*models.Request, error) {
	customer, err := s.customer(ctx, ident)
	if err != nil {
		return nil, err
	}
	option, err := s.Requests.Option(ctx, restaurantID, optionID)
	if err == repo.ErrNotFound {
		return nil, fmt.Errorf("%w: request option", ErrValidation)
	}
	if err != nil {
		return nil, err
	}

	req := &models.Request{
		RequestOptionID: option.ID,
		CustomerID:      customer.ID,
		Table:           table,
	}
	if err := s.Requests.Create(ctx, req); err != nil {
		return nil, err
	}
	s.Notifier.RequestCreated(req, restaurantID)
	return req, nil
}
