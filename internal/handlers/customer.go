package handlers

import (
	"log/slog"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/swickapp/swick-server/internal/identity"
	"github.com/swickapp/swick-server/internal/repo"
	"github.com/swickapp/swick-server/internal/service"
)

// CustomerHandler serves the mobile customer app: menu browsing, placement,
// payment continuation, cards, service requests.
type CustomerHandler struct {
	Orders *service.OrderService
	Menu   *repo.MenuRepo
	Log    *slog.Logger
}

func (h *CustomerHandler) CreateAccount(c echo.Context) error {
	ident, err := identity.FromContext(c)
	if err != nil {
		return err
	}
	if _, err := h.Orders.EnsureCustomer(c.Request().Context(), ident); err != nil {
		return fail(c, h.Log, err, "customer_does_not_exist")
	}
	return ok(c, nil)
}

func (h *CustomerHandler) GetRestaurants(c echo.Context) error {
	restaurants, err := h.Menu.Restaurants(c.Request().Context())
	if err != nil {
		return fail(c, h.Log, err, "restaurant_does_not_exist")
	}
	return ok(c, map[string]any{"restaurants": restaurants})
}

func (h *CustomerHandler) GetRestaurant(c echo.Context) error {
	id, err := pathID(c, "restaurant_id")
	if err != nil {
		return tag(c, "invalid_request")
	}
	restaurant, err := h.Menu.Restaurant(c.Request().Context(), id)
	if err == repo.ErrNotFound {
		return tag(c, "restaurant_does_not_exist")
	}
	if err != nil {
		return fail(c, h.Log, err, "restaurant_does_not_exist")
	}
	return ok(c, map[string]any{"restaurant": restaurant})
}

func (h *CustomerHandler) GetCategories(c echo.Context) error {
	id, err := pathID(c, "restaurant_id")
	if err != nil {
		return tag(c, "invalid_request")
	}
	categories, err := h.Menu.Categories(c.Request().Context(), id)
	if err != nil {
		return fail(c, h.Log, err, "restaurant_does_not_exist")
	}
	return ok(c, map[string]any{"categories": categories})
}

func (h *CustomerHandler) GetMenu(c echo.Context) error {
	restaurantID, err := pathID(c, "restaurant_id")
	if err != nil {
		return tag(c, "invalid_request")
	}

	var categoryID *uint
	if raw := c.QueryParam("category_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return tag(c, "invalid_request")
		}
		cid := uint(id)
		categoryID = &cid
	}

	meals, err := h.Menu.Meals(c.Request().Context(), restaurantID, categoryID)
	if err != nil {
		return fail(c, h.Log, err, "restaurant_does_not_exist")
	}
	return ok(c, map[string]any{"menu": mealViews(meals)})
}

func (h *CustomerHandler) GetMealCustomizations(c echo.Context) error {
	mealID, err := pathID(c, "meal_id")
	if err != nil {
		return tag(c, "invalid_request")
	}
	custs, err := h.Menu.Customizations(c.Request().Context(), mealID)
	if err != nil {
		return fail(c, h.Log, err, "meal_does_not_exist")
	}
	return ok(c, map[string]any{"customizations": customizationViews(custs)})
}

func (h *CustomerHandler) PlaceOrder(c echo.Context) error {
	ident, err := identity.FromContext(c)
	if err != nil {
		return err
	}

	var req service.PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		return tag(c, "invalid_request")
	}

	result, _, err := h.Orders.PlaceOrder(c.Request().Context(), ident, req)
	if err != nil {
		return fail(c, h.Log, err, "restaurant_does_not_exist")
	}
	return ok(c, map[string]any{
		"intent_status":  result.IntentStatus,
		"payment_intent": result.IntentID,
		"client_secret":  result.ClientSecret,
		"error":          result.ErrorMessage,
	})
}

func (h *CustomerHandler) RetryPayment(c echo.Context) error {
	ident, err := identity.FromContext(c)
	if err != nil {
		return err
	}

	var req struct {
		PaymentIntentID string `json:"payment_intent_id"`
	}
	if err := c.Bind(&req); err != nil || req.PaymentIntentID == "" {
		return tag(c, "invalid_request")
	}

	result, err := h.Orders.RetryPayment(c.Request().Context(), ident, req.PaymentIntentID)
	if err != nil {
		return fail(c, h.Log, err, "order_does_not_exist")
	}
	return ok(c, map[string]any{
		"intent_status": result.IntentStatus,
		"error":         result.ErrorMessage,
	})
}

func (h *CustomerHandler) AddTip(c echo.Context) error {
	ident, err := identity.FromContext(c)
	if err != nil {
		return err
	}

	var req struct {
		OrderID         uint   `json:"order_id"`
		Tip             string `json:"tip"`
		PaymentMethodID string `json:"payment_method_id"`
	}
	if err := c.Bind(&req); err != nil {
		return tag(c, "invalid_request")
	}
	amount, err := decimal.NewFromString(req.Tip)
	if err != nil {
		return tag(c, "invalid_request")
	}

	result, err := h.Orders.AddTip(c.Request().Context(), ident, req.OrderID, amount, req.PaymentMethodID)
	if err != nil {
		return fail(c, h.Log, err, "order_does_not_exist")
	}
	return ok(c, map[string]any{
		"intent_status":  result.IntentStatus,
		"payment_intent": result.IntentID,
		"client_secret":  result.ClientSecret,
		"error":          result.ErrorMessage,
	})
}

func (h *CustomerHandler) GetOrders(c echo.Context) error {
	ident, err := identity.FromContext(c)
	if err != nil {
		return err
	}
	orders, err := h.Orders.CustomerOrders(c.Request().Context(), ident)
	if err != nil {
		return fail(c, h.Log, err, "customer_does_not_exist")
	}

	views := make([]orderSummary, 0, len(orders))
	for i := range orders {
		views = append(views, customerOrderSummary(&orders[i]))
	}
	return ok(c, map[string]any{"orders": views})
}

func (h *CustomerHandler) GetOrderDetails(c echo.Context) error {
	ident, err := identity.FromContext(c)
	if err != nil {
		return err
	}
	orderID, err := pathID(c, "order_id")
	if err != nil {
		return tag(c, "invalid_request")
	}

	order, err := h.Orders.OrderDetails(c.Request().Context(), ident, orderID)
	if err != nil {
		return fail(c, h.Log, err, "order_does_not_exist")
	}
	return ok(c, map[string]any{"order_details": detailsView(order)})
}

func (h *CustomerHandler) SetupCard(c echo.Context) error {
	ident, err := identity.FromContext(c)
	if err != nil {
		return err
	}
	secret, err := h.Orders.SetupCard(c.Request().Context(), ident)
	if err != nil {
		return fail(c, h.Log, err, "customer_does_not_exist")
	}
	return ok(c, map[string]any{"client_secret": secret})
}

func (h *CustomerHandler) GetCards(c echo.Context) error {
	ident, err := identity.FromContext(c)
	if err != nil {
		return err
	}
	cards, err := h.Orders.Cards(c.Request().Context(), ident)
	if err != nil {
		return fail(c, h.Log, err, "customer_does_not_exist")
	}
	return ok(c, map[string]any{"cards": cards})
}

func (h *CustomerHandler) RemoveCard(c echo.Context) error {
	ident, err := identity.FromContext(c)
	if err != nil {
		return err
	}

	var req struct {
		PaymentMethodID string `json:"payment_method_id"`
	}
	if err := c.Bind(&req); err != nil || req.PaymentMethodID == "" {
		return tag(c, "invalid_request")
	}
	if err := h.Orders.RemoveCard(c.Request().Context(), ident, req.PaymentMethodID); err != nil {
		return fail(c, h.Log, err, "customer_does_not_exist")
	}
	return ok(c, nil)
}

func (h *CustomerHandler) GetRequestOptions(c echo.Context) error {
	restaurantID, err := pathID(c, "restaurant_id")
	if err != nil {
		return tag(c, "invalid_request")
	}
	options, err := h.Orders.RequestOptions(c.Request().Context(), restaurantID)
	if err != nil {
		return fail(c, h.Log, err, "restaurant_does_not_exist")
	}
	return ok(c, map[string]any{"request_options": options})
}

func (h *CustomerHandler) CreateRequest(c echo.Context) error {
	ident, err := identity.FromContext(c)
	if err != nil {
		return err
	}

	var req struct {
		RestaurantID    uint   `json:"restaurant_id"`
		RequestOptionID uint   `json:"request_option_id"`
		Table           string `json:"table"`
	}
	if err := c.Bind(&req); err != nil {
		return tag(c, "invalid_request")
	}

	if _, err := h.Orders.CreateRequest(c.Request().Context(), ident, req.RestaurantID, req.RequestOptionID, req.Table); err != nil {
		return fail(c, h.Log, err, "restaurant_does_not_exist")
	}
	return ok(c, nil)
}

func pathID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
