package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/swickapp/swick-server/internal/identity"
	"github.com/swickapp/swick-server/internal/models"
	"github.com/swickapp/swick-server/internal/service"
)

// ServerHandler serves the staff app: order queues, item transitions,
// service requests, channel subscription auth.
type ServerHandler struct {
	Service *service.ServerService
	Log     *slog.Logger
}

func (h *ServerHandler) Login(c echo.Context) error {
	ident, err := identity.FromContext(c)
	if err != nil {
		return err
	}
	result, err := h.Service.Login(c.Request().Context(), ident)
	if err != nil {
		return fail(c, h.Log, err, "server_does_not_exist")
	}
	return ok(c, map[string]any{
		"id":            result.ServerID,
		"restaurant_id": result.RestaurantID,
		"name_set":      result.NameSet,
	})
}

func (h *ServerHandler) GetOrders(c echo.Context) error {
	ident, err := identity.FromContext(c)
	if err != nil {
		return err
	}
	orders, err := h.Service.RecentOrders(c.Request().Context(), ident)
	if err != nil {
		return fail(c, h.Log, err, "server_does_not_exist")
	}

	views := make([]orderSummary, 0, len(orders))
	for i := range orders {
		views = append(views, serverOrderSummary(&orders[i]))
	}
	return ok(c, map[string]any{"orders": views})
}

func (h *ServerHandler) GetOrdersByStatus(c echo.Context) error {
	ident, err := identity.FromContext(c)
	if err != nil {
		return err
	}
	raw, err := pathID(c, "status")
	if err != nil {
		return tag(c, "invalid_request")
	}
	status := models.OrderStatus(raw)
	if status != models.OrderCooking && status != models.OrderActive && status != models.OrderComplete {
		return tag(c, "invalid_request")
	}

	orders, err := h.Service.OrdersByStatus(c.Request().Context(), ident, status)
	if err != nil {
		return fail(c, h.Log, err, "server_does_not_exist")
	}

	views := make([]orderSummary, 0, len(orders))
	for i := range orders {
		views = append(views, serverOrderSummary(&orders[i]))
	}
	return ok(c, map[string]any{"orders": views})
}

func (h *ServerHandler) GetOrder(c echo.Context) error {
	ident, err := identity.FromContext(c)
	if err != nil {
		return err
	}
	orderID, err := pathID(c, "order_id")
	if err != nil {
		return tag(c, "invalid_request")
	}

	order, err := h.Service.Order(c.Request().Context(), ident, orderID)
	if err != nil {
		return fail(c, h.Log, err, "order_does_not_exist")
	}
	return ok(c, map[string]any{"order": serverOrderSummary(order)})
}

func (h *ServerHandler) GetOrderDetails(c echo.Context) error {
	ident, err := identity.FromContext(c)
	if err != nil {
		return err
	}
	orderID, err := pathID(c, "order_id")
	if err != nil {
		return tag(c, "invalid_request")
	}

	order, err := h.Service.OrderDetails(c.Request().Context(), ident, orderID)
	if err != nil {
		return fail(c, h.Log, err, "order_does_not_exist")
	}
	return ok(c, map[string]any{"order_details": detailsView(order)})
}

func (h *ServerHandler) GetItemsToCook(c echo.Context) error {
	ident, err := identity.FromContext(c)
	if err != nil {
		return err
	}
	items, err := h.Service.ItemsToCook(c.Request().Context(), ident)
	if err != nil {
		return fail(c, h.Log, err, "server_does_not_exist")
	}

	views := make([]orderItemView, 0, len(items))
	for i := range items {
		views = append(views, itemView(&items[i]))
	}
	return ok(c, map[string]any{"order_items": views})
}

func (h *ServerHandler) GetItemsToSend(c echo.Context) error {
	ident, err := identity.FromContext(c)
	if err != nil {
		return err
	}
	entries, err := h.Service.SendQueue(c.Request().Context(), ident)
	if err != nil {
		return fail(c, h.Log, err, "server_does_not_exist")
	}
	return ok(c, map[string]any{"entries": entries})
}

func (h *ServerHandler) UpdateItemStatus(c echo.Context) error {
	ident, err := identity.FromContext(c)
	if err != nil {
		return err
	}

	var req struct {
		OrderItemID uint `json:"order_item_id"`
		Status      int  `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return tag(c, "invalid_request")
	}

	err = h.Service.UpdateItemStatus(c.Request().Context(), ident, req.OrderItemID, models.OrderItemStatus(req.Status))
	if err != nil {
		return fail(c, h.Log, err, "order_item_does_not_exist")
	}
	return ok(c, nil)
}

func (h *ServerHandler) DeleteRequest(c echo.Context) error {
	ident, err := identity.FromContext(c)
	if err != nil {
		return err
	}

	var req struct {
		ID uint `json:"id"`
	}
	if err := c.Bind(&req); err != nil {
		return tag(c, "invalid_request")
	}

	if err := h.Service.DeleteRequest(c.Request().Context(), ident, req.ID); err != nil {
		return fail(c, h.Log, err, "request_does_not_exist")
	}
	return ok(c, nil)
}

// PusherAuth is the channel subscription handshake. Any failure is a bare 403
// so a probing client cannot map the channel space.
func (h *ServerHandler) PusherAuth(c echo.Context) error {
	ident, err := identity.FromContext(c)
	if err != nil {
		return err
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.NoContent(http.StatusForbidden)
	}
	form, err := url.ParseQuery(string(body))
	if err != nil {
		return c.NoContent(http.StatusForbidden)
	}

	payload, err := h.Service.AuthorizeChannel(c.Request().Context(), ident, form.Get("channel_name"), body)
	if err != nil {
		return c.NoContent(http.StatusForbidden)
	}
	return c.JSONBlob(http.StatusOK, payload)
}
