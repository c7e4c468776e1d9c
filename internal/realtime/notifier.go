package realtime

import (
	"log/slog"

	"github.com/swickapp/swick-server/internal/models"
)

// Notifier routes state-change events to the right scope channel. Publish
// failures are logged and never fail the triggering request.
type Notifier struct {
	Publisher Publisher
	Log       *slog.Logger
}

func NewNotifier(p Publisher, log *slog.Logger) *Notifier {
	return &Notifier{Publisher: p, Log: log}
}

func (n *Notifier) publish(channel, event string, payload any) {
	if err := n.Publisher.Publish(channel, event, payload); err != nil {
		n.Log.Error("realtime publish failed", "channel", channel, "event", event, "err", err)
	}
}

func (n *Notifier) OrderPlaced(order *models.Order) {
	n.publish(RestaurantChannel(order.RestaurantID), EventOrderPlaced, map[string]any{
		"order_id": order.ID,
		"table":    order.Table,
	})
}

func (n *Notifier) TipAdded(order *models.Order) {
	payload := map[string]any{"order_id": order.ID}
	if order.Tip != nil {
		payload["tip"] = order.Tip.StringFixed(2)
	}
	n.publish(RestaurantChannel(order.RestaurantID), EventTipAdded, payload)
}

func (n *Notifier) ItemStatusUpdated(item *models.OrderItem, restaurantID uint) {
	n.publish(RestaurantChannel(restaurantID), EventItemStatusUpdated, map[string]any{
		"order_item_id": item.ID,
		"order_id":      item.OrderID,
		"status":        item.Status,
	})
}

// OrderStatusUpdated fans out to the kitchen channel, and additionally to the
// attributed server's private channel once the order has one.
func (n *Notifier) OrderStatusUpdated(order *models.Order) {
	payload := map[string]any{
		"order_id": order.ID,
		"status":   order.Status,
	}
	n.publish(RestaurantChannel(order.RestaurantID), EventOrderStatusUpdated, payload)
	if order.ServerID != nil {
		n.publish(ServerChannel(*order.ServerID), EventOrderStatusUpdated, payload)
	}
}

func (n *Notifier) RequestCreated(req *models.Request, restaurantID uint) {
	n.publish(RestaurantChannel(restaurantID), EventRequestCreated, map[string]any{
		"request_id": req.ID,
		"table":      req.Table,
	})
}

func (n *Notifier) RequestDeleted(req *models.Request, restaurantID uint) {
	n.publish(RestaurantChannel(restaurantID), EventRequestDeleted, map[string]any{
		"request_id": req.ID,
	})
}
