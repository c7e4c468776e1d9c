package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/swickapp/swick-server/internal/events"
	"github.com/swickapp/swick-server/internal/identity"
	"github.com/swickapp/swick-server/internal/models"
	"github.com/swickapp/swick-server/internal/realtime"
	"github.com/swickapp/swick-server/internal/repo"
)

// ServerService covers the waiter/kitchen side: order queues, item status
// transitions, service requests, channel subscriptions.
type ServerService struct {
	Orders    *repo.OrderRepo
	Accounts  *repo.AccountRepo
	Requests  *repo.RequestRepo
	Notifier  *realtime.Notifier
	Publisher realtime.Publisher
	Audit     *events.Producer
	Log       *slog.Logger
}

type LoginResult struct {
	ServerID     uint  `json:"id"`
	RestaurantID *uint `json:"restaurant_id"`
	NameSet      bool  `json:"name_set"`
}

// Login creates the server record on first login and consumes a previously
// accepted restaurant invite.
func (s *ServerService) Login(ctx context.Context, ident identity.Identity) (*LoginResult, error) {
	if _, err := s.Accounts.UpsertUser(ctx, ident.UserID, ident.Email, ident.Name); err != nil {
		return nil, err
	}
	server, err := s.Accounts.EnsureServer(ctx, ident.UserID, ident.Email)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		ServerID:     server.ID,
		RestaurantID: server.RestaurantID,
		NameSet:      ident.Name != "",
	}, nil
}

// linked resolves the caller's server record and its restaurant. A pending
// server (no restaurant yet) gets the distinct onboarding result, checked
// before anything else.
func (s *ServerService) linked(ctx context.Context, ident identity.Identity) (*models.Server, uint, error) {
	server, err := s.Accounts.ServerByUserID(ctx, ident.UserID)
	if err == repo.ErrNotFound {
		return nil, 0, fmt.Errorf("%w: server account", ErrNotFound)
	}
	if err != nil {
		return nil, 0, err
	}
	if server.RestaurantID == nil {
		return nil, 0, ErrRestaurantNotSet
	}
	return server, *server.RestaurantID, nil
}

// RecentOrders returns the restaurant's last 20 orders.
func (s *ServerService) RecentOrders(ctx context.Context, ident identity.Identity) ([]models.Order, error) {
	_, restaurantID, err := s.linked(ctx, ident)
	if err != nil {
		return nil, err
	}
	return s.Orders.ListRecentByRestaurant(ctx, restaurantID, 20)
}

// OrdersByStatus filters the restaurant's paid orders by aggregate status.
func (s *ServerService) OrdersByStatus(ctx context.Context, ident identity.Identity, status models.OrderStatus) ([]models.Order, error) {
	_, restaurantID, err := s.linked(ctx, ident)
	if err != nil {
		return nil, err
	}
	return s.Orders.ListByRestaurantStatus(ctx, restaurantID, status)
}

func (s *ServerService) Order(ctx context.Context, ident identity.Identity, orderID uint) (*models.Order, error) {
	_, restaurantID, err := s.linked(ctx, ident)
	if err != nil {
		return nil, err
	}
	order, err := s.Orders.Get(ctx, orderID)
	if err == repo.ErrNotFound {
		return nil, fmt.Errorf("%w: order", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if order.RestaurantID != restaurantID {
		return nil, ErrInvalid
	}
	return order, nil
}

func (s *ServerService) OrderDetails(ctx context.Context, ident identity.Identity, orderID uint) (*models.Order, error) {
	_, restaurantID, err := s.linked(ctx, ident)
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
	if order.RestaurantID != restaurantID {
		return nil, ErrInvalid
	}
	return order, nil
}

// ItemsToCook lists the kitchen queue, oldest first.
func (s *ServerService) ItemsToCook(ctx context.Context, ident identity.Identity) ([]models.OrderItem, error) {
	_, restaurantID, err := s.linked(ctx, ident)
	if err != nil {
		return nil, err
	}
	return s.Orders.ItemsToCook(ctx, restaurantID)
}

// SendQueueEntry is one row of the merged to-send view: either an item ready
// to bring out or an open service request, interleaved by time.
type SendQueueEntry struct {
	Type    string            `json:"type"`
	Item    *models.OrderItem `json:"order_item,omitempty"`
	Request *models.Request   `json:"request,omitempty"`
}

// SendQueue merges items in Sending state with pending service requests,
// sorted by creation order.
func (s *ServerService) SendQueue(ctx context.Context, ident identity.Identity) ([]SendQueueEntry, error) {
	_, restaurantID, err := s.linked(ctx, ident)
	if err != nil {
		return nil, err
	}
	items, err := s.Orders.ItemsToSend(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	requests, err := s.Requests.PendingByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	entries := make([]SendQueueEntry, 0, len(items)+len(requests))
	for i := range items {
		entries = append(entries, SendQueueEntry{Type: "order_item", Item: &items[i]})
	}
	for i := range requests {
		entries = append(entries, SendQueueEntry{Type: "request", Request: &requests[i]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entrySortKey(entries[i]) < entrySortKey(entries[j])
	})
	return entries, nil
}

func entrySortKey(e SendQueueEntry) int64 {
	if e.Item != nil {
		return int64(e.Item.ID)
	}
	return e.Request.CreatedAt.UnixNano()
}

// UpdateItemStatus drives the item state machine and fans out the resulting
// events: an item event on every real transition, an order event exactly when
// the derived order status flipped.
func (s *ServerService) UpdateItemStatus(ctx context.Context, ident identity.Identity, itemID uint, status models.OrderItemStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown item status %d", ErrValidation, status)
	}
	server, restaurantID, err := s.linked(ctx, ident)
	if err != nil {
		return err
	}

	transition, err := s.Orders.UpdateItemStatus(ctx, restaurantID, itemID, status, server.ID)
	if err == repo.ErrNotFound {
		return ErrInvalid
	}
	if err != nil {
		return err
	}
	if !transition.Changed {
		return nil
	}

	s.Notifier.ItemStatusUpdated(transition.Item, restaurantID)
	if transition.OrderStatusChanged {
		s.Notifier.OrderStatusUpdated(transition.Order)
	}
	s.Audit.Emit(ctx, transition.Order.ID, "item_status_updated", map[string]any{
		"order_item_id": transition.Item.ID,
		"status":        int(status),
		"order_status":  int(transition.Order.Status),
	})
	return nil
}

// DeleteRequest resolves a service request; the fan-out fires before the row
// disappears so subscribers can reconcile.
func (s *ServerService) DeleteRequest(ctx context.Context, ident identity.Identity, requestID uint) error {
	_, restaurantID, err := s.linked(ctx, ident)
	if err != nil {
		return err
	}
	req, err := s.Requests.GetScoped(ctx, restaurantID, requestID)
	if err == repo.ErrNotFound {
		return ErrInvalid
	}
	if err != nil {
		return err
	}

	s.Notifier.RequestDeleted(req, restaurantID)
	return s.Requests.Delete(ctx, req.ID)
}

// AuthorizeChannel is the subscription handshake: reconstruct the expected
// channel owner from the caller, reject mismatches with a generic forbidden,
// and only then let the provider sign the request.
func (s *ServerService) AuthorizeChannel(ctx context.Context, ident identity.Identity, channel string, body []byte) ([]byte, error) {
	server, err := s.Accounts.ServerByUserID(ctx, ident.UserID)
	if err != nil {
		return nil, realtime.ErrForbidden
	}
	if err := realtime.CheckSubscription(channel, server.ID, server.RestaurantID); err != nil {
		return nil, realtime.ErrForbidden
	}
	return s.Publisher.AuthorizeChannel(body)
}
