package realtime

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	pusher "github.com/pusher/pusher-http-go/v5"
)

// Publisher is the narrow port to the external pub/sub provider.
type Publisher interface {
	Publish(channel, event string, payload any) error
	// AuthorizeChannel signs a raw subscription request body after the caller
	// has verified channel ownership.
	AuthorizeChannel(body []byte) ([]byte, error)
}

// Event names pushed to scope channels.
const (
	EventOrderPlaced        = "order-placed"
	EventTipAdded           = "tip-added"
	EventItemStatusUpdated  = "item-status-updated"
	EventOrderStatusUpdated = "order-status-updated"
	EventRequestCreated     = "request-created"
	EventRequestDeleted     = "request-deleted"
)

// RestaurantChannel is the kitchen-wide channel for one restaurant.
func RestaurantChannel(restaurantID uint) string {
	return fmt.Sprintf("private-restaurant-%d", restaurantID)
}

// ServerChannel is one server's private channel.
func ServerChannel(serverID uint) string {
	return fmt.Sprintf("private-server-%d", serverID)
}

// ErrForbidden is deliberately generic: a rejected subscription never learns
// whether the channel exists or who owns it.
var ErrForbidden = errors.New("forbidden channel")

// CheckSubscription verifies that the caller may subscribe to the named
// channel. serverID is the caller's server record id; restaurantID is nil for
// a pending server.
func CheckSubscription(channel string, serverID uint, restaurantID *uint) error {
	parts := strings.Split(channel, "-")
	if len(parts) != 3 || parts[0] != "private" {
		return ErrForbidden
	}
	id, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return ErrForbidden
	}

	switch parts[1] {
	case "server":
		if uint(id) != serverID {
			return ErrForbidden
		}
	case "restaurant":
		if restaurantID == nil || uint(id) != *restaurantID {
			return ErrForbidden
		}
	default:
		return ErrForbidden
	}
	return nil
}

// PusherClient implements Publisher against Pusher Channels.
type PusherClient struct {
	client pusher.Client
}

func NewPusherClient(appID, key, secret, cluster string) *PusherClient {
	return &PusherClient{client: pusher.Client{
		AppID:   appID,
		Key:     key,
		Secret:  secret,
		Cluster: cluster,
	}}
}

func (p *PusherClient) Publish(channel, event string, payload any) error {
	return p.client.Trigger(channel, event, payload)
}

func (p *PusherClient) AuthorizeChannel(body []byte) ([]byte, error) {
	return p.client.AuthorizePrivateChannel(body)
}
