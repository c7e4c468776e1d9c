package repo

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/swickapp/swick-server/internal/models"
)

// ErrNotFound covers both a missing row and a cross-tenant reference: callers
// must not be able to tell the two apart.
var ErrNotFound = errors.New("not found")

type OrderRepo struct {
	DB *gorm.DB
}

func (r *OrderRepo) Create(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Create(order).Error
}

func (r *OrderRepo) Get(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetForPayment loads the order with the customer and restaurant references
// the payment coordinator needs.
func (r *OrderRepo) GetForPayment(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).
		Preload("Customer").Preload("Customer.User").Preload("Restaurant").
		First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepo) GetDetails(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).
		Preload("Items").Preload("Items.Customizations").
		Preload("Customer").Preload("Customer.User").
		First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepo) SetPaymentRef(ctx context.Context, orderID uint, intentID string) error {
	return r.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", orderID).
		Update("stripe_payment_id", intentID).Error
}

// CompletePayment flips the monotonic payment flag. It never reverts.
func (r *OrderRepo) CompletePayment(ctx context.Context, orderID uint) error {
	return r.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", orderID).
		Update("payment_completed", true).Error
}

func (r *OrderRepo) SetTip(ctx context.Context, orderID uint, amount decimal.Decimal, intentID string) error {
	return r.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", orderID).
		Updates(map[string]any{"tip": amount, "stripe_tip_id": intentID}).Error
}

func (r *OrderRepo) ClearTip(ctx context.Context, orderID uint) error {
	return r.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", orderID).
		Updates(map[string]any{"tip": nil, "stripe_tip_id": ""}).Error
}

// Delete is the compensating rollback after a failed payment. Items and their
// customizations go with the order.
func (r *OrderRepo) Delete(ctx context.Context, orderID uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var itemIDs []uint
		if err := tx.Model(&models.OrderItem{}).Where("order_id = ?", orderID).
			Pluck("id", &itemIDs).Error; err != nil {
			return err
		}
		if len(itemIDs) > 0 {
			if err := tx.Where("order_item_id IN ?", itemIDs).
				Delete(&models.OrderItemCustomization{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Order{}, orderID).Error
	})
}

// ListPaidByCustomer returns the customer's placed orders, newest first.
// Orders without a total or with an unfinished payment never show up.
func (r *OrderRepo) ListPaidByCustomer(ctx context.Context, customerID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.DB.WithContext(ctx).Preload("Restaurant").
		Where("customer_id = ? AND total IS NOT NULL AND payment_completed = ?", customerID, true).
		Order("id DESC").Find(&orders).Error
	return orders, err
}

// ListRecentByRestaurant returns the restaurant's last `limit` orders.
func (r *OrderRepo) ListRecentByRestaurant(ctx context.Context, restaurantID uint, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.DB.WithContext(ctx).Preload("Customer").Preload("Customer.User").
		Where("restaurant_id = ?", restaurantID).
		Order("id DESC").Limit(limit).Find(&orders).Error
	return orders, err
}

// ListByRestaurantStatus filters paid orders by aggregate status. Completed
// orders come newest first, in-progress ones oldest first.
func (r *OrderRepo) ListByRestaurantStatus(ctx context.Context, restaurantID uint, status models.OrderStatus) ([]models.Order, error) {
	q := r.DB.WithContext(ctx).Preload("Customer").Preload("Customer.User").
		Where("restaurant_id = ? AND status = ? AND total IS NOT NULL AND payment_completed = ?",
			restaurantID, status, true)
	if status == models.OrderComplete {
		q = q.Order("id DESC")
	} else {
		q = q.Order("id ASC")
	}

	var orders []models.Order
	err := q.Find(&orders).Error
	return orders, err
}

// ItemsToCook lists the restaurant's cooking items, oldest first.
func (r *OrderRepo) ItemsToCook(ctx context.Context, restaurantID uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.DB.WithContext(ctx).Preload("Customizations").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.restaurant_id = ? AND order_items.status = ?", restaurantID, models.ItemCooking).
		Order("order_items.id ASC").Find(&items).Error
	return items, err
}

// ItemsToSend lists the restaurant's items ready to bring out.
func (r *OrderRepo) ItemsToSend(ctx context.Context, restaurantID uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.DB.WithContext(ctx).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.restaurant_id = ? AND order_items.status = ?", restaurantID, models.ItemSending).
		Order("order_items.id ASC").Find(&items).Error
	return items, err
}

// ItemTransition is the outcome of one item-status update.
type ItemTransition struct {
	Item *models.OrderItem
	// Order carries the recomputed aggregate status.
	Order *models.Order
	// Changed is true when the item status actually moved.
	Changed bool
	// OrderStatusChanged is true when the recomputation flipped the order
	// status, meaning exactly one order-status event is due.
	OrderStatusChanged bool
}

// UpdateItemStatus runs the item transition and the order-status
// recomputation atomically. The order row is locked for the duration so
// concurrent updates to sibling items cannot race the recompute; the lock is
// never held across any external call. restaurantID scopes the lookup —
// a cross-tenant item id comes back as ErrNotFound, indistinguishable from a
// missing one. serverID attributes the actor: the transition to Sending
// records the chef, the transition to Complete records the server.
func (r *OrderRepo) UpdateItemStatus(ctx context.Context, restaurantID, itemID uint, status models.OrderItemStatus, serverID uint) (*ItemTransition, error) {
	var result ItemTransition

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.OrderItem
		if err := tx.First(&item, itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var order models.Order
		if err := lockForUpdate(tx).First(&order, item.OrderID).Error; err != nil {
			return err
		}
		if order.RestaurantID != restaurantID {
			return ErrNotFound
		}

		result.Item = &item
		result.Order = &order
		if item.Status == status {
			return nil
		}

		item.Status = status
		if err := tx.Model(&models.OrderItem{}).Where("id = ?", item.ID).
			Update("status", status).Error; err != nil {
			return err
		}
		result.Changed = true

		updates := map[string]any{}
		switch status {
		case models.ItemSending:
			if order.ChefID == nil {
				order.ChefID = &serverID
				updates["chef_id"] = serverID
			}
		case models.ItemComplete:
			order.ServerID = &serverID
			updates["server_id"] = serverID
		}

		newStatus, err := recomputeOrderStatus(tx, order.ID)
		if err != nil {
			return err
		}
		if newStatus != order.Status {
			order.Status = newStatus
			updates["status"] = newStatus
			result.OrderStatusChanged = true
		}
		if len(updates) > 0 {
			if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).
				Updates(updates).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// recomputeOrderStatus derives the aggregate status purely from the item
// statuses: Complete iff every item is Complete, Cooking while nothing has
// started, Active otherwise.
func recomputeOrderStatus(tx *gorm.DB, orderID uint) (models.OrderStatus, error) {
	var remaining int64
	err := tx.Model(&models.OrderItem{}).
		Where("order_id = ? AND status <> ?", orderID, models.ItemComplete).
		Count(&remaining).Error
	if err != nil {
		return 0, err
	}
	if remaining == 0 {
		return models.OrderComplete, nil
	}

	var started int64
	err = tx.Model(&models.OrderItem{}).
		Where("order_id = ? AND status <> ?", orderID, models.ItemCooking).
		Count(&started).Error
	if err != nil {
		return 0, err
	}
	if started == 0 {
		return models.OrderCooking, nil
	}
	return models.OrderActive, nil
}

// lockForUpdate takes a row lock on dialects that support it. The in-memory
// sqlite used in tests serializes writes anyway.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
