package handlers

import (
	"github.com/shopspring/decimal"

	"github.com/swickapp/swick-server/internal/models"
)

// Boundary projections. All monetary amounts serialize with exactly two
// fraction digits; minor-unit conversion never happens here.

func money(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.StringFixed(2)
	return &s
}

type orderSummary struct {
	ID             uint    `json:"id"`
	RestaurantName string  `json:"restaurant_name,omitempty"`
	CustomerName   string  `json:"customer_name,omitempty"`
	Table          string  `json:"table,omitempty"`
	Status         int     `json:"status"`
	OrderTime      string  `json:"order_time"`
	Total          *string `json:"total,omitempty"`
}

func customerOrderSummary(o *models.Order) orderSummary {
	return orderSummary{
		ID:             o.ID,
		RestaurantName: o.Restaurant.Name,
		Status:         int(o.Status),
		OrderTime:      o.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		Total:          money(o.Total),
	}
}

func serverOrderSummary(o *models.Order) orderSummary {
	return orderSummary{
		ID:           o.ID,
		CustomerName: o.Customer.User.Name,
		Table:        o.Table,
		Status:       int(o.Status),
		OrderTime:    o.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

type itemCustomization struct {
	ID      uint     `json:"id"`
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

type orderItemView struct {
	ID             uint                `json:"id"`
	OrderID        uint                `json:"order_id"`
	MealName       string              `json:"meal_name"`
	Quantity       uint                `json:"quantity"`
	Total          string              `json:"total"`
	Status         int                 `json:"status"`
	Customizations []itemCustomization `json:"customizations,omitempty"`
}

func itemView(it *models.OrderItem) orderItemView {
	view := orderItemView{
		ID:       it.ID,
		OrderID:  it.OrderID,
		MealName: it.MealName,
		Quantity: it.Quantity,
		Total:    it.Total.StringFixed(2),
		Status:   int(it.Status),
	}
	for _, cust := range it.Customizations {
		view.Customizations = append(view.Customizations, itemCustomization{
			ID:      cust.ID,
			Name:    cust.CustomizationName,
			Options: cust.Options,
		})
	}
	return view
}

type orderDetails struct {
	ID           uint            `json:"id"`
	CustomerName string          `json:"customer_name,omitempty"`
	Table        string          `json:"table"`
	Status       int             `json:"status"`
	OrderTime    string          `json:"order_time"`
	Total        *string         `json:"total"`
	Tip          *string         `json:"tip,omitempty"`
	Items        []orderItemView `json:"order_items"`
}

func detailsView(o *models.Order) orderDetails {
	view := orderDetails{
		ID:           o.ID,
		CustomerName: o.Customer.User.Name,
		Table:        o.Table,
		Status:       int(o.Status),
		OrderTime:    o.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		Total:        money(o.Total),
		Tip:          money(o.Tip),
	}
	for i := range o.Items {
		view.Items = append(view.Items, itemView(&o.Items[i]))
	}
	return view
}

type mealView struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
}

func mealViews(meals []models.Meal) []mealView {
	views := make([]mealView, 0, len(meals))
	for _, m := range meals {
		views = append(views, mealView{
			ID:          m.ID,
			Name:        m.Name,
			Description: m.Description,
			Price:       m.Price.StringFixed(2),
		})
	}
	return views
}

type customizationView struct {
	ID             uint     `json:"id"`
	Name           string   `json:"name"`
	Options        []string `json:"options"`
	PriceAdditions []string `json:"price_additions"`
	Min            int      `json:"min"`
	Max            int      `json:"max"`
}

func customizationViews(custs []models.Customization) []customizationView {
	views := make([]customizationView, 0, len(custs))
	for _, cust := range custs {
		view := customizationView{
			ID:      cust.ID,
			Name:    cust.Name,
			Options: cust.Options,
			Min:     cust.Min,
			Max:     cust.Max,
		}
		for _, pa := range cust.PriceAdditions {
			view.PriceAdditions = append(view.PriceAdditions, pa.StringFixed(2))
		}
		views = append(views, view)
	}
	return views
}
