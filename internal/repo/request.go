package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/swickapp/swick-server/internal/models"
)

// RequestRepo stores customer service requests and the restaurant-defined
// options behind them.
type RequestRepo struct {
	DB *gorm.DB
}

func (r *RequestRepo) Options(ctx context.Context, restaurantID uint) ([]models.RequestOption, error) {
	var options []models.RequestOption
	err := r.DB.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("name ASC").Find(&options).Error
	return options, err
}

func (r *RequestRepo) Option(ctx context.Context, restaurantID, optionID uint) (*models.RequestOption, error) {
	var option models.RequestOption
	err := r.DB.WithContext(ctx).
		Where("id = ? AND restaurant_id = ?", optionID, restaurantID).
		First(&option).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &option, nil
}

func (r *RequestRepo) Create(ctx context.Context, req *models.Request) error {
	return r.DB.WithContext(ctx).Create(req).Error
}

// PendingByRestaurant lists open requests oldest first, for fan-out display
// next to items to send.
func (r *RequestRepo) PendingByRestaurant(ctx context.Context, restaurantID uint) ([]models.Request, error) {
	var reqs []models.Request
	err := r.DB.WithContext(ctx).Preload("RequestOption").
		Preload("Customer").Preload("Customer.User").
		Joins("JOIN request_options ON request_options.id = requests.request_option_id").
		Where("request_options.restaurant_id = ?", restaurantID).
		Order("requests.created_at ASC, requests.id ASC").Find(&reqs).Error
	return reqs, err
}

// GetScoped loads a request only when it belongs to the restaurant; anything
// else is ErrNotFound.
func (r *RequestRepo) GetScoped(ctx context.Context, restaurantID, requestID uint) (*models.Request, error) {
	var req models.Request
	err := r.DB.WithContext(ctx).Preload("RequestOption").
		Joins("JOIN request_options ON request_options.id = requests.request_option_id").
		Where("requests.id = ? AND request_options.restaurant_id = ?", requestID, restaurantID).
		First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *RequestRepo) Delete(ctx context.Context, requestID uint) error {
	return r.DB.WithContext(ctx).Delete(&models.Request{}, requestID).Error
}
