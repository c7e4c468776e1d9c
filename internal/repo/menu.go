package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/swickapp/swick-server/internal/models"
)

// MenuRepo is read-only: menu editing lives in the external dashboard.
type MenuRepo struct {
	DB *gorm.DB
}

func (r *MenuRepo) Restaurants(ctx context.Context) ([]models.Restaurant, error) {
	var restaurants []models.Restaurant
	err := r.DB.WithContext(ctx).Order("name ASC").Find(&restaurants).Error
	return restaurants, err
}

func (r *MenuRepo) Restaurant(ctx context.Context, id uint) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := r.DB.WithContext(ctx).First(&restaurant, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &restaurant, nil
}

func (r *MenuRepo) Categories(ctx context.Context, restaurantID uint) ([]models.Category, error) {
	var categories []models.Category
	err := r.DB.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("name ASC").Find(&categories).Error
	return categories, err
}

// Meals lists a restaurant's enabled meals, all of them when categoryID is nil.
func (r *MenuRepo) Meals(ctx context.Context, restaurantID uint, categoryID *uint) ([]models.Meal, error) {
	q := r.DB.WithContext(ctx).
		Where("restaurant_id = ? AND enabled = ?", restaurantID, true)
	if categoryID != nil {
		q = q.Where("category_id = ?", *categoryID)
	}

	var meals []models.Meal
	err := q.Order("name ASC").Find(&meals).Error
	return meals, err
}

func (r *MenuRepo) Meal(ctx context.Context, restaurantID, mealID uint) (*models.Meal, error) {
	var meal models.Meal
	err := r.DB.WithContext(ctx).
		Where("id = ? AND restaurant_id = ?", mealID, restaurantID).
		First(&meal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &meal, nil
}

func (r *MenuRepo) Customizations(ctx context.Context, mealID uint) ([]models.Customization, error) {
	var custs []models.Customization
	err := r.DB.WithContext(ctx).
		Where("meal_id = ?", mealID).
		Order("name ASC").Find(&custs).Error
	return custs, err
}

func (r *MenuRepo) Customization(ctx context.Context, mealID, custID uint) (*models.Customization, error) {
	var cust models.Customization
	err := r.DB.WithContext(ctx).
		Where("id = ? AND meal_id = ?", custID, mealID).
		First(&cust).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cust, nil
}
