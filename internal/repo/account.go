package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/swickapp/swick-server/internal/models"
)

// AccountRepo maintains the role records (customer, server, restaurant) that
// wrap an externally authenticated user.
type AccountRepo struct {
	DB *gorm.DB
}

// UpsertUser mirrors the identity provider's claims into the local user row.
func (r *AccountRepo) UpsertUser(ctx context.Context, id uint, email, name string) (*models.User, error) {
	user := models.User{ID: id, Email: email, Name: name}
	err := r.DB.WithContext(ctx).
		Where("id = ?", id).
		Assign(map[string]any{"email": email, "name": name}).
		FirstOrCreate(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *AccountRepo) CustomerByUserID(ctx context.Context, userID uint) (*models.Customer, error) {
	var customer models.Customer
	err := r.DB.WithContext(ctx).Preload("User").
		Where("user_id = ?", userID).First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *AccountRepo) CreateCustomer(ctx context.Context, userID uint, stripeCustID string) (*models.Customer, error) {
	customer := models.Customer{UserID: userID, StripeCustID: stripeCustID}
	if err := r.DB.WithContext(ctx).Create(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *AccountRepo) ServerByUserID(ctx context.Context, userID uint) (*models.Server, error) {
	var server models.Server
	err := r.DB.WithContext(ctx).Preload("User").
		Where("user_id = ?", userID).First(&server).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &server, nil
}

// EnsureServer is the server login path: create the record on first login and
// consume a previously accepted invite, linking the restaurant.
func (r *AccountRepo) EnsureServer(ctx context.Context, userID uint, email string) (*models.Server, error) {
	var server models.Server
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ?", userID).First(&server).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		server = models.Server{UserID: userID}

		var invite models.ServerRequest
		err = tx.Where("email = ? AND accepted = ?", email, true).First(&invite).Error
		switch {
		case err == nil:
			server.RestaurantID = &invite.RestaurantID
			if err := tx.Create(&server).Error; err != nil {
				return err
			}
			return tx.Delete(&invite).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(&server).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return &server, nil
}

func (r *AccountRepo) RestaurantByUserID(ctx context.Context, userID uint) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&restaurant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &restaurant, nil
}

func (r *AccountRepo) ServersByRestaurant(ctx context.Context, restaurantID uint) ([]models.Server, error) {
	var servers []models.Server
	err := r.DB.WithContext(ctx).Preload("User").
		Where("restaurant_id = ?", restaurantID).Find(&servers).Error
	return servers, err
}

// UnlinkServer nulls the link; the server account itself survives.
func (r *AccountRepo) UnlinkServer(ctx context.Context, restaurantID, serverID uint) error {
	res := r.DB.WithContext(ctx).Model(&models.Server{}).
		Where("id = ? AND restaurant_id = ?", serverID, restaurantID).
		Update("restaurant_id", nil)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AccountRepo) CreateServerRequest(ctx context.Context, req *models.ServerRequest) error {
	return r.DB.WithContext(ctx).Create(req).Error
}

func (r *AccountRepo) ServerRequestsByRestaurant(ctx context.Context, restaurantID uint) ([]models.ServerRequest, error) {
	var reqs []models.ServerRequest
	err := r.DB.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).Find(&reqs).Error
	return reqs, err
}

func (r *AccountRepo) DeleteServerRequest(ctx context.Context, restaurantID, id uint) error {
	res := r.DB.WithContext(ctx).
		Where("id = ? AND restaurant_id = ?", id, restaurantID).
		Delete(&models.ServerRequest{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ConsumeInviteToken is the link-by-token path. When the invited server's
// account already exists the invite links it and is deleted immediately;
// otherwise the invite is marked accepted and consumed at next login.
func (r *AccountRepo) ConsumeInviteToken(ctx context.Context, token string) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var invite models.ServerRequest
		if err := tx.Where("token = ?", token).First(&invite).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := tx.First(&restaurant, invite.RestaurantID).Error; err != nil {
			return err
		}

		var server models.Server
		err := tx.Joins("JOIN users ON users.id = servers.user_id").
			Where("users.email = ?", invite.Email).First(&server).Error
		switch {
		case err == nil:
			if err := tx.Model(&models.Server{}).Where("id = ?", server.ID).
				Update("restaurant_id", invite.RestaurantID).Error; err != nil {
				return err
			}
			return tx.Delete(&invite).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Model(&models.ServerRequest{}).Where("id = ?", invite.ID).
				Update("accepted", true).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return &restaurant, nil
}
