package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/swickapp/swick-server/internal/identity"
	"github.com/swickapp/swick-server/internal/models"
	"github.com/swickapp/swick-server/internal/repo"
)

// RestaurantService covers the owner side of staffing: invites and server
// links. Menu editing stays in the external dashboard.
type RestaurantService struct {
	Accounts *repo.AccountRepo
	Log      *slog.Logger
}

func (s *RestaurantService) restaurant(ctx context.Context, ident identity.Identity) (*models.Restaurant, error) {
	restaurant, err := s.Accounts.RestaurantByUserID(ctx, ident.UserID)
	if err == repo.ErrNotFound {
		return nil, fmt.Errorf("%w: restaurant account", ErrNotFound)
	}
	return restaurant, err
}

// StaffEntry is one row of the staff page: a linked server or an open invite.
type StaffEntry struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Status string `json:"status"`
	Invite bool   `json:"request"`
}

// Staff lists linked servers and pending invites together, sorted by name.
func (s *RestaurantService) Staff(ctx context.Context, ident identity.Identity) ([]StaffEntry, error) {
	restaurant, err := s.restaurant(ctx, ident)
	if err != nil {
		return nil, err
	}

	servers, err := s.Accounts.ServersByRestaurant(ctx, restaurant.ID)
	if err != nil {
		return nil, err
	}
	invites, err := s.Accounts.ServerRequestsByRestaurant(ctx, restaurant.ID)
	if err != nil {
		return nil, err
	}

	entries := make([]StaffEntry, 0, len(servers)+len(invites))
	for _, srv := range servers {
		entries = append(entries, StaffEntry{
			ID: srv.ID, Name: srv.User.Name, Email: srv.User.Email, Status: "Accepted",
		})
	}
	for _, inv := range invites {
		status := "Pending"
		if inv.Accepted {
			status = "Accepted"
		}
		entries = append(entries, StaffEntry{
			ID: inv.ID, Name: inv.Name, Email: inv.Email, Status: status, Invite: true,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// InviteServer creates a single-use invite token. Email delivery is handled
// by the external dashboard; the token is returned to it.
func (s *RestaurantService) InviteServer(ctx context.Context, ident identity.Identity, name, email string) (*models.ServerRequest, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: email required", ErrValidation)
	}
	restaurant, err := s.restaurant(ctx, ident)
	if err != nil {
		return nil, err
	}

	req := &models.ServerRequest{
		Name:         name,
		Email:        email,
		RestaurantID: restaurant.ID,
		Token:        uuid.NewString(),
	}
	if err := s.Accounts.CreateServerRequest(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *RestaurantService) RevokeInvite(ctx context.Context, ident identity.Identity, inviteID uint) error {
	restaurant, err := s.restaurant(ctx, ident)
	if err != nil {
		return err
	}
	err = s.Accounts.DeleteServerRequest(ctx, restaurant.ID, inviteID)
	if err == repo.ErrNotFound {
		return ErrInvalid
	}
	return err
}

// UnlinkServer nulls the server's restaurant link. The server account
// survives in the pending state.
func (s *RestaurantService) UnlinkServer(ctx context.Context, ident identity.Identity, serverID uint) error {
	restaurant, err := s.restaurant(ctx, ident)
	if err != nil {
		return err
	}
	err = s.Accounts.UnlinkServer(ctx, restaurant.ID, serverID)
	if err == repo.ErrNotFound {
		return ErrInvalid
	}
	return err
}

// LinkServerByToken consumes an invite token from the emailed link. Public:
// the token is the credential.
func (s *RestaurantService) LinkServerByToken(ctx context.Context, token string) (*models.Restaurant, error) {
	restaurant, err := s.Accounts.ConsumeInviteToken(ctx, token)
	if err == repo.ErrNotFound {
		return nil, fmt.Errorf("%w: invite", ErrNotFound)
	}
	return restaurant, err
}
