package handlers

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/swickapp/swick-server/internal/identity"
	"github.com/swickapp/swick-server/internal/service"
)

// RestaurantHandler serves the owner dashboard's staffing API.
type RestaurantHandler struct {
	Service *service.RestaurantService
	Log     *slog.Logger
}

func (h *RestaurantHandler) GetServers(c echo.Context) error {
	ident, err := identity.FromContext(c)
	if err != nil {
		return err
	}
	staff, err := h.Service.Staff(c.Request().Context(), ident)
	if err != nil {
		return fail(c, h.Log, err, "restaurant_does_not_exist")
	}
	return ok(c, map[string]any{"servers": staff})
}

func (h *RestaurantHandler) AddServer(c echo.Context) error {
	ident, err := identity.FromContext(c)
	if err != nil {
		return err
	}

	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		return tag(c, "invalid_request")
	}

	invite, err := h.Service.InviteServer(c.Request().Context(), ident, req.Name, req.Email)
	if err != nil {
		return fail(c, h.Log, err, "restaurant_does_not_exist")
	}
	// The dashboard emails the link; the token travels back to it once.
	return ok(c, map[string]any{"id": invite.ID, "token": invite.Token})
}

func (h *RestaurantHandler) DeleteServerRequest(c echo.Context) error {
	ident, err := identity.FromContext(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return tag(c, "invalid_request")
	}
	if err := h.Service.RevokeInvite(c.Request().Context(), ident, id); err != nil {
		return fail(c, h.Log, err, "request_does_not_exist")
	}
	return ok(c, nil)
}

func (h *RestaurantHandler) DeleteServer(c echo.Context) error {
	ident, err := identity.FromContext(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return tag(c, "invalid_request")
	}
	if err := h.Service.UnlinkServer(c.Request().Context(), ident, id); err != nil {
		return fail(c, h.Log, err, "server_does_not_exist")
	}
	return ok(c, nil)
}

// LinkServer consumes an invite token from the emailed link. Unauthenticated:
// the single-use token is the credential.
func (h *RestaurantHandler) LinkServer(c echo.Context) error {
	token := c.Param("token")
	if token == "" {
		return tag(c, "invalid_request")
	}
	restaurant, err := h.Service.LinkServerByToken(c.Request().Context(), token)
	if err != nil {
		return fail(c, h.Log, err, "request_does_not_exist")
	}
	return ok(c, map[string]any{"restaurant_name": restaurant.Name})
}
