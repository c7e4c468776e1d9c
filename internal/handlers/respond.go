package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/swickapp/swick-server/internal/payments"
	"github.com/swickapp/swick-server/internal/realtime"
	"github.com/swickapp/swick-server/internal/service"
)

// The wire contract keys every response on a "status" field: "success" or a
// specific error tag. Amounts travel as fixed-point decimal strings.

func ok(c echo.Context, fields map[string]any) error {
	body := map[string]any{"status": "success"}
	for k, v := range fields {
		body[k] = v
	}
	return c.JSON(http.StatusOK, body)
}

func tag(c echo.Context, status string) error {
	return c.JSON(http.StatusOK, map[string]any{"status": status})
}

// fail maps a service error onto its wire tag. notFoundTag names the absent
// entity ("order_does_not_exist"); scope mismatches stay uniform.
func fail(c echo.Context, log *slog.Logger, err error, notFoundTag string) error {
	switch {
	case errors.Is(err, service.ErrRestaurantNotSet):
		return tag(c, "restaurant_not_set")
	case errors.Is(err, service.ErrInvalid):
		return tag(c, "invalid_request")
	case errors.Is(err, service.ErrValidation):
		return tag(c, "invalid_request")
	case errors.Is(err, service.ErrNotFound):
		return tag(c, notFoundTag)
	case errors.Is(err, payments.ErrProcessor):
		return tag(c, "stripe_api_error")
	case errors.Is(err, payments.ErrUnhandledStatus):
		return tag(c, "unhandled_status")
	case errors.Is(err, realtime.ErrForbidden):
		return c.NoContent(http.StatusForbidden)
	}
	log.Error("request failed", "path", c.Path(), "err", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}
