package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/swickapp/swick-server/internal/search"
)

type SearchHandler struct {
	ES    *elasticsearch.Client
	Index string
	Log   *slog.Logger
}

// SearchMeals handles GET /restaurant/:id/menu/search.
func (h *SearchHandler) SearchMeals(c echo.Context) error {
	if h.ES == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "search_unavailable"})
	}

	restaurantID, err := pathID(c, "restaurant_id")
	if err != nil {
		return tag(c, "invalid_request")
	}
	query := c.QueryParam("q")
	if query == "" {
		return tag(c, "invalid_request")
	}
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	from, limit := search.Paginate(page, size)

	total, hits, err := search.Meals(c.Request().Context(), h.ES, h.Index, query, restaurantID, from, limit)
	if err != nil {
		h.Log.Error("meal search failed", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "search_failed"})
	}

	return ok(c, echo.Map{
		"total": total,
		"meals": hits,
	})
}
