package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/swickapp/swick-server/internal/handlers"
)

type Deps struct {
	JWTMiddleware     echo.MiddlewareFunc
	CustomerHandler   *handlers.CustomerHandler
	ServerHandler     *handlers.ServerHandler
	RestaurantHandler *handlers.RestaurantHandler
	SearchHandler     *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	// Invite links are opened from email before the app has a session.
	v1.POST("/server/link/:token", d.RestaurantHandler.LinkServer)

	customer := v1.Group("/customer", d.JWTMiddleware)

	customer.POST("/create-account", d.CustomerHandler.CreateAccount)
	customer.GET("/restaurants", d.CustomerHandler.GetRestaurants)
	customer.GET("/restaurants/:restaurant_id", d.CustomerHandler.GetRestaurant)
	customer.GET("/restaurants/:restaurant_id/categories", d.CustomerHandler.GetCategories)
	customer.GET("/restaurants/:restaurant_id/menu", d.CustomerHandler.GetMenu)
	customer.GET("/restaurants/:restaurant_id/menu/search", d.SearchHandler.SearchMeals)
	customer.GET("/meals/:meal_id/customizations", d.CustomerHandler.GetMealCustomizations)
	customer.POST("/orders", d.CustomerHandler.PlaceOrder)
	customer.POST("/orders/retry-payment", d.CustomerHandler.RetryPayment)
	customer.POST("/orders/tip", d.CustomerHandler.AddTip)
	customer.GET("/orders", d.CustomerHandler.GetOrders)
	customer.GET("/orders/:order_id", d.CustomerHandler.GetOrderDetails)
	customer.POST("/cards/setup", d.CustomerHandler.SetupCard)
	customer.GET("/cards", d.CustomerHandler.GetCards)
	customer.POST("/cards/remove", d.CustomerHandler.RemoveCard)
	customer.GET("/restaurants/:restaurant_id/request-options", d.CustomerHandler.GetRequestOptions)
	customer.POST("/requests", d.CustomerHandler.CreateRequest)

	server := v1.Group("/server", d.JWTMiddleware)

	server.POST("/login", d.ServerHandler.Login)
	server.GET("/orders", d.ServerHandler.GetOrders)
	server.GET("/orders/status/:status", d.ServerHandler.GetOrdersByStatus)
	server.GET("/orders/:order_id", d.ServerHandler.GetOrder)
	server.GET("/orders/:order_id/details", d.ServerHandler.GetOrderDetails)
	server.GET("/items/cook", d.ServerHandler.GetItemsToCook)
	server.GET("/items/send", d.ServerHandler.GetItemsToSend)
	server.POST("/items/status", d.ServerHandler.UpdateItemStatus)
	server.POST("/requests/delete", d.ServerHandler.DeleteRequest)
	server.POST("/pusher/auth", d.ServerHandler.PusherAuth)

	restaurant := v1.Group("/restaurant", d.JWTMiddleware)

	restaurant.GET("/servers", d.RestaurantHandler.GetServers)
	restaurant.POST("/servers", d.RestaurantHandler.AddServer)
	restaurant.DELETE("/servers/requests/:id", d.RestaurantHandler.DeleteServerRequest)
	restaurant.DELETE("/servers/:id", d.RestaurantHandler.DeleteServer)
}
