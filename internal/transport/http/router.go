package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/svm-engineering/storefront/internal/handlers"
	authmw "github.com/svm-engineering/storefront/internal/middleware/auth"
	"github.com/svm-engineering/storefront/internal/middleware/ratelimit"
)

type Deps struct {
	DB              *gorm.DB
	JWTSecret       []byte
	AuthHandler     *handlers.AuthHandler
	ProductHandler  *handlers.ProductHandler
	OrderHandler    *handlers.OrderHandler
	EmployeeHandler *handlers.EmployeeHandler
	SearchHandler   *handlers.SearchHandler
	Limiter         *ratelimit.Limiter
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	api := e.Group("/api")
	if d.Limiter != nil {
		api.Use(d.Limiter.Middleware)
	}

	requireAuth := authmw.RequireAuth(d.JWTSecret)
	adminOnly := authmw.RequireRole("admin")

	auth := api.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.Logout)

	products := api.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/search", d.SearchHandler.Handler)
	products.GET("/:id", d.ProductHandler.GetProduct)
	products.POST("", d.ProductHandler.CreateProduct, requireAuth, adminOnly)
	products.PUT("/:id", d.ProductHandler.UpdateProduct, requireAuth, adminOnly)
	products.DELETE("/:id", d.ProductHandler.DeleteProduct, requireAuth, adminOnly)

	orders := api.Group("/orders", requireAuth)
	orders.POST("", d.OrderHandler.CreateOrder)
	orders.GET("", d.OrderHandler.ListOrders, adminOnly)
	orders.GET("/my-orders", d.OrderHandler.MyOrders)
	orders.POST("/fix-missing-createdby", d.OrderHandler.FixMissingCreatedBy)
	orders.PUT("/:id/status", d.OrderHandler.UpdateStatus, adminOnly)

	// No role gate on employees, matching the deployed behavior of the
	// back office this replaces.
	employees := api.Group("/employees")
	employees.GET("", d.EmployeeHandler.ListEmployees)
	employees.POST("", d.EmployeeHandler.CreateEmployee)
	employees.PATCH("/:id", d.EmployeeHandler.UpdateEmployee)
	employees.DELETE("/:id", d.EmployeeHandler.DeleteEmployee)
}
