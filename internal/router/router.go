package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"bloodlink/internal/config"
	"bloodlink/internal/handler"
)

// CustomValidator adapts go-playground/validator to echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	requestHandler *handler.RequestHandler,
	centerHandler *handler.CenterHandler,
	syncHandler *handler.SyncHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.POST("/auth/logout", authHandler.Logout)

	// Request creation works with or without authentication; a valid
	// token attaches the requestor identity.
	api.POST("/requests", requestHandler.CreateRequest)
	api.GET("/requests", requestHandler.ListRequests)
	api.GET("/requests/:id", requestHandler.GetRequest)

	api.GET("/users", userHandler.ListUsers)
	api.GET("/users/nearby", userHandler.DonorsNear)
	api.GET("/users/:id", userHandler.GetUser)
	api.POST("/users", userHandler.CreateUser)

	api.GET("/centers", centerHandler.ListCenters)
	api.GET("/centers/:id", centerHandler.GetCenter)

	// Secured routes (require JWT authentication)
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(cfg.JWTSecret),
		TokenLookup: "header:" + echo.HeaderAuthorization,
	}))

	secured.PUT("/users/:id", userHandler.UpdateUser)

	secured.PUT("/requests/:id", requestHandler.UpdateRequest)
	secured.PATCH("/requests/:id/status", requestHandler.UpdateStatus)
	secured.DELETE("/requests/:id", requestHandler.DeleteRequest)

	secured.POST("/centers", centerHandler.CreateCenter)
	secured.PUT("/centers/:id", centerHandler.UpdateCenter)
	secured.DELETE("/centers/:id", centerHandler.DeleteCenter)

	secured.POST("/sync", syncHandler.TriggerSync)
}
