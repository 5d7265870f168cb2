package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/storewatch/storewatch/internal/api/handler"
	"github.com/storewatch/storewatch/internal/core/ports"
)

// Deps bundles the collaborators the control surface exposes.
type Deps struct {
	Store     ports.AccountStore
	Super     ports.Supervisor
	Board     ports.StatusBoard
	Pusher    handler.SalesPusher
	Info      handler.SystemInfo
	StaticDir string
	Log       zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.CORS())
	e.Use(echoprometheus.NewMiddleware("storewatch"))

	// --- Dependencies ---
	accountHandler := handler.NewAccountHandler(d.Store, d.Super)
	statusHandler := handler.NewStatusHandler(d.Board, d.Store)
	pushHandler := handler.NewPushHandler(d.Pusher, d.Log)
	systemHandler := handler.NewSystemHandler(d.Store, d.Super, d.Info)
	healthHandler := handler.NewHealthHandler()

	// --- Account management ---
	e.GET("/api/accounts", accountHandler.List)
	e.POST("/api/accounts", accountHandler.Create)
	e.PUT("/api/accounts/:id", accountHandler.Update)
	e.DELETE("/api/accounts/:id", accountHandler.Delete)
	e.POST("/api/login/:id", accountHandler.TriggerLogin)

	// --- Status reads ---
	e.GET("/api/accounts-status", statusHandler.ListAll)
	e.GET("/api/account-status/:id", statusHandler.Get)
	e.GET("/api/all-soldout", statusHandler.ListSoldOut)

	// --- Push ---
	e.POST("/api/push-sales", pushHandler.Push)
	e.GET("/api/push-time-check", pushHandler.TimeCheck)

	// --- Operations ---
	e.GET("/api/system-status", systemHandler.Status)
	e.GET("/health", healthHandler.Liveness) // liveness – is the process alive?
	e.GET("/metrics", echoprometheus.NewHandler())

	// --- Dashboard ---
	if d.StaticDir != "" {
		e.Static("/", d.StaticDir)
	}

	return e
}
