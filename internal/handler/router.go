package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"slot-reservation/internal/handler/api"
	"slot-reservation/internal/handler/middleware"
	"slot-reservation/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

type Handlers struct {
	Booking *api.BookingHandler
	Slot    *api.SlotHandler
	Health  *HealthHandler
}

func NewRouter(engine *gin.Engine, cfg config.Config, logger *slog.Logger, limiter *middleware.RateLimiter, h Handlers) {
	setupMiddleware(engine, cfg, logger)
	setupRoutes(engine, limiter, h)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config, logger *slog.Logger) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.LoggingMiddleware(logger, cfg.Log))
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(engine *gin.Engine, limiter *middleware.RateLimiter, h Handlers) {
	engine.GET("/health", h.Health.Check)

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Only writes are throttled.
	throttle := []gin.HandlerFunc{limiter.Middleware()}

	bookings := engine.Group("/bookings")
	{
		addRoutes(bookings, []route{
			{Method: http.MethodPost, Path: "", Handler: h.Booking.Create, Mw: throttle},
			{Method: http.MethodGet, Path: "/:id", Handler: h.Booking.Get},
			{Method: http.MethodPost, Path: "/:id/confirm", Handler: h.Booking.Confirm, Mw: throttle},
			{Method: http.MethodPost, Path: "/:id/cancel", Handler: h.Booking.Cancel, Mw: throttle},
		})
	}

	addRoutes(engine.Group(""), []route{
		{Method: http.MethodGet, Path: "/users/:userId/bookings", Handler: h.Booking.ListByUser},
		{Method: http.MethodGet, Path: "/providers/:providerId/bookings", Handler: h.Booking.ListByProvider},
		{Method: http.MethodGet, Path: "/providers/:providerId/slots", Handler: h.Slot.ListAvailable},
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
