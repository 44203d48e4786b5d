package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/kiwari-pos/tablepos/internal/config"
	"github.com/kiwari-pos/tablepos/internal/enum"
	"github.com/kiwari-pos/tablepos/internal/handler"
	mw "github.com/kiwari-pos/tablepos/internal/middleware"
	"github.com/kiwari-pos/tablepos/internal/receipt"
	"github.com/kiwari-pos/tablepos/internal/ws"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps are the collaborators the HTTP layer is wired to.
type Deps struct {
	Carts    handler.CartProvider
	Catalog  handler.CatalogLookup
	Checkout handler.Checkouter
	Renderer receipt.Renderer
	// Nil disables the invoice email endpoint.
	Mailer handler.InvoiceMailer
	Hub    *ws.Hub
	Logger *zap.Logger
}

// New creates a Chi router with all application routes wired up.
// Applies authentication and restaurant scoping as needed.
func New(cfg *config.Config, d Deps) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(mw.RequestLogger(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.Prometheus)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/restaurants/{rid}/tables", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(d.Hub, cfg.JWTSecret, w, r)
	})

	catalogHandler := handler.NewCatalogHandler(d.Catalog, d.Logger)
	cartHandler := handler.NewCartHandler(d.Carts, d.Catalog, d.Checkout, d.Logger)
	checkoutHandler := handler.NewCheckoutHandler(d.Carts, d.Checkout, d.Logger)
	documentHandler := handler.NewDocumentHandler(d.Carts, d.Renderer, d.Mailer, handler.DocumentOptions{
		RestaurantName: cfg.RestaurantName,
		PrinterDots:    cfg.PrinterDots,
		WidthMM:        cfg.ReceiptWidthMM,
	}, d.Logger)

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		r.Route("/restaurants/{rid}", func(r chi.Router) {
			r.Use(mw.RequireRestaurant)

			catalogHandler.RegisterRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.UserRoleOwner, enum.UserRoleManager))
				catalogHandler.RegisterAdminRoutes(r)
			})

			r.Route("/tables/{tid}", func(r chi.Router) {
				cartHandler.RegisterRoutes(r)
				checkoutHandler.RegisterRoutes(r)
				documentHandler.RegisterRoutes(r)
			})
		})
	})

	d.Logger.Info("router initialized")
	return r
}
