// Package server assembles the fiber application from its repositories,
// services and handlers.
package server

import (
	"strings"

	"fwstore/internal/config"
	"fwstore/internal/events"
	"fwstore/internal/handlers"
	"fwstore/internal/httpx"
	"fwstore/internal/middleware"
	"fwstore/internal/repositories"
	"fwstore/internal/services"
	"fwstore/internal/storage"
	"fwstore/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"
)

// formOverhead leaves room for the text fields of a multipart product form.
const formOverhead = 1 << 20

// Deps are the resources the application runs on.
type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Publisher events.Publisher
	Uploads   *storage.Uploads
	// AccessLog turns on the per-request log line.
	AccessLog bool
}

// Services builds the service layer on top of the GORM repositories.
type Services struct {
	Auth      *services.AuthService
	Products  *services.ProductService
	Orders    *services.OrderService
	Favorites *services.FavoriteService
	Addresses *services.AddressService
}

// NewServices wires every repository into its service.
func NewServices(cfg *config.Config, db *gorm.DB, publisher events.Publisher) *Services {
	userRepo := repositories.NewGORMUserRepository(db)
	resetRepo := repositories.NewGORMPasswordResetRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	reviewRepo := repositories.NewGORMReviewRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	favoriteRepo := repositories.NewGORMFavoriteRepository(db)
	addressRepo := repositories.NewGORMAddressRepository(db)

	return &Services{
		Auth:      services.NewAuthService(userRepo, resetRepo, publisher, cfg.Auth),
		Products:  services.NewProductService(productRepo, reviewRepo),
		Orders:    services.NewOrderService(orderRepo, addressRepo, publisher, cfg.App.Location),
		Favorites: services.NewFavoriteService(favoriteRepo),
		Addresses: services.NewAddressService(addressRepo),
	}
}

// New builds the HTTP application. Routes live under /api and uploaded files
// are served from /uploads.
func New(d Deps) *fiber.App {
	cfg := d.Config
	svc := NewServices(cfg, d.DB, d.Publisher)

	app := fiber.New(fiber.Config{
		AppName:      "fwstore",
		ErrorHandler: httpx.ErrorHandler(cfg.App.IsDevelopment()),
		BodyLimit:    cfg.Upload.MaxFiles*int(cfg.Upload.MaxBytes) + formOverhead,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	if d.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.App.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: strings.Join([]string{
			fiber.MethodGet, fiber.MethodPost, fiber.MethodPut, fiber.MethodDelete, fiber.MethodOptions,
		}, ","),
	}))

	app.Static(strings.TrimSuffix(storage.PublicPrefix, "/"), d.Uploads.Dir())

	v := validation.New()
	guards := handlers.Guards{
		Auth:  middleware.AuthRequired(svc.Auth),
		Admin: middleware.AdminOnly(svc.Auth),
	}

	api := app.Group("/api")
	api.Get("/health", func(c *fiber.Ctx) error {
		return httpx.OK(c, "FW Furniture Backend is running!", nil)
	})

	handlers.NewAuthHandler(svc.Auth, d.Uploads, v).RegisterRoutes(api, guards)
	handlers.NewProductHandler(svc.Products, d.Uploads, v, cfg.Upload.MaxFiles).RegisterRoutes(api, guards)
	handlers.NewOrderHandler(svc.Orders, svc.Auth, v).RegisterRoutes(api, guards)
	handlers.NewFavoriteHandler(svc.Favorites).RegisterRoutes(api, guards)
	handlers.NewAddressHandler(svc.Addresses, v).RegisterRoutes(api, guards)

	app.Use(httpx.NotFound)
	return app
}
