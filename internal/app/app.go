// Package app assembles the marketplace server: store, services, the
// notification pipeline and the HTTP surface.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"apexify/internal/config"
	"apexify/internal/handlers"
	"apexify/internal/middleware"
	"apexify/internal/notify"
	"apexify/internal/repositories"
	"apexify/internal/services"
	"apexify/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// App owns every long-lived resource of the server.
type App struct {
	cfg        *config.Config
	log        *zap.Logger
	store      repositories.Store
	mq         *rabbitmq.Client
	dispatcher *notify.Dispatcher
	services   handlers.Services
	http       *fiber.App
}

// New opens the store, connects to the broker when enabled, wires the
// services and builds the HTTP app. Resources opened before a failure are
// released before returning.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}

	store, err := openStore(cfg, log)
	if err != nil {
		return nil, err
	}
	a.store = store

	var sender notify.Sender = notify.NewLogSender(log)
	if cfg.RabbitMQEnabled {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, log)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		a.mq = mq
		sender = notify.NewBrokerSender(mq)
	}

	repos := store.Repositories()
	a.dispatcher = notify.NewDispatcher(repos.Users, sender, cfg.NotifyQueueSize, log)

	coupons := services.NewCouponService(repos, store)
	a.services = handlers.Services{
		Auth:      services.NewAuthService(repos.Users, cfg.JWTSecret, cfg.JWTTTL, a.dispatcher),
		Products:  services.NewProductService(repos.Products),
		Orders:    services.NewOrderService(repos, store, coupons, a.dispatcher),
		Coupons:   coupons,
		Reviews:   services.NewReviewService(repos, store),
		PopupAds:  services.NewPopupAdService(repos, store),
		Wishlists: services.NewWishlistService(repos, store),
	}

	a.http = a.newHTTP()

	if err := a.seed(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func openStore(cfg *config.Config, log *zap.Logger) (repositories.Store, error) {
	if cfg.DatabaseDriver == "memory" {
		log.Info("store_ready", zap.String("driver", "memory"))
		return repositories.NewMemoryStore(), nil
	}
	db, err := repositories.OpenDatabase(cfg.DatabaseDriver, cfg.DatabaseDSN, log)
	if err != nil {
		return nil, err
	}
	return repositories.NewGORMStore(db), nil
}

func (a *App) newHTTP() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               a.cfg.ServiceName,
		ErrorHandler:          handlers.ErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(middleware.Observability(a.log))
	app.Use(recover.New())

	app.Get("/health", a.handleHealth)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handlers.RegisterRoutes(app.Group("/api/v1"), a.services)
	return app
}

func (a *App) handleHealth(c *fiber.Ctx) error {
	broker := "disabled"
	if a.mq != nil {
		broker = "connected"
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":   "healthy",
		"time":     time.Now().Format(time.RFC3339),
		"database": a.cfg.DatabaseDriver,
		"rabbitmq": broker,
	})
}

// HTTP exposes the Fiber app, mainly for app.Test in tests.
func (a *App) HTTP() *fiber.App { return a.http }

// Run serves HTTP, delivers notifications and, with the broker enabled,
// consumes the notification queue until ctx is done or any of them fails.
// Everything is shut down and closed before Run returns.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.dispatcher.Run(gctx)
	})
	if a.mq != nil {
		g.Go(func() error {
			return a.mq.Consume(gctx, a.cfg.ServiceName, notify.DeliveryHandler(notify.NewLogSender(a.log)))
		})
	}
	g.Go(func() error {
		a.log.Info("server_starting", zap.String("addr", a.cfg.AppPort))
		if err := a.http.Listen(a.cfg.AppPort); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("server_stopping")
		if err := a.http.ShutdownWithTimeout(a.cfg.ShutdownTimeout); err != nil {
			return fmt.Errorf("fiber shutdown: %w", err)
		}
		return nil
	})

	err := g.Wait()
	if closeErr := a.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}
	if err == nil {
		a.log.Info("server_stopped")
	}
	return err
}

// Close releases the broker connection and the store.
func (a *App) Close() error {
	var errs []error
	if a.mq != nil {
		if err := a.mq.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close rabbitmq: %w", err))
		}
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	return errors.Join(errs...)
}
