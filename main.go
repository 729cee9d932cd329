package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fwstore/internal/config"
	"fwstore/internal/database"
	"fwstore/internal/events"
	"fwstore/internal/models"
	"fwstore/internal/repositories"
	"fwstore/internal/server"
	"fwstore/internal/storage"
	"fwstore/pkg/kafka"
	"fwstore/pkg/rabbitmq"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "fwstore",
		Short:        "FW Furniture storefront API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Migrate, seed the admin account and serve the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, db, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer database.Close(db)
			if err := database.Migrate(db); err != nil {
				return err
			}
			slog.Info("database migrated")
			return nil
		},
	})

	var adminEmail, adminPassword string
	createAdmin := &cobra.Command{
		Use:   "create-admin",
		Short: "Create the admin account, or grant admin to an existing one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, db, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer database.Close(db)
			if err := database.Migrate(db); err != nil {
				return err
			}
			if adminEmail == "" {
				adminEmail = cfg.Admin.Email
			}
			if adminPassword == "" {
				adminPassword = cfg.Admin.Password
			}
			svc := server.NewServices(cfg, db, events.NewDirectPublisher(events.NewNotifier(slog.Default())))
			created, err := svc.Auth.EnsureAdmin(cmd.Context(), adminEmail, adminPassword)
			if err != nil {
				return err
			}
			slog.Info("admin account ready", "email", adminEmail, "created", created)
			return nil
		},
	}
	createAdmin.Flags().StringVar(&adminEmail, "email", "", "admin email (defaults to ADMIN_EMAIL)")
	createAdmin.Flags().StringVar(&adminPassword, "password", "", "admin password (defaults to ADMIN_PASSWORD)")
	root.AddCommand(createAdmin)

	return root
}

// bootstrap loads the configuration, installs the logger and opens the database.
func bootstrap(ctx context.Context) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	setupLogger(cfg.App.LogLevel)

	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

// setupLogger installs a JSON slog handler at level as the default logger.
func setupLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}

// worker runs the consumer side of the configured broker until ctx is done.
type worker func(ctx context.Context) error

// newPublisher connects to the configured broker. The returned worker feeds
// published events back to the notifier; it is nil when events are handled inline.
func newPublisher(cfg config.EventsConfig, notifier events.Handler) (events.Publisher, worker, func(), error) {
	switch cfg.Broker {
	case "rabbitmq":
		client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.RabbitMQQueue})
		if err != nil {
			return nil, nil, nil, err
		}
		run := func(ctx context.Context) error { return events.ConsumeAMQP(ctx, client, notifier) }
		return events.NewAMQPPublisher(client), run, func() {}, nil
	case "kafka":
		kcfg := kafka.Config{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic, GroupID: cfg.KafkaGroupID}
		producer, err := kafka.NewProducer(kcfg)
		if err != nil {
			return nil, nil, nil, err
		}
		consumer, err := kafka.NewConsumer(kcfg)
		if err != nil {
			producer.Close()
			return nil, nil, nil, err
		}
		run := func(ctx context.Context) error { return events.ConsumeKafka(ctx, consumer, notifier) }
		stop := func() {
			if err := consumer.Close(); err != nil {
				slog.Warn("failed to close kafka consumer", "error", err)
			}
		}
		return events.NewKafkaPublisher(producer), run, stop, nil
	default:
		return events.NewDirectPublisher(notifier), nil, func() {}, nil
	}
}

func runServe(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, db, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			slog.Warn("failed to close database", "error", err)
		}
	}()

	if err := database.Migrate(db); err != nil {
		return err
	}

	uploads, err := storage.NewUploads(cfg.Upload.Dir, cfg.Upload.MaxBytes)
	if err != nil {
		return err
	}

	notifier := events.NewNotifier(slog.Default())
	publisher, runWorker, stopWorker, err := newPublisher(cfg.Events, notifier)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", cfg.Events.Broker, err)
	}
	defer func() {
		stopWorker()
		if err := publisher.Close(); err != nil {
			slog.Warn("failed to close event publisher", "error", err)
		}
	}()

	svc := server.NewServices(cfg, db, publisher)
	created, err := svc.Auth.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password)
	if err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}
	if created {
		slog.Info("admin account created", "email", cfg.Admin.Email)
	}
	if cfg.App.IsDevelopment() {
		seedProducts(ctx, repositories.NewGORMProductRepository(db))
	}

	workerCtx, cancelWorker := context.WithCancel(ctx)
	workerDone := make(chan struct{})
	if runWorker != nil {
		go func() {
			defer close(workerDone)
			slog.Info("starting event worker", "broker", cfg.Events.Broker)
			if err := runWorker(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("event worker stopped", "error", err)
			}
		}()
	} else {
		close(workerDone)
	}

	app := server.New(server.Deps{
		Config:    cfg,
		DB:        db,
		Publisher: publisher,
		Uploads:   uploads,
		AccessLog: true,
	})

	listenErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.App.Port, "env", cfg.App.Env)
		listenErr <- app.Listen(cfg.App.Port)
	}()

	select {
	case err := <-listenErr:
		cancelWorker()
		<-workerDone
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		slog.Error("error during fiber shutdown", "error", err)
	}
	cancelWorker()
	<-workerDone
	slog.Info("server gracefully stopped")
	return nil
}

// seedProducts fills an empty catalog with a few pieces so a fresh
// development database has something to browse.
func seedProducts(ctx context.Context, repo repositories.ProductRepository) {
	existing, err := repo.GetAll(ctx, models.ProductFilter{})
	if err != nil {
		slog.Error("failed to inspect catalog", "error", err)
		return
	}
	if len(existing) > 0 {
		return
	}

	products := []models.Product{
		{
			Name:         "Oslo Sofa",
			Description:  "Three seater sofa with oak legs",
			Price:        decimal.RequireFromString("899.00"),
			MonthlyPrice: decimal.NewNullDecimal(decimal.RequireFromString("74.92")),
			Category:     "Sofas",
			Stock:        6,
			Colors:       models.Colors{{Name: "Grey", Stock: 4}, {Name: "Navy", Stock: 2}},
		},
		{
			Name:        "Bergen Dining Chair",
			Description: "Solid beech chair with woven seat",
			Price:       decimal.RequireFromString("129.00"),
			Category:    "Chairs",
			Stock:       20,
			Colors:      models.Colors{{Name: "Natural", Stock: 12}, {Name: "Black", Stock: 8}},
		},
		{
			Name:        "Lund Coffee Table",
			Description: "Round walnut coffee table",
			Price:       decimal.RequireFromString("249.00"),
			Category:    "Tables",
			Stock:       8,
			Colors:      models.Colors{{Name: "Walnut", Stock: 8}},
		},
	}

	for i := range products {
		if err := repo.Create(ctx, &products[i]); err != nil {
			slog.Error("failed to seed product", "name", products[i].Name, "error", err)
			continue
		}
		slog.Info("seeded product", "name", products[i].Name, "id", products[i].ID)
	}
}
