// main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"movie-booking/cmd"
	"movie-booking/internal/data/repository"
	"movie-booking/internal/event"
	"movie-booking/internal/gateway"
	"movie-booking/internal/usecase"
	"movie-booking/internal/wire"
	"movie-booking/pkg/database"
	"movie-booking/pkg/scheduler"
	"movie-booking/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
		zap.Duration("hold_ttl", config.Booking.HoldTTL),
	)

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	if config.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
		logger.Info("Database schema applied")
	}

	// Redis is optional: without it there is no rate limiting and no seat-map pub/sub
	var rdb *redis.Client
	notifier := event.NewNopNotifier()
	if rdb, err = database.InitRedis(config.Redis); err != nil {
		logger.Warn("Redis unavailable, rate limiting and seat-map notifications disabled", zap.Error(err))
		rdb = nil
	} else {
		defer rdb.Close()
		notifier = event.NewRedisNotifier(rdb, logger)
		logger.Info("Redis connected", zap.String("addr", config.Redis.Addr))
	}

	publisher := event.NewNopPublisher()
	if config.RabbitMQ.URL != "" {
		publisher = event.NewAMQPPublisher(config.RabbitMQ, logger)
	}
	defer publisher.Close()

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)

	// Wire all dependencies
	app := wire.Wiring(repos, usecase.Dependencies{
		Gateway:   gateway.NewRazorpayGateway(config.Payment, logger),
		Publisher: publisher,
		Notifier:  notifier,
	}, rdb, config, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return cmd.APIServer(gctx, app.Router, config.App.Port, logger)
	})

	if config.Scheduler.Enabled {
		sched, err := scheduler.New(logger, app.Service.Maintenance.Jobs()...)
		if err != nil {
			logger.Fatal("Failed to create scheduler", zap.Error(err))
		}
		g.Go(func() error {
			return sched.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Application stopped with error", zap.Error(err))
		return
	}

	logger.Info("Application stopped")
}
