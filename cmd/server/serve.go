package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/rl1809/pos/internal/adapter/handler"
	"github.com/rl1809/pos/internal/adapter/storage"
	"github.com/rl1809/pos/internal/config"
	"github.com/rl1809/pos/internal/core/receipt"
	"github.com/rl1809/pos/internal/core/service"
)

func newServeCommand(cfg *config.Config) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and gRPC servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg, migrate)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")

	return cmd
}

func serve(ctx context.Context, cfg *config.Config, migrate bool) error {
	logger := log.StandardLogger()

	tag, err := cfg.Language()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	// Initialize MySQL
	db, err := sqlx.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		return fmt.Errorf("failed to connect mysql: %w", err)
	}
	db.SetMaxOpenConns(cfg.MySQLMaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQLMaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQLConnMaxLife)

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping mysql: %w", err)
	}
	logger.Info("connected to mysql")

	if migrate {
		if err := storage.RunMigrations(db.DB); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: cfg.RedisPoolSize,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect redis: %w", err)
	}
	logger.Info("connected to redis")

	// Initialize adapters
	mysqlAdapter := storage.NewMySQLAdapter(db)
	redisAdapter := storage.NewRedisAdapter(rdb, cfg.CartTTL)
	recordStore := storage.NewBreakerStore(mysqlAdapter, storage.BreakerSettings{
		MaxFailures: cfg.BreakerMaxFailures,
		OpenTimeout: cfg.BreakerOpenTimeout,
	}, logger)

	// Initialize services
	checkout := service.NewCheckoutService(recordStore, logger)
	services := handler.Services{
		Carts:     service.NewCartService(redisAdapter, recordStore, checkout, logger),
		Inventory: service.NewInventoryService(mysqlAdapter),
		History:   service.NewHistoryService(mysqlAdapter),
		Users:     service.NewUserService(mysqlAdapter),
	}
	presenter := receipt.NewPresenter(tag,
		receipt.WithLocation(loc),
		receipt.WithCurrencySymbol(cfg.Currency),
	)

	// Initialize gRPC server
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(handler.LoggingInterceptor(logger)))
	handler.RegisterCheckoutServer(grpcServer, handler.NewGRPCHandler(services, presenter, logger))

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	go func() {
		logger.Infof("gRPC server listening on %s", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			logger.WithError(err).Error("gRPC server error")
		}
	}()

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(services, presenter, logger, cfg.RequestTimeout)
	httpHandler.AddHealthCheck("mysql", db.PingContext)
	httpHandler.AddHealthCheck("redis", redisAdapter.Ping)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpHandler.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Infof("HTTP server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.WithError(err).Error("HTTP server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	// Stop HTTP server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("HTTP shutdown incomplete")
	}
	logger.Info("HTTP server stopped")

	// Stop gRPC server
	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")

	// Close connections
	rdb.Close()
	db.Close()
	logger.Info("connections closed")

	return nil
}
