package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/rickgao/forwards-feed/internal/cache"
	"github.com/rickgao/forwards-feed/internal/config"
	"github.com/rickgao/forwards-feed/internal/controller"
	"github.com/rickgao/forwards-feed/internal/database"
	"github.com/rickgao/forwards-feed/internal/events"
	"github.com/rickgao/forwards-feed/internal/feed"
	"github.com/rickgao/forwards-feed/internal/logging"
	"github.com/rickgao/forwards-feed/internal/market"
	"github.com/rickgao/forwards-feed/internal/observability"
	"github.com/rickgao/forwards-feed/internal/stream"
	"github.com/rickgao/forwards-feed/internal/version"
	"github.com/rickgao/forwards-feed/internal/wallet"
	"github.com/rickgao/forwards-feed/internal/writer"
)

// stopper is a sink with an orderly shutdown.
type stopper func(ctx context.Context) error

func main() {
	configPath := flag.String("config", "configs/feedd.yaml", "path to config file")
	envPath := flag.String("env", ".env", "optional dotenv file loaded before the config")
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", *envPath, err)
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New("feedd", cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting feedd",
		zap.String("version", version.String()),
		zap.String("config", *configPath),
		zap.String("symbol", cfg.Market.Symbol),
		zap.Bool("ws", cfg.Feed.WS != ""),
		zap.Int("rest_endpoints", len(cfg.Feed.RESTEndpoints())),
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	bus := events.NewBus()
	defer bus.Close()

	state, err := market.NewState(market.Snapshot{
		Symbol:     cfg.Market.Symbol,
		Timeframe:  cfg.Market.Timeframe,
		MarginMode: cfg.Market.MarginMode,
		Leverage:   cfg.Market.Leverage,
	}, cfg.Market.Timeframes, bus)
	if err != nil {
		logger.Fatal("invalid market selection", zap.Error(err))
	}

	renderers, stoppers, err := startSinks(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to start sinks", zap.Error(err))
	}

	client := feed.New(cfg.Feed, state, feed.MultiRenderer(renderers), bus, logger)

	// Health
	healthChecker := observability.NewHealthChecker(logger)
	healthEvents, unsubHealth := bus.Subscribe(64)
	defer unsubHealth()
	go healthChecker.Watch(ctx, healthEvents)

	var grpcServer *grpc.Server
	if cfg.Server.GRPCPort > 0 {
		grpcServer = grpc.NewServer()
		healthChecker.RegisterGRPC(grpcServer)

		grpcAddr := fmt.Sprintf(":%d", cfg.Server.GRPCPort)
		lis, err := net.Listen("tcp", grpcAddr)
		if err != nil {
			logger.Fatal("failed to listen on gRPC port", zap.Error(err))
		}
		go func() {
			logger.Info("gRPC health server listening", zap.String("addr", grpcAddr))
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC server error", zap.Error(err))
			}
		}()
	}

	// Controller
	deps := controller.Deps{
		Feed:   client,
		Market: state,
		Health: healthChecker,
	}
	if cfg.Wallet.RPCURL != "" {
		provider := wallet.NewRPCProvider(cfg.Wallet.RPCURL, cfg.Wallet.Timeout, logger)
		deps.Wallet = wallet.NewManager(provider, bus, logger)
	}
	ctrl := controller.New(deps, logger)
	ctrlEvents, unsubCtrl := bus.Subscribe(64)
	defer unsubCtrl()
	go ctrl.Watch(ctx, ctrlEvents)

	httpAddr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           ctrl.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("controller listening", zap.String("addr", httpAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("controller server error", zap.Error(err))
			cancel()
		}
	}()

	if err := client.Connect(ctx); err != nil {
		logger.Fatal("failed to connect feed", zap.Error(err))
	}

	logger.Info("feedd running",
		zap.String("health_url", fmt.Sprintf("http://localhost:%d/healthz", cfg.Server.HTTPPort)),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")
	healthChecker.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := client.Stop(shutdownCtx); err != nil {
		logger.Warn("feed stop", zap.Error(err))
	}
	for _, stop := range stoppers {
		if err := stop(shutdownCtx); err != nil {
			logger.Warn("sink stop", zap.Error(err))
		}
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("controller shutdown", zap.Error(err))
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}

	logger.Info("feedd stopped")
}

// startSinks builds the optional renderers enabled in cfg. Stoppers run in
// order on shutdown.
func startSinks(ctx context.Context, cfg *config.Config, logger *zap.Logger) ([]feed.Renderer, []stopper, error) {
	var (
		renderers []feed.Renderer
		stoppers  []stopper
	)

	if cfg.Archive.Driver != "" {
		store, err := database.Open(ctx, cfg.Archive)
		if err != nil {
			return nil, nil, fmt.Errorf("open tick archive: %w", err)
		}
		w := writer.NewTickWriter(writer.WriterConfigFrom(cfg.Archive), store, logger)
		if err := w.Start(ctx); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("start tick writer: %w", err)
		}
		renderers = append(renderers, w)
		stoppers = append(stoppers, func(ctx context.Context) error {
			err := w.Stop(ctx)
			if cerr := store.Close(); err == nil {
				err = cerr
			}
			return err
		})
		logger.Info("tick archive enabled", zap.String("driver", cfg.Archive.Driver))
	}

	if cfg.Cache.RedisAddr != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.Cache)
		if err != nil {
			return nil, nil, err
		}
		bc := cache.New(rdb, cfg.Cache.KeyPrefix, cfg.Cache.TTL, logger)
		if err := bc.Start(ctx); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("start book cache: %w", err)
		}
		renderers = append(renderers, bc)
		stoppers = append(stoppers, func(ctx context.Context) error {
			err := bc.Stop(ctx)
			if cerr := rdb.Close(); err == nil {
				err = cerr
			}
			return err
		})
		logger.Info("orderbook cache enabled", zap.String("redis", cfg.Cache.RedisAddr))
	}

	if len(cfg.Stream.Brokers) > 0 {
		kc, err := stream.NewKafkaClient(cfg.Stream)
		if err != nil {
			return nil, nil, err
		}
		pub := stream.NewTickPublisher(kc, cfg.Stream.Topic, logger)
		renderers = append(renderers, pub)
		stoppers = append(stoppers, pub.Close)
		logger.Info("tick stream enabled", zap.Strings("brokers", cfg.Stream.Brokers))
	}

	return renderers, stoppers, nil
}
