// Command feedtail streams one market to the terminal. Type a symbol and
// press enter to switch markets.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/rickgao/forwards-feed/internal/config"
	"github.com/rickgao/forwards-feed/internal/events"
	"github.com/rickgao/forwards-feed/internal/feed"
	"github.com/rickgao/forwards-feed/internal/logging"
	"github.com/rickgao/forwards-feed/internal/market"
)

func main() {
	configPath := flag.String("config", "configs/feedd.yaml", "path to config file")
	symbol := flag.String("symbol", "", "override the configured symbol")
	verbose := flag.Bool("v", false, "log at debug level")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *symbol != "" {
		cfg.Market.Symbol = *symbol
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger, err := logging.New("feedtail", level, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	out := newConsole(os.Stdout, 256)
	defer out.close()

	notes, unsub := bus.Subscribe(32)
	defer unsub()
	go printEvents(ctx, notes)

	client := feed.New(cfg.Feed, state, out, bus, logger)
	if err := client.Connect(ctx); err != nil {
		logger.Fatal("failed to connect feed", zap.Error(err))
	}

	go readSymbols(ctx, client, logger)

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Stop(stopCtx); err != nil {
		logger.Warn("feed stop", zap.Error(err))
	}
}

// readSymbols switches the feed to each symbol read from stdin.
func readSymbols(ctx context.Context, client *feed.Client, logger *zap.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		sym := strings.TrimSpace(scanner.Text())
		if sym == "" {
			continue
		}
		if err := client.SelectSymbol(ctx, sym); err != nil {
			logger.Warn("switch symbol", zap.String("symbol", sym), zap.Error(err))
		}
	}
}

func printEvents(ctx context.Context, ch <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			switch e := ev.(type) {
			case events.StatusChanged:
				fmt.Fprintf(os.Stderr, "[%s] %s\n", e.Status, e.Symbol)
			case events.Notification:
				fmt.Fprintf(os.Stderr, "[%s] %s: %s\n", e.Level, e.Source, e.Message)
			}
		}
	}
}
