package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/feltcraft/cardroom/internal/config"
	"github.com/feltcraft/cardroom/internal/history"
	"github.com/feltcraft/cardroom/internal/room"
	"github.com/feltcraft/cardroom/internal/server"
	"github.com/feltcraft/cardroom/internal/store"
)

const shutdownTimeout = 5 * time.Second

// ServeCmd runs the websocket server.
type ServeCmd struct {
	Config   string `short:"c" default:"cardroom.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" help:"Listen address host:port (overrides config)"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
}

func (c *ServeCmd) Run() error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}

	// Apply command line overrides
	if c.Addr != "" {
		host, portStr, err := net.SplitHostPort(c.Addr)
		if err != nil {
			return fmt.Errorf("invalid --addr: %w", err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid --addr port: %w", err)
		}
		cfg.Server.Address = host
		cfg.Server.Port = port
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg.Server.LogLevel)

	st, err := openStore(cfg.Server.StorePath, logger)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	r := room.New(room.Deps{
		Logger: logger,
		Store:  st,
		Defaults: room.TableDefaults{
			TurnTimeout: cfg.Server.TurnTimeout(),
			AutoDeal:    cfg.Server.AutoDeal,
			DealDelay:   cfg.Server.DealDelay(),
		},
	})
	defer r.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	restored, err := r.RestoreAll(ctx)
	if err != nil {
		return fmt.Errorf("restoring tables: %w", err)
	}
	if restored > 0 {
		logger.Info("Restored tables from store", "count", restored)
	}

	// Provision configured tables that the store did not already bring back.
	for _, tc := range cfg.Tables {
		if _, ok := r.TableByName(tc.Name); ok {
			logger.Debug("Table already restored", "name", tc.Name)
			continue
		}
		info, err := r.CreateTable(room.CreateTableParams{
			Name:       tc.Name,
			SmallBlind: tc.SmallBlind,
			BigBlind:   tc.BigBlind,
			MaxSeats:   tc.MaxPlayers,
			MinBuyIn:   tc.BuyInMin,
			MaxBuyIn:   tc.BuyInMax,
		})
		if err != nil {
			return fmt.Errorf("creating table %s: %w", tc.Name, err)
		}
		logger.Info("Created table",
			"id", info.TableID,
			"name", info.Name,
			"stakes", fmt.Sprintf("%d/%d", info.SmallBlind, info.BigBlind),
			"maxPlayers", info.MaxSeats)
	}

	if cfg.Server.HistoryDir != "" {
		rec, err := history.New(history.Config{Dir: cfg.Server.HistoryDir}, logger)
		if err != nil {
			return fmt.Errorf("opening hand history: %w", err)
		}
		defer func() { _ = rec.Close() }()
		cancel := r.Bus().Subscribe(rec.HandleEvent)
		defer cancel()
		logger.Info("Recording hand histories", "dir", cfg.Server.HistoryDir)
	}

	srv := server.NewServer(cfg.ListenAddr(), r, logger)

	logger.Info("Starting card room server",
		"addr", cfg.ListenAddr(),
		"tables", len(r.ListTables()),
		"turnTimeout", cfg.Server.TurnTimeout(),
		"autoDeal", cfg.Server.AutoDeal)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStore(path string, logger *log.Logger) (store.Store, error) {
	if path == "" {
		logger.Warn("No store_path configured, tables will not survive restarts")
		return store.NewMemory(), nil
	}
	st, err := store.OpenSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	logger.Info("Opened snapshot store", "path", path)
	return st, nil
}

func newLogger(level string) *log.Logger {
	logger := log.New(os.Stderr)
	switch level {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
	return logger
}
