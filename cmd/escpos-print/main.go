package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"escpos-print/internal/config"
	"escpos-print/internal/discovery"
	"escpos-print/internal/logger"
	"escpos-print/internal/printer"
	"escpos-print/internal/server"
)

const (
	AppVersion = "1.0.0"
	AppName    = "escpos-print"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer log.Sync()

	events := server.NewEventLog(server.DefaultEventBuffer)
	pool := printer.NewPool(
		printer.WithGracePeriod(cfg.Pool.GracePeriod),
		printer.WithTransportOptions(cfg.TransportOptions()),
		printer.WithDefaults(cfg.Printer.DefaultPaperSize, cfg.Printer.DefaultCharCode),
		printer.WithLogger(log.Named("pool")),
		printer.WithEventHandler(events.Record),
	)
	defer pool.Close()

	scanner := discovery.NewScanner(log.Named("discovery"))
	if cfg.Bluetooth.WatchConnections {
		err := scanner.Watch(func(address string, connected bool) {
			state := printer.EventDisconnected
			if connected {
				state = printer.EventConnected
			}
			pool.Emit(printer.Event{State: state, DeviceInfo: printer.DeviceInfo{MACAddress: address}})
		})
		if err != nil {
			log.Warn("bluetooth connection events unavailable", zap.Error(err))
		}
	}

	gin.SetMode(cfg.HTTP.Mode)
	srv := server.New(pool, scanner, events, log.Named("http"), server.Options{
		DialTimeout: cfg.Pool.DialTimeout,
		ScanTimeout: cfg.Bluetooth.ScanTimeout,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening",
			zap.String("app", AppName),
			zap.String("version", AppVersion),
			zap.String("addr", httpServer.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
