package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"stockapp/internal/config"
	"stockapp/internal/gateway"
	httpapi "stockapp/internal/http"
	"stockapp/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := config.NewLogger(cfg.LogFormat)

	gw := gateway.New(cfg.SheetURL, cfg.RequestTimeout)
	sessions := session.NewStore(cfg.SessionTTL)
	handler := httpapi.NewHandler(gw, sessions, logger)
	router := httpapi.NewRouter(handler, logger, cfg.RequestTimeout)

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Info("server listening", "addr", server.Addr, "sheet_url", cfg.SheetURL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("force close failed", "error", closeErr)
		}
	}
}
