// sheetsrv serves the spreadsheet collaborator contract from a local
// xlsx workbook, standing in for the hosted deployment during
// development and integration tests.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockapp/internal/config"
	"stockapp/internal/sheetstore"
)

func main() {
	cfg, err := config.LoadSheet()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := config.NewLogger(cfg.LogFormat)

	store, err := sheetstore.Open(cfg.WorkbookPath)
	if err != nil {
		log.Fatalf("workbook error: %v", err)
	}
	defer store.Close()

	if cfg.DefaultPassword != "" {
		if err := store.EnsureUser(cfg.DefaultUser, cfg.DefaultPassword, "owner"); err != nil {
			log.Fatalf("default user init error: %v", err)
		}
	}

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      sheetstore.NewServer(store, logger),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("sheet server listening", "addr", server.Addr, "workbook", cfg.WorkbookPath)
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
	}
}
