package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rh-editor/internal/api"
	"rh-editor/internal/app"
	"rh-editor/internal/plc"
)

func main() {
	var configPath, listen string
	flag.StringVar(&configPath, "config", "", "path to YAML config (default $RHEDITOR_CONFIG or rheditor.yaml)")
	flag.StringVar(&listen, "listen", "", "listen address (overrides http.listen)")
	flag.Parse()

	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if listen != "" {
		cfg.HTTP.Listen = listen
	}

	logger := log.New(os.Stderr, "editor ", log.LstdFlags)
	a, err := app.Open(cfg, plc.DefaultDialer, logger)
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	defer a.Close()

	opts := api.RouterOptions{RateLimit: cfg.HTTP.RateLimit, Burst: cfg.HTTP.Burst}
	if a.Journal != nil {
		opts.History = a.Journal
	}
	srv := &http.Server{
		Addr:              cfg.HTTP.Listen,
		Handler:           api.NewRouter(a.Service, opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("listening on %s", cfg.HTTP.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
