package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orrn/printq/internal/api/handlers"
	"github.com/orrn/printq/internal/api/middleware"
	"github.com/orrn/printq/internal/config"
	"github.com/orrn/printq/internal/core"
	"github.com/orrn/printq/internal/db"
	"github.com/orrn/printq/internal/webhook"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[main] failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[main] invalid config: %v", err)
	}

	if err := db.Init(db.Config{Path: cfg.Database.Path}); err != nil {
		log.Fatalf("[main] failed to initialize database: %v", err)
	}
	defer db.Close()

	queue := db.NewQueueOperations(db.QueuePolicy{
		OrderBy:       cfg.Queue.OrderBy,
		ActiveStatus:  cfg.Queue.ActiveStatus,
		ExcludeStatus: cfg.Queue.ExcludeStatus,
		LeaseTTL:      cfg.Queue.LeaseTTL,
	})

	labels, ok := core.LabelsByName(cfg.Format.Labels)
	if !ok {
		log.Fatalf("[main] unknown label set: %s", cfg.Format.Labels)
	}

	routes := make([]core.Route, 0, len(cfg.Routing.Routes))
	for _, r := range cfg.Routing.Routes {
		routes = append(routes, core.Route{
			Prefix:      r.Prefix,
			Destination: core.Destination{Name: r.Printer, Address: r.Address},
		})
	}
	router := core.NewRouter(routes, core.Destination{
		Name:    cfg.Routing.Default.Printer,
		Address: cfg.Routing.Default.Address,
	})

	var sink core.EventSink
	var sender *webhook.Sender
	if len(cfg.Webhooks.Endpoints) > 0 {
		endpoints := make([]webhook.Endpoint, 0, len(cfg.Webhooks.Endpoints))
		for _, e := range cfg.Webhooks.Endpoints {
			endpoints = append(endpoints, webhook.Endpoint{
				Name:   e.Name,
				URL:    e.URL,
				Secret: e.Secret,
				Events: e.Events,
			})
		}
		sender = webhook.NewSender(webhook.Config{
			Endpoints:   endpoints,
			RetryCount:  cfg.Webhooks.RetryCount,
			RetryDelay:  cfg.Webhooks.RetryDelay,
			Timeout:     cfg.Webhooks.Timeout,
			WorkerCount: cfg.Webhooks.WorkerCount,
			QueueSize:   cfg.Webhooks.QueueSize,
		})
		sender.Start()
		defer sender.Stop()
		sink = sender
	}

	dispatcher := core.NewDispatcher(queue, core.NewFormatter(labels), router, sink, core.DispatcherOptions{
		DefaultLimit: cfg.Queue.Limit,
		Claim:        cfg.Queue.Claim,
	})

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())

	auth := middleware.NewAuthMiddleware(cfg.Auth.Secret)
	api := engine.Group("/api", auth.RequireAuth())
	handlers.NewPrintQueueHandler(dispatcher).RegisterRoutes(api)
	handlers.NewHealthHandler(queue).RegisterRoutes(engine.Group("/api"))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("[main] listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[main] shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("[main] forced shutdown: %v", err)
	}
}
