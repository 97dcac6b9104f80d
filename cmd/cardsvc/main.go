package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/avvvet/cardkey-services/configs"
	"github.com/avvvet/cardkey-services/internal/cardsvc/broker"
	svcconfig "github.com/avvvet/cardkey-services/internal/cardsvc/config"
	"github.com/avvvet/cardkey-services/internal/cardsvc/db"
	handlers "github.com/avvvet/cardkey-services/internal/cardsvc/handlers"
	"github.com/avvvet/cardkey-services/internal/cardsvc/service"
	"github.com/avvvet/cardkey-services/internal/cardsvc/store"
	natscli "github.com/avvvet/cardkey-services/internal/nats"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "card"

var instanceId string

func init() {
	config.LoadEnv(SERVICE_NAME)
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
}

func main() {
	cfg, err := svcconfig.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	config.Logging(SERVICE_NAME+"_service_"+instanceId, cfg.LogDir, cfg.LogLevel)

	// pg connection
	conn, err := db.Connect(context.Background(), cfg.DBUrl)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer conn.Close()
	log.Printf("pg connection established successfully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = db.Migrate(ctx, conn.SQL)
	cancel()
	if err != nil {
		log.Fatalf("Failed to migrate DB: %v", err)
	}

	// events are optional, without NATS_URL nothing is published
	var events service.Events
	if cfg.NatsURL != "" {
		n, err := natscli.Connect(cfg.NatsURL, cfg.NatsToken, SERVICE_NAME+"-"+instanceId)
		if err != nil {
			log.Fatalf("Error: unable to connect to NATS server %v", err)
		}
		defer n.Conn.Close()
		log.Printf("NATS connection established successfully %s", n.Url)
		events = broker.NewBroker(n.Conn, instanceId)
	}

	cardStore := store.NewCardKeyStore(conn.SQL)
	cardService := service.NewCardKeyService(cardStore, events, cfg.ListPageSize)
	generator := service.NewGenerator(cardStore, nil, events, service.GeneratorOptions{
		BatchSize:  cfg.GenerateBatchSize,
		MaxCount:   cfg.GenerateMaxCount,
		MaxRetries: cfg.GenerateMaxRetries,
	})

	// Init handlers and routes
	h := handlers.NewHandler(cfg, cardService, generator, instanceId)
	h.InitAuth()

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h.Router(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
