// keygensvc inserts a batch of card keys directly into the store and exits.
// Running it again adds more keys.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	config "github.com/avvvet/cardkey-services/configs"
	"github.com/avvvet/cardkey-services/internal/cardsvc/broker"
	svcconfig "github.com/avvvet/cardkey-services/internal/cardsvc/config"
	"github.com/avvvet/cardkey-services/internal/cardsvc/db"
	"github.com/avvvet/cardkey-services/internal/cardsvc/service"
	"github.com/avvvet/cardkey-services/internal/cardsvc/store"
	natscli "github.com/avvvet/cardkey-services/internal/nats"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "keygen"

func main() {
	config.LoadEnv(SERVICE_NAME)

	cfg, err := svcconfig.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	count := flag.Int("count", cfg.GenerateDefaultCount, "number of card keys to generate")
	batch := flag.Int("batch", cfg.GenerateBatchSize, "rows per insert statement")
	flag.Parse()

	cfg.GenerateBatchSize = *batch
	if *count > cfg.GenerateMaxCount {
		cfg.GenerateMaxCount = *count
	}
	if cfg.DBUrl == "" {
		log.Fatal("POSTGRES_URL is required")
	}
	config.Logging(SERVICE_NAME, cfg.LogDir, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Connect(ctx, cfg.DBUrl)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer conn.Close()

	if err := db.Migrate(ctx, conn.SQL); err != nil {
		log.Fatalf("Failed to migrate DB: %v", err)
	}

	var events service.Events
	if cfg.NatsURL != "" {
		n, err := natscli.Connect(cfg.NatsURL, cfg.NatsToken, SERVICE_NAME)
		if err != nil {
			log.Fatalf("Error: unable to connect to NATS server %v", err)
		}
		defer n.Conn.Close()
		events = broker.NewBroker(n.Conn, config.CreateUniqueInstance(SERVICE_NAME))
	}

	generator := service.NewGenerator(store.NewCardKeyStore(conn.SQL), nil, events, service.GeneratorOptions{
		BatchSize:  cfg.GenerateBatchSize,
		MaxCount:   cfg.GenerateMaxCount,
		MaxRetries: cfg.GenerateMaxRetries,
	})

	res, err := generator.Generate(ctx, *count)
	if err != nil {
		var pe *service.PartialError
		if errors.As(err, &pe) && pe.Inserted > 0 {
			log.Errorf("partial run: %v", err)
			os.Exit(2)
		}
		log.Errorf("generation failed: %v", err)
		os.Exit(1)
	}
	log.Infof("successfully generated and inserted %d card keys", res.Inserted)
}
