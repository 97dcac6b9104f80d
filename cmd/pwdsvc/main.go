// pwdsvc serves only the shared-password check, for deployments that gate a
// static page without the card key admin.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/avvvet/cardkey-services/configs"
	svcconfig "github.com/avvvet/cardkey-services/internal/cardsvc/config"
	handlers "github.com/avvvet/cardkey-services/internal/cardsvc/handlers"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "pwd"

func init() {
	config.LoadEnv(SERVICE_NAME)
}

func main() {
	cfg, err := svcconfig.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.VerifyPassword == "" {
		log.Fatal("VERIFY_PASSWORD is required")
	}
	config.Logging(SERVICE_NAME, cfg.LogDir, cfg.LogLevel)
	instanceId := config.CreateUniqueInstance(SERVICE_NAME)

	h := handlers.NewHandler(cfg, nil, nil, instanceId)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(config.CORS(cfg.AllowedOrigins).Handler)
	h.SetPasswordRoutes(r)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
