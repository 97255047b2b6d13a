// README: Entry point; loads config, wires stores and services, starts the HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Web-dev-ENT-302/transport-backend/internal/config"
	"github.com/Web-dev-ENT-302/transport-backend/internal/events"
	httptransport "github.com/Web-dev-ENT-302/transport-backend/internal/http"
	"github.com/Web-dev-ENT-302/transport-backend/internal/identity"
	"github.com/Web-dev-ENT-302/transport-backend/internal/infra"
	"github.com/Web-dev-ENT-302/transport-backend/internal/modules/account"
	"github.com/Web-dev-ENT-302/transport-backend/internal/modules/pool"
	"github.com/Web-dev-ENT-302/transport-backend/internal/modules/ride"
	"github.com/Web-dev-ENT-302/transport-backend/internal/modules/stats"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	// The event stream is optional infrastructure: the engine runs
	// without a broker, it just stops fanning out lifecycle events.
	var publisher ride.EventPublisher
	rabbit, err := infra.ConnectRabbit(cfg.AMQP.URL, cfg.AMQP.Exchange)
	if err != nil {
		log.WithError(err).Warn("rabbitmq unavailable; lifecycle events disabled")
	} else {
		defer rabbit.Close()
		publisher = events.NewPublisher(rabbit)
	}

	tokens := identity.NewManager(cfg.JWT.Secret, cfg.JWT.ExpiresIn)

	rideStore := ride.NewStore(dbPool)
	openPool := pool.NewStore(redisClient)
	rideSvc := ride.NewService(rideStore, openPool, publisher, cfg.Rides)
	statsSvc := stats.NewService(rideStore)
	accountSvc := account.NewService(account.NewRegistry(dbPool), tokens)

	handler := httptransport.NewServer(httptransport.ServerDeps{
		Rides:    rideSvc,
		Stats:    statsSvc,
		Accounts: accountSvc,
		Identity: tokens,
		Log:      log,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler.Routes()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", cfg.HTTP.Addr).Info("listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
