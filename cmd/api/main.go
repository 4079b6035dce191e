package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/rephone-market/internal/config"
	"github.com/ariefcatur/rephone-market/internal/httpx"
	kafkax "github.com/ariefcatur/rephone-market/internal/kafka"
	"github.com/ariefcatur/rephone-market/internal/logging"
	"github.com/ariefcatur/rephone-market/internal/orders"
	"github.com/ariefcatur/rephone-market/internal/outbox"
	"github.com/ariefcatur/rephone-market/internal/payments"
	"github.com/ariefcatur/rephone-market/internal/postgres"
	"github.com/ariefcatur/rephone-market/internal/redisx"
	"github.com/ariefcatur/rephone-market/internal/tracing"
	"github.com/ariefcatur/rephone-market/internal/verification"
	"github.com/google/uuid"
)

func main() {
	log := logging.New()
	tp := tracing.Init("rephone-api")
	defer func() { _ = tp.Shutdown(context.Background()) }()

	cfg, err := config.Load()
	if err != nil {
		log.Error("config", "err", err)
		os.Exit(1)
	}
	if err := cfg.ValidateAPI(); err != nil {
		log.Error("config", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if cfg.MigrateOnStart {
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Error("migrate", "err", err)
			os.Exit(1)
		}
		log.Info("schema applied")
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	cache := payments.RedisCache{RDB: rdb}

	// Outbox relay -> seller.notifications
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicSellerNotifications)
	relay := outbox.NewRelay(log, &outbox.PGStore{DB: db}, outbox.NewDispatcher(log, prod), cfg.ServiceName+"-"+uuid.NewString()[:8])
	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		_ = relay.Run(ctx)
	}()

	// Settlement workers get their own context so queued work finishes on shutdown.
	reconciler := payments.NewReconciler(log, payments.NewStore(db, cfg.ServiceName), &payments.FailureStore{DB: db}, cache, cfg.SettleWorker, 256)
	reconciler.Start(context.Background())

	orderRepo := orders.NewRepo(db, cfg.DeliveryFee)
	paymentSvc := payments.NewService(log, orderRepo, payments.NewGateway(cfg.Safepay, cfg.FrontendURL), payments.NewStore(db, cfg.ServiceName), cache)
	moderation := verification.NewService(log, &verification.Store{DB: db}, verification.NewClient(cfg.IMEI))

	router := httpx.NewRouter()
	(&httpx.OrdersHandler{Orders: orders.NewService(orderRepo, log), Log: log}).Register(router)
	(&httpx.PaymentsHandler{Payments: paymentSvc, Inbox: reconciler, WebhookSecret: cfg.Safepay.WebhookSecret, Log: log}).Register(router)
	(&httpx.AdminHandler{Moderation: moderation, Settlements: reconciler, Secret: cfg.AdminSecret, Log: log}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Info("HTTP listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("listen", "err", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	reconciler.Stop() // drain queued settlements
	cancel()          // stop relay
	<-relayDone
	if err := prod.Close(); err != nil {
		log.Error("kafka writer close", "err", err)
	}
}
