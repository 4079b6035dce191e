package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/rephone-market/internal/config"
	kafkax "github.com/ariefcatur/rephone-market/internal/kafka"
	"github.com/ariefcatur/rephone-market/internal/logging"
	"github.com/ariefcatur/rephone-market/internal/notify"
	"github.com/ariefcatur/rephone-market/internal/orders"
	"github.com/ariefcatur/rephone-market/internal/redisx"
	"github.com/ariefcatur/rephone-market/internal/tracing"
)

func main() {
	log := logging.New()
	tp := tracing.Init("rephone-notifier")
	defer func() { _ = tp.Shutdown(context.Background()) }()

	cfg, err := config.Load()
	if err != nil {
		log.Error("config", "err", err)
		os.Exit(1)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &notify.Service{
		Log:    log,
		Dedup:  notify.RedisDeduper{RDB: rdb},
		Mailer: notify.LogMailer{Log: log},
	}

	cons := kafkax.NewConsumer(log, cfg.KafkaBrokers, cfg.NotifierGroup, orders.TopicSellerNotifications, cfg.NotifierWorkers)
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		log.Info("notifier consumer started", "group", cfg.NotifierGroup, "topic", orders.TopicSellerNotifications, "workers", cfg.NotifierWorkers)
		if err := cons.Start(ctx, svc.HandleProductSold); err != nil {
			log.Error("consumer exit", "err", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Info("shutting down consumer")
	cancel()
	select {
	case <-consumerDone:
	case <-time.After(10 * time.Second):
		log.Warn("consumer did not stop in time")
	}
}
