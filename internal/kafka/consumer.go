package kafka

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Handler must return nil only when the message is done and its offset may be committed.
type Handler func(ctx context.Context, m kafka.Message) error

const (
	retryBase = 200 * time.Millisecond
	retryMax  = 30 * time.Second
)

type Consumer struct {
	r       *kafka.Reader
	workers int
	log     *slog.Logger

	// backoff is the wait before retry attempt n (n >= 1).
	backoff func(n int) time.Duration
}

func NewConsumer(log *slog.Logger, brokers []string, group, topic string, workers int) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{r: r, workers: workers, log: log, backoff: expBackoff}
}

func expBackoff(n int) time.Duration {
	d := retryBase
	for i := 1; i < n && d < retryMax; i++ {
		d *= 2
	}
	if d > retryMax {
		d = retryMax
	}
	return d
}

func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	// workers stop retrying when the reader fails, so their messages stay uncommitted
	wctx, stop := context.WithCancel(ctx)
	jobs := make(chan kafka.Message, c.workers)
	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range jobs {
				// an offset is only committed once its handler succeeded
				if err := c.handle(wctx, h, m); err != nil {
					return
				}
				if err := c.r.CommitMessages(wctx, m); err != nil {
					c.log.Error("commit failed", "partition", m.Partition, "offset", m.Offset, "err", err)
				}
			}
		}()
	}
	shutdown := func(err error) error {
		close(jobs)
		stop()
		wg.Wait()
		return err
	}

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return shutdown(nil)
			}
			return shutdown(err)
		}
		select {
		case jobs <- m:
		case <-ctx.Done():
			return shutdown(nil)
		}
	}
}

// handle runs h until it succeeds, backing off between attempts. It gives up
// only when ctx is done, leaving the message uncommitted for the next consumer.
func (c *Consumer) handle(ctx context.Context, h Handler, m kafka.Message) error {
	for attempt := 1; ; attempt++ {
		err := h(ctx, m)
		if err == nil {
			return nil
		}
		wait := c.backoff(attempt)
		c.log.Error("handler failed, retrying", "partition", m.Partition, "offset", m.Offset, "attempt", attempt, "retry_in", wait, "err", err)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
