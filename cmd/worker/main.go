// The worker consumes pro-upgrade events and sends the congratulation
// email. Failed deliveries are nacked to the DLQ.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/rizzchat/server/internal/config"
	"github.com/rizzchat/server/internal/db"
	"github.com/rizzchat/server/internal/email"
	"github.com/rizzchat/server/internal/sl"
	"github.com/rizzchat/server/internal/store"
	"github.com/rizzchat/server/internal/store/rabbitmq"
)

func workerConcurrency() int {
	v := os.Getenv("WORKER_CONCURRENCY")
	if v == "" {
		return 2
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 2
	}
	if n > 50 {
		return 50
	}
	return n
}

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)
	st := store.New(gdb)

	smtpCfg := email.SMTPConfig{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.SMTPFrom,
	}

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Error("rabbit dial failed", sl.Err(err))
		os.Exit(1)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Error("rabbit channel failed", sl.Err(err))
		os.Exit(1)
	}
	defer ch.Close()

	if err := rabbitmq.DeclareTopology(ch, cfg.RabbitQueue); err != nil {
		log.Error("queue declare failed", sl.Err(err))
		os.Exit(1)
	}

	concurrency := workerConcurrency()
	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Error("qos failed", sl.Err(err))
		os.Exit(1)
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Error("consume failed", sl.Err(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("worker started",
		slog.String("queue", cfg.RabbitQueue),
		slog.Int("concurrency", concurrency))

	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				var ev rabbitmq.UpgradeEvent
				if err := json.Unmarshal(d.Body, &ev); err != nil || ev.UserID == "" {
					log.Warn("bad message", slog.Int("worker", workerID), sl.Err(err))
					_ = d.Nack(false, false)
					continue
				}

				if err := handleUpgrade(ctx, st, smtpCfg, ev); err != nil {
					log.Warn("upgrade notification failed",
						slog.Int("worker", workerID),
						slog.String("user_id", ev.UserID),
						sl.Err(err))
					_ = d.Nack(false, false)
					continue
				}

				if err := d.Ack(false); err != nil {
					log.Warn("ack failed", slog.Int("worker", workerID), sl.Err(err))
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Warn("delivery channel closed")
				time.Sleep(1 * time.Second)
				continue
			}
			jobs <- d
		}
	}
}

func handleUpgrade(ctx context.Context, st *store.Store, smtpCfg email.SMTPConfig, ev rabbitmq.UpgradeEvent) error {
	user, err := st.GetUser(ctx, ev.UserID)
	if err != nil {
		return err
	}

	body := "Hello,\n\n" +
		"Your RizzChat account has been upgraded to Pro. Daily message limits\n" +
		"no longer apply to you.\n\n" +
		"Best regards,\n" +
		"RizzChat\n"
	return email.SendText(smtpCfg, user.Email, "Welcome to RizzChat Pro", body)
}
