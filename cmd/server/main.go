package main

import (
	"log/slog"
	"os"

	"github.com/rizzchat/server/internal/config"
	"github.com/rizzchat/server/internal/db"
	"github.com/rizzchat/server/internal/httpapi"
	"github.com/rizzchat/server/internal/redeem"
	"github.com/rizzchat/server/internal/sl"
	"github.com/rizzchat/server/internal/store/rabbitmq"
	"github.com/rizzchat/server/internal/store/redisstore"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)

	rds, err := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Error("redis connect failed", sl.Err(err))
		os.Exit(1)
	}
	defer rds.Close()

	// upgrade events are best-effort; run without them if the broker is down
	var events redeem.Publisher
	if pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue); err != nil {
		log.Warn("rabbitmq unavailable, upgrade events disabled", sl.Err(err))
	} else {
		events = pub
		defer pub.Close()
	}

	r := httpapi.NewRouter(gdb, cfg, rds, events, log)

	log.Info("server listening", slog.String("addr", cfg.HTTPAddr))
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Error("server exited", sl.Err(err))
		os.Exit(1)
	}
}
