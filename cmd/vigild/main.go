package main

import (
	"context"
	"log"
	"time"

	"vigil/internal/config"
	"vigil/internal/infra/db"
	httpinfra "vigil/internal/infra/http"
	"vigil/internal/infra/joblock"
	"vigil/internal/infra/sched"
)

func main() {
	cfg := config.FromEnv()

	store, err := db.NewStore(cfg)
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}

	srv := httpinfra.NewServer(cfg, store)

	var locker joblock.Locker
	if cfg.RedisAddr != "" {
		locker, err = joblock.NewRedisLocker(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatalf("failed to init redis locker: %v", err)
		}
	} else {
		log.Printf("REDIS_ADDR not set; using in-process sweep lease.")
		locker = joblock.NewMemoryLocker(time.Now)
	}

	detector, engine, executor := srv.Deps()
	scheduler := sched.New(detector, engine, executor, locker,
		cfg.DetectionInterval(), cfg.EscalationInterval())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go scheduler.Run(ctx)

	if err := srv.Run(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
