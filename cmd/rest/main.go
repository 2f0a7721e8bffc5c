package main

import (
	"context"
	"log"

	"vip-gatekeeper-be/internal/bootstrap"
	"vip-gatekeeper-be/internal/config"
	"vip-gatekeeper-be/internal/server"
	"vip-gatekeeper-be/internal/tracer"
	"vip-gatekeeper-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	ctx := context.Background()
	if err := container.NotifierService.Start(ctx); err != nil {
		log.Printf("Background Notifier Error: %v", err)
	}
	go container.Sweeper.Run(ctx)

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
