package main

import (
	"log"

	"vip-gatekeeper-be/internal/config"
	"vip-gatekeeper-be/internal/model"
	"vip-gatekeeper-be/pkg/database"
)

func main() {
	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Unable to connect to GORM DB: %v", err)
	}

	log.Println("Running migrations...")
	if err := db.AutoMigrate(
		&model.Subscription{},
		&model.WebhookEvent{},
	); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("✅ Migrations complete")
}
