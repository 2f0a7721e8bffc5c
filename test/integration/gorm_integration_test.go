package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"vip-gatekeeper-be/internal/entity"
	"vip-gatekeeper-be/internal/model"
	"vip-gatekeeper-be/internal/repository/contract"
	"vip-gatekeeper-be/internal/repository/unitofwork"
	"vip-gatekeeper-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	require.NoError(t, gormDB.AutoMigrate(&model.Subscription{}, &model.WebhookEvent{}))

	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.SubscriptionRepository())
	assert.NotNil(t, uow.WebhookEventRepository())

	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	ctx := context.Background()
	userID := "itest-" + uuid.New().String()

	t.Run("Versioned update rejects stale writers", func(t *testing.T) {
		repo := uow.SubscriptionRepository()

		sub := &entity.Subscription{
			UserID:    userID,
			State:     entity.SubscriptionStateActive,
			ExpiresAt: time.Now().UTC().Add(30 * 24 * time.Hour),
		}
		require.NoError(t, repo.Create(ctx, sub))
		require.Equal(t, int64(1), sub.Version)

		first, err := repo.FindByUserID(ctx, userID)
		require.NoError(t, err)
		second, err := repo.FindByUserID(ctx, userID)
		require.NoError(t, err)

		first.State = entity.SubscriptionStateExpired
		require.NoError(t, repo.Update(ctx, first))

		second.State = entity.SubscriptionStateCancelled
		err = repo.Update(ctx, second)
		assert.ErrorIs(t, err, contract.ErrConflict)

		stored, err := repo.FindByUserID(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, entity.SubscriptionStateExpired, stored.State)
	})

	t.Run("Webhook dedup on provider event id", func(t *testing.T) {
		repo := uow.WebhookEventRepository()

		eventID := "itest-" + uuid.New().String()
		first := &entity.WebhookEvent{
			Provider:        "midtrans",
			ProviderEventID: eventID,
			EventType:       "settlement",
			PayloadJSON:     "{}",
			SignatureValid:  true,
		}
		duplicate, err := repo.Record(ctx, first)
		require.NoError(t, err)
		assert.False(t, duplicate)

		replay := &entity.WebhookEvent{
			Provider:        "midtrans",
			ProviderEventID: eventID,
			EventType:       "settlement",
			PayloadJSON:     "{}",
			SignatureValid:  true,
		}
		duplicate, err = repo.Record(ctx, replay)
		require.NoError(t, err)
		assert.True(t, duplicate)
		assert.Equal(t, first.Id, replay.Id, "replay must surface the original row")
	})
}
