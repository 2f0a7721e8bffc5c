// FILE: internal/bootstrap/container.go
package bootstrap

import (
	"log"

	"vip-gatekeeper-be/internal/config"
	"vip-gatekeeper-be/internal/controller"
	"vip-gatekeeper-be/internal/pkg/logger"
	"vip-gatekeeper-be/internal/pkg/serverutils"
	"vip-gatekeeper-be/internal/repository/unitofwork"
	"vip-gatekeeper-be/internal/service"
	"vip-gatekeeper-be/internal/worker"
	pktNats "vip-gatekeeper-be/pkg/nats"
	"vip-gatekeeper-be/pkg/telegram"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

const lifecycleTopic = "subscription.lifecycle"

type Container struct {
	// Controllers
	PaymentController controller.IPaymentController
	SweepController   controller.ISweepController

	// Background services (exposed for main.go to run)
	NotifierService service.INotifierService
	Sweeper         *worker.Sweeper
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	botGateway := telegram.NewBotGateway(
		cfg.Telegram.APIBaseURL,
		cfg.Telegram.BotToken,
		cfg.Telegram.VIPChatID,
	)

	// 3. Services
	publisherService := service.NewPublisherService(lifecycleTopic, pubSub)

	membershipService := service.NewMembershipService(
		botGateway,
		service.MembershipRetryPolicy{
			MaxAttempts: cfg.Retry.MembershipMaxAttempts,
			BaseDelay:   cfg.Retry.MembershipBaseDelay,
			CallTimeout: cfg.Retry.MembershipCallTimeout,
		},
		sysLogger,
	)

	normalizer := service.NewNotificationNormalizer(cfg.Midtrans.ServerKey)

	reconcileService := service.NewReconcileService(
		uowFactory,
		normalizer,
		membershipService,
		publisherService,
		sysLogger,
		cfg.Subscription.Period,
		cfg.Subscription.SweepBatch,
		cfg.Retry.StoreConflictRetries,
	)

	paymentService := service.NewPaymentService(uowFactory, publisherService, cfg, sysLogger)

	notifLogger := logger.NewIsolatedLogger("logs/notifier.log")
	notifierService := service.NewNotifierService(
		lifecycleTopic,
		pubSub,
		botGateway,
		natsPub,
		notifLogger,
	)

	sweeper := worker.NewSweeper(reconcileService, cfg.Subscription.SweepInterval, sysLogger)

	// 4. Controllers
	authMiddleware := serverutils.NewJwtMiddleware(cfg.App.JWTSecret)
	return &Container{
		PaymentController: controller.NewPaymentController(paymentService, reconcileService, authMiddleware),
		SweepController:   controller.NewSweepController(reconcileService, authMiddleware),

		NotifierService: notifierService,
		Sweeper:         sweeper,
	}
}
