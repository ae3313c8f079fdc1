package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	pubnub "github.com/pubnub/go/v7"

	"ticketbot/config"
	"ticketbot/handlers"
	"ticketbot/internal/gateway/paystack"
	"ticketbot/services"
	"ticketbot/store"
	"ticketbot/utils"

	_ "ticketbot/migrations"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL)
	defer redisClient.Close()

	// Initialize PubNub
	pnConfig := pubnub.NewConfigWithUserId(pubnub.UserId(cfg.PubNubUUID))
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	pnConfig.SecretKey = cfg.PubNubSecretKey

	pn := pubnub.NewPubNub(pnConfig)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the payment gateway
	gw := paystack.New(ctx, &paystack.ClientConfig{
		BaseURL:     cfg.PaystackBaseURL,
		SecretKey:   cfg.PaystackSecretKey,
		CallbackURL: cfg.CallbackURL,
		Currency:    cfg.Currency,
	})

	// Initialize stores
	sessions := store.NewRedisSessionStore(redisClient)
	payments := store.NewPBPaymentStore(app)
	coupons := store.NewPBCouponStore(app)
	templates := store.NewPBTemplateStore(app)
	reminderLogs := store.NewPBReminderLogStore(app)
	walletTransfers := store.NewPBWalletTransferStore(app)

	// Initialize services
	sender := services.NewPubNubSender(pn)
	availability := services.NewAvailabilityService(redisClient, payments, cfg.VIPAllotment)
	wallet := services.NewWalletService(walletTransfers)
	engine := services.NewConversationService(sessions, payments, coupons, gw, availability, wallet, sender, cfg)
	paymentService := services.NewPaymentService(payments, sessions, gw, sender, cfg.PaystackSecretKey, cfg.Currency)
	reminders := services.NewReminderService(sessions, templates, reminderLogs, payments, gw, sender, cfg)
	deadlines := services.NewDeadlineService(sessions, sender, cfg)

	// Initialize handlers
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	systemHandler := handlers.NewSystemHandler(redisClient)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: cfg.Environment == "development",
	})

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Chat transport and schedulers start once the app is serving
		// so the stores are backed by a bootstrapped database.
		listener := services.NewChatListener(pn, cfg.InboundChannel, engine)
		listener.Start(ctx)
		reminders.Start(ctx)
		deadlines.Start(ctx)

		// Payment endpoints
		e.Router.POST("/api/payments/webhook", paymentHandler.Webhook)
		e.Router.GET("/api/payments/callback", paymentHandler.Callback)

		// Operational endpoints
		e.Router.GET("/health", systemHandler.Health)
		e.Router.GET("/metrics", systemHandler.Metrics)

		log.Println("Server routes registered")

		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
	return nil
}

func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutting down gracefully...")
	cancel()
}
