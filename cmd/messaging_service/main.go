package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"event_messaging_service/internal/messaging/app"
	"event_messaging_service/internal/messaging/repository"
	"event_messaging_service/internal/messaging/router"
	"event_messaging_service/pkg/config"
	"event_messaging_service/pkg/database"
	"event_messaging_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.MessagingService, config.EnvConfig.MessagingServiceLogPath)
	cfg := config.LoadConfig[config.Messaging](config.EnvConfig.MessagingService, config.EnvConfig.MessagingServiceYAMLPath)

	ctx := context.Background()

	// PostgreSQL: threads, messages, participants and the platform's
	// membership tables all live in the one database.
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		cfg.PostgreSQL.User, cfg.PostgreSQL.Password, cfg.PostgreSQL.Host, cfg.PostgreSQL.Port, cfg.PostgreSQL.Database)
	pool, err := database.NewDatabaseConnection(database.Connection{
		ConnectStr:    dsn,
		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to PostgreSQL after retries",
			zap.String("host", cfg.PostgreSQL.Host),
			zap.Error(err),
		)
	}
	defer pool.Close()

	gormDSN := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		cfg.PostgreSQL.Host, cfg.PostgreSQL.User, cfg.PostgreSQL.Password, cfg.PostgreSQL.Database, cfg.PostgreSQL.Port)
	gormDB, err := gorm.Open(postgres.Open(gormDSN), &gorm.Config{})
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect gorm err : %v", err))
	}

	// Redis: realtime pub/sub plus the email rate-limit keys.
	redisClient, err := database.NewRedisClient(cfg.Redis.Addr, cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect redis err : %v", err))
	}

	// RabbitMQ: email jobs for the notifier worker.
	rabbitConn, err := database.ConnectRabbitMQWithRetry(database.Connection{
		ConnectStr:    cfg.RabbitMQ.URL,
		RetryCount:    cfg.RabbitMQ.RetryCount,
		RetryInterval: time.Duration(cfg.RabbitMQ.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect rabbitmq err : %v", err))
	}
	defer rabbitConn.Close()

	rabbitCh, err := database.GetRabbitMQChannelWithRetry(rabbitConn, cfg.RabbitMQ.RetryCount, time.Duration(cfg.RabbitMQ.RetryInterval))
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("open rabbitmq channel err : %v", err))
	}
	if _, err := rabbitCh.QueueDeclare(cfg.RabbitMQ.Queue, true, false, false, false, nil); err != nil {
		logger.Log.Fatal(fmt.Sprintf("declare rabbitmq queue err : %v", err))
	}

	// Kafka: message-sent event stream.
	kafkaWriter, err := database.NewKafkaWriterWithRetry(database.KafkaConnection{
		Brokers:       cfg.Kafka.Brokers,
		Topic:         cfg.Kafka.Topic,
		RetryCount:    cfg.Kafka.RetryCount,
		RetryInterval: time.Duration(cfg.Kafka.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect kafka err : %v", err))
	}
	defer kafkaWriter.Close()

	threadRepo := repository.NewThreadRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	participantRepo := repository.NewParticipantRepository(pool)
	membershipRepo := repository.NewMembershipRepository(pool)
	identityRepo := repository.NewIdentityRepository(pool)
	notificationRepo := repository.NewPostgresNotificationRepository(gormDB)
	pubsub := repository.NewRedisPubSub(redisClient)
	emailSender := repository.NewRabbitEmailSender(
		database.NewRabbitRepository(rabbitCh),
		database.NewRedisRepository[string](redisClient),
		cfg.RabbitMQ.Queue,
		cfg.EmailRateWindow,
	)
	eventPublisher := repository.NewKafkaEventPublisher(kafkaWriter)

	if err := threadRepo.EnsureSchema(ctx); err != nil {
		logger.Log.Fatal(fmt.Sprintf("threads schema err : %v", err))
	}
	if err := messageRepo.EnsureSchema(ctx); err != nil {
		logger.Log.Fatal(fmt.Sprintf("messages schema err : %v", err))
	}
	if err := participantRepo.EnsureSchema(ctx); err != nil {
		logger.Log.Fatal(fmt.Sprintf("participants schema err : %v", err))
	}
	if err := notificationRepo.AutoMigrate(); err != nil {
		logger.Log.Fatal(fmt.Sprintf("notifications migrate err : %v", err))
	}

	gate := app.NewAccessGate(membershipRepo)
	threads := app.NewThreadResolver(gate, threadRepo, participantRepo, cfg.CacheTTL)
	messages := app.NewMessageStore(messageRepo, threadRepo, participantRepo, cfg.CacheTTL)
	identities := app.NewIdentityResolver(identityRepo, cfg.CacheTTL)
	fanout := app.NewNotificationFanout(membershipRepo, identities, notificationRepo, emailSender, eventPublisher)
	bus := app.NewRealtimeBus(nil)

	service := app.NewMessagingService(gate, threads, messages, fanout, bus, notificationRepo)
	service.Init(app.RealtimeConfig{
		Enabled:   cfg.EnableRealtime,
		Transport: pubsub,
	})

	r := fiber.New()
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.MessagingServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file,
	}))

	router.RegisterRoutes(r, service, app.NewMessagingWebsocketHandler(service))

	port := ":" + cfg.Port
	log.Printf("Messaging Service listening on %s", port)
	if err := r.Listen(port); err != nil {
		log.Fatalf("Failed to start Fiber: %v", err)
	}
}
