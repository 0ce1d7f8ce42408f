package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/flightdesk/config"
	"github.com/Domenick1991/flightdesk/internal/cache"
	"github.com/Domenick1991/flightdesk/internal/email"
	"github.com/Domenick1991/flightdesk/internal/kafka"
	"github.com/Domenick1991/flightdesk/internal/logger"
	"github.com/Domenick1991/flightdesk/internal/relay"
	"github.com/Domenick1991/flightdesk/internal/repository"
	"github.com/Domenick1991/flightdesk/internal/service/booking"
	"github.com/Domenick1991/flightdesk/internal/worker"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logg.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	interval := time.Duration(cfg.Worker.CompletionSweepMinutes) * time.Minute
	bookingOpts := []booking.BookingServiceOption{booking.WithLogger(logg)}
	var newLock func() worker.Lock

	if cfg.Redis.Addr != "" {
		redisClient := cache.NewClient(cfg.Redis)
		defer redisClient.Close()

		rs := redsync.New(goredis.NewPool(redisClient))
		newLock = worker.RedisLock(rs, interval)

		// Completions reach browsers through the API instances subscribed to the channel.
		if cfg.Relay.RedisChannel != "" {
			bridge := relay.NewRedisBridge(redisClient, cfg.Relay.RedisChannel, logg)
			bookingOpts = append(bookingOpts, booking.WithRelay(relay.NewHub(logg, relay.WithPublisher(bridge))))
		}
	} else {
		logg.Warn("redis not configured, completion sweep runs without a lock")
	}

	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, logg)
		defer producer.Close()

		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := producer.CheckConnection(checkCtx); err != nil {
			logg.Warn("kafka unreachable, completion events will be dropped", zap.Error(err))
		}
		cancel()
		bookingOpts = append(bookingOpts, booking.WithEvents(producer, cfg.Kafka.BookingEventsTopic))
	}

	bookingRepo := repository.NewBookingRepository(pool)
	flightRepo := repository.NewFlightRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	bookingService := booking.NewBookingService(bookingRepo, flightRepo, userRepo, bookingOpts...)

	if cfg.Email.Delivery == config.DeliveryKafka {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic,
			kafka.WithConsumerLogger(logg))
		defer consumer.Close()

		mail := worker.NewMailHandler(email.NewSender(cfg.Email), logg)
		go func() {
			if err := consumer.Consume(ctx, mail.Handle); err != nil && ctx.Err() == nil {
				// Exit so the supervisor restarts the worker with a fresh reader.
				logg.Error("mail consumer stopped, shutting down", zap.Error(err))
				stop()
			}
		}()
		logg.Info("mail consumer started", zap.String("topic", cfg.Kafka.NotificationsTopic))
	}

	logg.Info("completion sweep started", zap.Duration("interval", interval))
	worker.NewSweeper(bookingService, newLock, interval, logg).Run(ctx)
	logg.Info("worker stopped")
}
