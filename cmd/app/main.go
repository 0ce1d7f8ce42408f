package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/Domenick1991/flightdesk/api"
	"github.com/Domenick1991/flightdesk/config"
	"github.com/Domenick1991/flightdesk/internal/bootstrap"
	"github.com/Domenick1991/flightdesk/internal/cache"
	"github.com/Domenick1991/flightdesk/internal/email"
	"github.com/Domenick1991/flightdesk/internal/identity"
	"github.com/Domenick1991/flightdesk/internal/kafka"
	"github.com/Domenick1991/flightdesk/internal/logger"
	"github.com/Domenick1991/flightdesk/internal/relay"
	"github.com/Domenick1991/flightdesk/internal/repository"
	"github.com/Domenick1991/flightdesk/internal/service/airports"
	"github.com/Domenick1991/flightdesk/internal/service/auth"
	"github.com/Domenick1991/flightdesk/internal/service/booking"
	"github.com/Domenick1991/flightdesk/internal/service/flights"
	"github.com/Domenick1991/flightdesk/internal/service/users"
	"github.com/gin-gonic/gin"
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

	if err := run(cfg, logg); err != nil {
		logg.Fatal("server error", zap.Error(err))
	}
}

func run(cfg *config.Config, logg *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := time.LoadLocation(cfg.Booking.SearchTimezone)
	if err != nil {
		return err
	}

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(ctx, pool); err != nil {
			return err
		}
		logg.Info("database schema applied")
	}

	flightRepo := repository.NewFlightRepository(pool)
	airportRepo := repository.NewAirportRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	hubOpts := []relay.Option{relay.WithBufferSize(cfg.Relay.BufferSize)}
	bookingOpts := []booking.BookingServiceOption{booking.WithLogger(logg)}
	var (
		flightCache  flights.FlightCache
		airportCache airports.AirportCache
		bridge       bootstrap.Bridge
	)

	if cfg.Redis.Addr != "" {
		redisClient := cache.NewClient(cfg.Redis)
		defer redisClient.Close()

		redisCache := cache.NewRedisCache(redisClient,
			time.Duration(cfg.Booking.FlightsCacheTTL)*time.Second,
			time.Duration(cfg.Booking.AirportsCacheTTL)*time.Second)
		flightCache, airportCache = redisCache, redisCache
		bookingOpts = append(bookingOpts, booking.WithFlightCache(redisCache))

		if cfg.Relay.RedisChannel != "" {
			redisBridge := relay.NewRedisBridge(redisClient, cfg.Relay.RedisChannel, logg)
			hubOpts = append(hubOpts, relay.WithPublisher(redisBridge))
			bridge = redisBridge
		}
	}

	var producer *kafka.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, logg)
		defer producer.Close()

		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := producer.CheckConnection(checkCtx)
		cancel()
		if err != nil {
			// Queued mail would be lost; events alone are best effort.
			if cfg.Email.Delivery == config.DeliveryKafka {
				return err
			}
			logg.Warn("kafka unreachable, booking events will be dropped", zap.Error(err))
		}
		bookingOpts = append(bookingOpts, booking.WithEvents(producer, cfg.Kafka.BookingEventsTopic))
	}

	switch cfg.Email.Delivery {
	case config.DeliveryKafka:
		bookingOpts = append(bookingOpts, booking.WithMailer(kafka.NewMailQueue(producer, cfg.Kafka.NotificationsTopic)))
	default:
		bookingOpts = append(bookingOpts, booking.WithMailer(email.NewSender(cfg.Email)))
	}

	hub := relay.NewHub(logg, hubOpts...)
	bookingOpts = append(bookingOpts, booking.WithRelay(hub))

	identityClient := identity.NewClient(cfg.Identity)
	authService := auth.NewAuthService(identityClient, userRepo, logg)
	userService := users.NewUserService(userRepo, bookingRepo, identityClient, logg)
	flightService := flights.NewFlightService(flightRepo, flightCache, flights.WithLocation(loc), flights.WithLogger(logg))
	airportService := airports.NewAirportService(airportRepo, airportCache, logg)
	bookingService := booking.NewBookingService(bookingRepo, flightRepo, userRepo, bookingOpts...)

	gin.SetMode(gin.ReleaseMode)
	if err := api.RegisterValidators(); err != nil {
		return err
	}
	router := api.NewRouter(api.Handlers{
		Auth:     api.NewAuthHandler(authService, logg),
		Flights:  api.NewFlightHandler(flightService, logg),
		Airports: api.NewAirportHandler(airportService, logg),
		Bookings: api.NewBookingHandler(bookingService, logg),
		Users:    api.NewUserHandler(userService, logg),
		SSE:      api.NewSSEHandler(hub, logg),
	}, authService, cfg.HTTP.SwaggerDir, logg)

	return bootstrap.Run(ctx, cfg, router, hub, bridge, logg)
}
