package cache

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/flightdesk/config"
	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const (
	flightsKey  = "cache:flights"
	airportsKey = "cache:airports"
)

func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
}

type RedisCache struct {
	client      redis.Cmdable
	flightsTTL  time.Duration
	airportsTTL time.Duration
}

func NewRedisCache(client redis.Cmdable, flightsTTL, airportsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:      client,
		flightsTTL:  flightsTTL,
		airportsTTL: airportsTTL,
	}
}

// GetFlights returns nil, nil on a cache miss.
func (c *RedisCache) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	var flights []domain.Flight
	ok, err := c.get(ctx, flightsKey, &flights)
	if !ok {
		return nil, err
	}
	return flights, nil
}

func (c *RedisCache) SetFlights(ctx context.Context, flights []domain.Flight) error {
	return c.set(ctx, flightsKey, flights, c.flightsTTL)
}

// InvalidateFlights drops the cached list after seat counts change.
func (c *RedisCache) InvalidateFlights(ctx context.Context) error {
	return c.client.Del(ctx, flightsKey).Err()
}

// GetAirports returns nil, nil on a cache miss.
func (c *RedisCache) GetAirports(ctx context.Context) ([]domain.Airport, error) {
	var airports []domain.Airport
	ok, err := c.get(ctx, airportsKey, &airports)
	if !ok {
		return nil, err
	}
	return airports, nil
}

func (c *RedisCache) SetAirports(ctx context.Context, airports []domain.Airport) error {
	return c.set(ctx, airportsKey, airports, c.airportsTTL)
}

func (c *RedisCache) get(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisCache) set(ctx context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}
