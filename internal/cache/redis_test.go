package cache

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/flightdesk/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisCache(t *testing.T) {
	client := NewClient(config.RedisConfig{Addr: "localhost:0"})
	defer client.Close()

	c := NewRedisCache(client, time.Minute, time.Hour)
	assert.NotNil(t, c)
	assert.Equal(t, time.Minute, c.flightsTTL)
	assert.Equal(t, time.Hour, c.airportsTTL)
}

func TestRedisCache_UnreachableServer(t *testing.T) {
	client := NewClient(config.RedisConfig{Addr: "127.0.0.1:1"})
	defer client.Close()
	c := NewRedisCache(client, time.Minute, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	flights, err := c.GetFlights(ctx)
	require.Error(t, err)
	assert.Nil(t, flights)
}
