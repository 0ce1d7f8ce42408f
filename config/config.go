package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces environment overrides, e.g. FLIGHTDESK_DATABASE_PASSWORD.
const EnvPrefix = "FLIGHTDESK"

type Config struct {
	HTTP     HTTPConfig     `yaml:"http" envconfig:"http"`
	Database DatabaseConfig `yaml:"database" envconfig:"database"`
	Redis    RedisConfig    `yaml:"redis" envconfig:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka" envconfig:"kafka"`
	Identity IdentityConfig `yaml:"identity" envconfig:"identity"`
	Email    EmailConfig    `yaml:"email" envconfig:"email"`
	Booking  BookingConfig  `yaml:"booking" envconfig:"booking"`
	Relay    RelayConfig    `yaml:"relay" envconfig:"relay"`
	Worker   WorkerConfig   `yaml:"worker" envconfig:"worker"`
	Log      LogConfig      `yaml:"log" envconfig:"log"`
}

type HTTPConfig struct {
	Address    string `yaml:"address" split_words:"true"`
	SwaggerDir string `yaml:"swagger_dir" split_words:"true"`
}

type DatabaseConfig struct {
	Host        string `yaml:"host" split_words:"true"`
	Port        int    `yaml:"port" split_words:"true"`
	User        string `yaml:"user" split_words:"true"`
	Password    string `yaml:"password" split_words:"true"`
	Name        string `yaml:"name" split_words:"true"`
	SSLMode     string `yaml:"ssl_mode" split_words:"true"`
	AutoMigrate bool   `yaml:"auto_migrate" split_words:"true"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr" split_words:"true"`
	Password string `yaml:"password" split_words:"true"`
	DB       int    `yaml:"db" split_words:"true"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers" split_words:"true"`
	BookingEventsTopic string   `yaml:"booking_events_topic" split_words:"true"`
	NotificationsTopic string   `yaml:"notifications_topic" split_words:"true"`
	GroupID            string   `yaml:"group_id" split_words:"true"`
}

type IdentityConfig struct {
	URL              string `yaml:"url" split_words:"true"`
	AnonKey          string `yaml:"anon_key" split_words:"true"`
	ServiceKey       string `yaml:"service_key" split_words:"true"`
	TimeoutSeconds   int    `yaml:"timeout_seconds" split_words:"true"`
	BreakerThreshold int64  `yaml:"breaker_threshold" split_words:"true"`
}

const (
	DeliveryDirect = "direct"
	DeliveryKafka  = "kafka"
)

type EmailConfig struct {
	Host     string `yaml:"host" split_words:"true"`
	Port     int    `yaml:"port" split_words:"true"`
	Username string `yaml:"username" split_words:"true"`
	Password string `yaml:"password" split_words:"true"`
	Sender   string `yaml:"sender" split_words:"true"`
	// Delivery is "direct" (SMTP from the API process) or "kafka" (queued for the worker).
	Delivery string `yaml:"delivery" split_words:"true"`
}

type BookingConfig struct {
	FlightsCacheTTL  int    `yaml:"flights_cache_ttl_seconds" split_words:"true"`
	AirportsCacheTTL int    `yaml:"airports_cache_ttl_seconds" split_words:"true"`
	SearchTimezone   string `yaml:"search_timezone" split_words:"true"`
}

type RelayConfig struct {
	BufferSize int `yaml:"buffer_size" split_words:"true"`
	// RedisChannel enables cross-instance broadcast when set.
	RedisChannel string `yaml:"redis_channel" split_words:"true"`
}

type WorkerConfig struct {
	CompletionSweepMinutes int `yaml:"completion_sweep_minutes" split_words:"true"`
}

type LogConfig struct {
	Level  string `yaml:"level" split_words:"true"`
	Format string `yaml:"format" split_words:"true"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply env overrides: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Kafka.BookingEventsTopic == "" {
		c.Kafka.BookingEventsTopic = "booking_events"
	}
	if c.Kafka.NotificationsTopic == "" {
		c.Kafka.NotificationsTopic = "notifications"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "flightdesk-worker"
	}
	if c.Identity.TimeoutSeconds == 0 {
		c.Identity.TimeoutSeconds = 10
	}
	if c.Identity.BreakerThreshold == 0 {
		c.Identity.BreakerThreshold = 5
	}
	if c.Email.Port == 0 {
		c.Email.Port = 587
	}
	if c.Email.Delivery == "" {
		c.Email.Delivery = DeliveryDirect
	}
	if c.Booking.FlightsCacheTTL == 0 {
		c.Booking.FlightsCacheTTL = 60
	}
	if c.Booking.AirportsCacheTTL == 0 {
		c.Booking.AirportsCacheTTL = 3600
	}
	if c.Booking.SearchTimezone == "" {
		c.Booking.SearchTimezone = "UTC"
	}
	if c.Relay.BufferSize == 0 {
		c.Relay.BufferSize = 32
	}
	if c.Worker.CompletionSweepMinutes == 0 {
		c.Worker.CompletionSweepMinutes = 5
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

func (c *Config) Validate() error {
	switch c.Email.Delivery {
	case DeliveryDirect, DeliveryKafka:
	default:
		return fmt.Errorf("email.delivery must be %q or %q, got %q", DeliveryDirect, DeliveryKafka, c.Email.Delivery)
	}
	if c.Email.Delivery == DeliveryKafka && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("email.delivery %q requires kafka.brokers", DeliveryKafka)
	}
	if c.Identity.URL == "" {
		return fmt.Errorf("identity.url is required")
	}
	return nil
}
