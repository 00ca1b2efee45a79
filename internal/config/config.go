package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all the configuration for the application. Business logic
// never reads ambient process state; everything flows through this struct.
type Config struct {
	Env          string `yaml:"env" env:"ENV" env-default:"production"`
	HTTPServer   `yaml:"http_server"`
	Database     `yaml:"database"`
	Redis        `yaml:"redis"`
	URLShortener `yaml:"url_shortener"`
	Geo          `yaml:"geo"`
	Heartbeat    `yaml:"heartbeat"`
	Auth         `yaml:"auth"`
}

// HTTPServer holds HTTP server specific configuration.
type HTTPServer struct {
	Port         int           `yaml:"port" env:"HTTP_SERVER_PORT" env-default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"30s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

// Database holds PostgreSQL connection configuration.
type Database struct {
	Host            string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port            int    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User            string `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password        string `yaml:"password" env:"DB_PASSWORD"`
	DBName          string `yaml:"dbname" env:"DB_NAME" env-default:"shortclick"`
	SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`
	Timezone        string `yaml:"timezone" env:"DB_TIMEZONE" env-default:"UTC"`
	MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"100"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"1h"`
	AutoMigrate     bool   `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" env-default:"true"`
}

// Redis holds cache store configuration. An empty address switches the
// service to the in-process cache.
type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// URLShortener holds service-specific configuration.
type URLShortener struct {
	ShortIDLength int           `yaml:"short_id_length" env:"SHORT_ID_LENGTH" env-default:"4"`
	BaseURL       string        `yaml:"base_url" env:"BASE_URL" env-default:"http://localhost:8080"`
	CacheTTL      time.Duration `yaml:"cache_ttl" env:"CACHE_TTL" env-default:"30m"`
}

// Geo holds IP geolocation provider configuration.
type Geo struct {
	APIURL  string        `yaml:"api_url" env:"GEO_API_URL" env-default:"https://api.weatherapi.com/v1/ip.json"`
	APIKey  string        `yaml:"api_key" env:"GEO_API_KEY"`
	Timeout time.Duration `yaml:"timeout" env:"GEO_TIMEOUT" env-default:"5s"`
}

// Heartbeat holds keepalive self-ping configuration.
type Heartbeat struct {
	Enabled  bool          `yaml:"enabled" env:"HEARTBEAT_ENABLED" env-default:"false"`
	URL      string        `yaml:"url" env:"HEARTBEAT_URL"`
	Interval time.Duration `yaml:"interval" env:"HEARTBEAT_INTERVAL" env-default:"10m"`
}

// Auth holds JWT validation configuration for the identity boundary.
type Auth struct {
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	Issuer    string `yaml:"issuer" env:"JWT_ISSUER" env-default:"shortClick"`
}

// MustLoad loads the application configuration.
func MustLoad() *Config {
	// Try to load .env file (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment variables")
	}

	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/local.yml" // default path
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			log.Fatalf("cannot read config: %s", err)
		}
	} else {
		log.Println("Config file not found, using environment variables only")
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("cannot read config from environment: %s", err)
		}
	}

	return &cfg
}
