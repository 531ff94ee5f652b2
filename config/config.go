package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Neo4jConfig holds graph store configuration
type Neo4jConfig struct {
	URI                   string
	Username              string
	Password              string
	Database              string
	MaxPoolSize           int
	AcquireTimeout        time.Duration
	MaxConnectionLifetime time.Duration
	QueryTimeout          time.Duration
}

type AuthConfig struct {
	JWTSecret    string
	JWTExpiry    time.Duration
	CookieName   string
	CookieSecure bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type MediaConfig struct {
	Endpoint       string
	AccessKey      string
	SecretKey      string
	Bucket         string
	UseSSL         bool
	PublicURL      string
	MaxUploadBytes int64
}

type LogConfig struct {
	Level  string
	Format string
}

type Config struct {
	HTTPPort       string
	GRPCHealthPort string
	CORSOrigins    []string
	Neo4j          Neo4jConfig
	Auth           AuthConfig
	NATSURL        string
	Redis          RedisConfig
	Media          MediaConfig
	Log            LogConfig
}

// SetDefaults registers every key with its default so AutomaticEnv can
// resolve it.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("GRPC_HEALTH_PORT", "50051")
	v.SetDefault("CORS_ORIGINS", "*")

	v.SetDefault("NEO4J_URI", "neo4j://localhost:7687")
	v.SetDefault("NEO4J_USERNAME", "neo4j")
	v.SetDefault("NEO4J_PASSWORD", "")
	v.SetDefault("NEO4J_DATABASE", "neo4j")
	v.SetDefault("NEO4J_MAX_POOL_SIZE", 50)
	v.SetDefault("NEO4J_ACQUIRE_TIMEOUT", 30*time.Second)
	v.SetDefault("NEO4J_MAX_CONN_LIFETIME", time.Hour)
	v.SetDefault("NEO4J_QUERY_TIMEOUT", 15*time.Second)

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_EXPIRY", 72*time.Hour)
	v.SetDefault("AUTH_COOKIE_NAME", "token")
	v.SetDefault("AUTH_COOKIE_SECURE", false)

	v.SetDefault("NATS_URL", "")

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("MEDIA_ENDPOINT", "")
	v.SetDefault("MEDIA_ACCESS_KEY", "")
	v.SetDefault("MEDIA_SECRET_KEY", "")
	v.SetDefault("MEDIA_BUCKET", "we-share-media")
	v.SetDefault("MEDIA_USE_SSL", false)
	v.SetDefault("MEDIA_PUBLIC_URL", "")
	v.SetDefault("MEDIA_MAX_UPLOAD_BYTES", 10<<20)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

// Load reads configuration from v, which is expected to have environment
// binding and any command line flags already attached.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		HTTPPort:       v.GetString("HTTP_PORT"),
		GRPCHealthPort: v.GetString("GRPC_HEALTH_PORT"),
		CORSOrigins:    splitList(v.GetString("CORS_ORIGINS")),
		Neo4j: Neo4jConfig{
			URI:                   v.GetString("NEO4J_URI"),
			Username:              v.GetString("NEO4J_USERNAME"),
			Password:              v.GetString("NEO4J_PASSWORD"),
			Database:              v.GetString("NEO4J_DATABASE"),
			MaxPoolSize:           v.GetInt("NEO4J_MAX_POOL_SIZE"),
			AcquireTimeout:        v.GetDuration("NEO4J_ACQUIRE_TIMEOUT"),
			MaxConnectionLifetime: v.GetDuration("NEO4J_MAX_CONN_LIFETIME"),
			QueryTimeout:          v.GetDuration("NEO4J_QUERY_TIMEOUT"),
		},
		Auth: AuthConfig{
			JWTSecret:    v.GetString("JWT_SECRET"),
			JWTExpiry:    v.GetDuration("JWT_EXPIRY"),
			CookieName:   v.GetString("AUTH_COOKIE_NAME"),
			CookieSecure: v.GetBool("AUTH_COOKIE_SECURE"),
		},
		NATSURL: v.GetString("NATS_URL"),
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Media: MediaConfig{
			Endpoint:       v.GetString("MEDIA_ENDPOINT"),
			AccessKey:      v.GetString("MEDIA_ACCESS_KEY"),
			SecretKey:      v.GetString("MEDIA_SECRET_KEY"),
			Bucket:         v.GetString("MEDIA_BUCKET"),
			UseSSL:         v.GetBool("MEDIA_USE_SSL"),
			PublicURL:      strings.TrimRight(v.GetString("MEDIA_PUBLIC_URL"), "/"),
			MaxUploadBytes: v.GetInt64("MEDIA_MAX_UPLOAD_BYTES"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// New returns a viper instance bound to the environment with defaults set.
func New() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

func (c *Config) validate() error {
	var errs []error
	if c.Neo4j.URI == "" {
		errs = append(errs, errors.New("NEO4J_URI is required"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Auth.JWTExpiry <= 0 {
		errs = append(errs, fmt.Errorf("JWT_EXPIRY must be positive, got %v", c.Auth.JWTExpiry))
	}
	if c.Neo4j.QueryTimeout <= 0 {
		errs = append(errs, fmt.Errorf("NEO4J_QUERY_TIMEOUT must be positive, got %v", c.Neo4j.QueryTimeout))
	}
	if c.Media.Endpoint != "" && c.Media.PublicURL == "" {
		errs = append(errs, errors.New("MEDIA_PUBLIC_URL is required when MEDIA_ENDPOINT is set"))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
