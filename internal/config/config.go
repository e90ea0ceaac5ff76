package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	TransportSOAP = "soap"
	TransportREST = "rest"

	defaultEnvFile       = "configs/.env"
	defaultStoreFile     = "configs/store.yaml"
	defaultSOAPEndpoint  = "https://ws.taxify.co/taxify/1.0/core/service.asmx"
	defaultSOAPNamespace = "https://ws.taxify.co/"
	defaultRESTEndpoint  = "https://ws.taxify.co/taxify/1.1/core/JSONService.asmx"
	defaultNATSSubject   = "taxsync.order.events"
	defaultRetryCron     = "@every 1m"
)

// Config is the process-wide configuration assembled at startup.
type Config struct {
	AppEnv   string
	LogLevel string
	Port     string

	Database  DatabaseConfig
	Taxify    TaxifyConfig
	Store     StoreConfig
	Retry     RetryConfig
	NATS      NATSConfig
	JWTSecret string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN renders the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.Name + "?sslmode=" + d.SSLMode
}

type TaxifyConfig struct {
	PartnerKey    string
	APIKey        string
	Transport     string
	SOAPEndpoint  string
	SOAPNamespace string
	RESTEndpoint  string
	StorePrefix   string
	HTTPTimeout   time.Duration
	DebugLog      bool
}

type StoreConfig struct {
	URL              string
	SettingsFile     string
	TaxExemptEnabled bool
}

type RetryConfig struct {
	Cron       string
	RatePerSec float64
}

type NATSConfig struct {
	URL     string
	Subject string
}

// Option customises how Load resolves values.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the dotenv file path. An empty path disables it.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap supplies values that take precedence over every other source.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv ignores the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load reads configs/.env (if present) and the environment into a Config.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{envFile: defaultEnvFile, useSystemEnv: true}
	for _, opt := range opts {
		opt(&options)
	}

	fileValues := map[string]string{}
	if options.envFile != "" {
		values, err := godotenv.Read(options.envFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read %s: %w", options.envFile, err)
		}
		if values != nil {
			fileValues = values
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := options.envMap[key]; ok {
			return v, true
		}
		if options.useSystemEnv {
			if v, ok := os.LookupEnv(key); ok {
				return v, true
			}
		}
		v, ok := fileValues[key]
		return v, ok
	}

	cfg := Config{
		AppEnv:   stringWithDefault(lookup, "APP_ENV", "development"),
		LogLevel: stringWithDefault(lookup, "LOG_LEVEL", "info"),
		Port:     stringWithDefault(lookup, "PORT", "8080"),
		Database: DatabaseConfig{
			Host:     stringWithDefault(lookup, "DB_HOST", "localhost"),
			Port:     stringWithDefault(lookup, "DB_PORT", "5432"),
			User:     stringWithDefault(lookup, "DB_USER", "postgres"),
			Password: stringWithDefault(lookup, "DB_PASSWORD", "postgres"),
			Name:     stringWithDefault(lookup, "DB_NAME", "postgres"),
			SSLMode:  stringWithDefault(lookup, "DB_SSLMODE", "disable"),
		},
		Taxify: TaxifyConfig{
			PartnerKey:    stringWithDefault(lookup, "TAXIFY_PARTNER_KEY", ""),
			APIKey:        stringWithDefault(lookup, "TAXIFY_API_KEY", ""),
			Transport:     strings.ToLower(stringWithDefault(lookup, "TAXIFY_TRANSPORT", TransportSOAP)),
			SOAPEndpoint:  stringWithDefault(lookup, "TAXIFY_SOAP_ENDPOINT", defaultSOAPEndpoint),
			SOAPNamespace: stringWithDefault(lookup, "TAXIFY_SOAP_NAMESPACE", defaultSOAPNamespace),
			RESTEndpoint:  stringWithDefault(lookup, "TAXIFY_REST_ENDPOINT", defaultRESTEndpoint),
			StorePrefix:   stringWithDefault(lookup, "TAXIFY_STORE_PREFIX", ""),
			HTTPTimeout:   durationWithDefault(lookup, "HTTP_TIMEOUT", 30*time.Second),
			DebugLog:      yesNo(lookup, "TAXIFY_DEBUG_LOG"),
		},
		Store: StoreConfig{
			URL:              stringWithDefault(lookup, "STORE_URL", "localhost"),
			SettingsFile:     stringWithDefault(lookup, "STORE_SETTINGS_FILE", defaultStoreFile),
			TaxExemptEnabled: yesNo(lookup, "TAXIFY_TAX_EXEMPT_ENABLED"),
		},
		Retry: RetryConfig{
			Cron:       stringWithDefault(lookup, "RETRY_CRON", defaultRetryCron),
			RatePerSec: floatWithDefault(lookup, "RETRY_RATE_PER_SEC", 1),
		},
		NATS: NATSConfig{
			URL:     stringWithDefault(lookup, "NATS_URL", ""),
			Subject: stringWithDefault(lookup, "NATS_SUBJECT", defaultNATSSubject),
		},
		JWTSecret: stringWithDefault(lookup, "JWT_SECRET", ""),
	}

	if cfg.Taxify.StorePrefix == "" {
		cfg.Taxify.StorePrefix = StorePrefixFromURL(cfg.Store.URL)
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// StorePrefixFromURL strips the scheme and trailing slash from a store URL.
func StorePrefixFromURL(url string) string {
	prefix := strings.TrimPrefix(strings.TrimPrefix(url, "https://"), "http://")
	return strings.TrimSuffix(prefix, "/")
}

func validate(cfg Config) error {
	switch cfg.Taxify.Transport {
	case TransportSOAP, TransportREST:
	default:
		return fmt.Errorf("TAXIFY_TRANSPORT must be %q or %q, got %q", TransportSOAP, TransportREST, cfg.Taxify.Transport)
	}
	if cfg.AppEnv == "production" && cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required in production")
	}
	if cfg.Retry.RatePerSec <= 0 {
		return fmt.Errorf("RETRY_RATE_PER_SEC must be positive, got %v", cfg.Retry.RatePerSec)
	}
	return nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func floatWithDefault(lookup func(string) (string, bool), key string, fallback float64) float64 {
	if v, ok := lookup(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// yesNo treats "yes", "true" and "1" as enabled.
func yesNo(lookup func(string) (string, bool), key string) bool {
	v, _ := lookup(key)
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "true", "1":
		return true
	}
	return false
}
