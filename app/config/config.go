// Package config loads the server configuration: defaults, then an optional
// YAML file, then environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"cardboard/app/pagination"
	"cardboard/app/storage"

	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	StoreBadger = "badger"
	StoreMongo  = "mongo"
)

// Config is the full server configuration.
type Config struct {
	Addr          string `yaml:"addr"`
	Store         string `yaml:"store"`
	BadgerPath    string `yaml:"badger_path"`
	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`
	PerPage       int    `yaml:"per_page"`
	LogLevel      string `yaml:"log_level"`
	LogFormat     string `yaml:"log_format"`
	OTLPEndpoint  string `yaml:"otlp_endpoint"`

	Uploads    Uploads    `yaml:"uploads"`
	TitleProbe TitleProbe `yaml:"title_probe"`
}

// Uploads configures where card images go.
type Uploads struct {
	Driver string `yaml:"driver"`
	Dir    string `yaml:"dir"`
	MaxMB  int    `yaml:"max_mb"`
	S3     S3     `yaml:"s3"`
}

// S3 holds the bucket settings for the s3 upload driver.
type S3 struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// TitleProbe limits the live title availability check per client.
type TitleProbe struct {
	Rate  float64 `yaml:"rate"`
	Burst int     `yaml:"burst"`
	// TrustProxy keys clients on X-Forwarded-For. Only enable it behind a
	// proxy that overwrites the header.
	TrustProxy bool `yaml:"trust_proxy"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Addr:          ":3000",
		Store:         StoreBadger,
		BadgerPath:    "data/badger",
		MongoURI:      "mongodb://localhost:27017",
		MongoDatabase: "board",
		PerPage:       pagination.DefaultConfig().PerPage,
		LogLevel:      "info",
		LogFormat:     "json",
		Uploads: Uploads{
			Driver: "local",
			Dir:    "uploads",
			MaxMB:  10,
			S3:     S3{Bucket: "cards"},
		},
		TitleProbe: TitleProbe{Rate: 5, Burst: 10},
	}
}

// Load builds the configuration. path may be empty, in which case
// CONFIG_FILE is consulted; a missing file is only an error when one was named.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		// #nosec G304 -- path comes from the command line or environment
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %q is not an integer", key, v))
				return
			}
			*dst = n
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %q is not a boolean", key, v))
				return
			}
			*dst = b
		}
	}

	str("APP_ADDR", &c.Addr)
	str("STORE_DRIVER", &c.Store)
	str("BADGER_PATH", &c.BadgerPath)
	str("MONGO_URI", &c.MongoURI)
	str("MONGO_DATABASE", &c.MongoDatabase)
	num("PER_PAGE", &c.PerPage)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	str("OTEL_EXPORTER_OTLP_ENDPOINT", &c.OTLPEndpoint)

	str("UPLOADS_DRIVER", &c.Uploads.Driver)
	str("UPLOADS_DIR", &c.Uploads.Dir)
	num("UPLOADS_MAX_MB", &c.Uploads.MaxMB)
	str("S3_ENDPOINT", &c.Uploads.S3.Endpoint)
	str("S3_ACCESS_KEY", &c.Uploads.S3.AccessKey)
	str("S3_SECRET_KEY", &c.Uploads.S3.SecretKey)
	str("S3_BUCKET", &c.Uploads.S3.Bucket)
	flag("S3_USE_SSL", &c.Uploads.S3.UseSSL)

	if v, ok := lookup("TITLE_PROBE_RATE"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("TITLE_PROBE_RATE: %q is not a number", v))
		} else {
			c.TitleProbe.Rate = f
		}
	}
	num("TITLE_PROBE_BURST", &c.TitleProbe.Burst)
	flag("TITLE_PROBE_TRUST_PROXY", &c.TitleProbe.TrustProxy)

	return errors.Join(errs...)
}

// Validate reports every invalid key.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	switch c.Store {
	case StoreBadger:
		if c.BadgerPath == "" {
			errs = append(errs, errors.New("badger_path is required for the badger store"))
		}
	case StoreMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("mongo_uri is required for the mongo store"))
		}
		if c.MongoDatabase == "" {
			errs = append(errs, errors.New("mongo_database is required for the mongo store"))
		}
	default:
		errs = append(errs, fmt.Errorf("store must be %q or %q, got %q", StoreBadger, StoreMongo, c.Store))
	}
	if c.PerPage < 1 {
		errs = append(errs, fmt.Errorf("per_page must be positive, got %d", c.PerPage))
	}
	switch c.Uploads.Driver {
	case "local":
		if c.Uploads.Dir == "" {
			errs = append(errs, errors.New("uploads.dir is required for the local driver"))
		}
	case "s3":
		if c.Uploads.S3.Endpoint == "" {
			errs = append(errs, errors.New("uploads.s3.endpoint is required for the s3 driver"))
		}
		if c.Uploads.S3.Bucket == "" {
			errs = append(errs, errors.New("uploads.s3.bucket is required for the s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("uploads.driver must be \"local\" or \"s3\", got %q", c.Uploads.Driver))
	}
	if c.Uploads.MaxMB < 1 {
		errs = append(errs, fmt.Errorf("uploads.max_mb must be positive, got %d", c.Uploads.MaxMB))
	}
	if c.TitleProbe.Rate <= 0 {
		errs = append(errs, errors.New("title_probe.rate must be positive"))
	}
	if c.TitleProbe.Burst < 1 {
		errs = append(errs, errors.New("title_probe.burst must be positive"))
	}
	return errors.Join(errs...)
}

// MaxUploadBytes is the image size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Uploads.MaxMB) << 20
}

// Storage converts the upload settings for storage.New.
func (c *Config) Storage() storage.Config {
	return storage.Config{
		Driver:    c.Uploads.Driver,
		Dir:       c.Uploads.Dir,
		Endpoint:  c.Uploads.S3.Endpoint,
		AccessKey: c.Uploads.S3.AccessKey,
		SecretKey: c.Uploads.S3.SecretKey,
		Bucket:    c.Uploads.S3.Bucket,
		UseSSL:    c.Uploads.S3.UseSSL,
	}
}

// Pagination returns the listing settings.
func (c *Config) Pagination() pagination.Config {
	return pagination.Config{PerPage: c.PerPage}
}
