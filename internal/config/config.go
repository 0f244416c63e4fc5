// Package config assembles the application configuration from command line
// flags, environment variables, an optional JSON config file and built-in
// defaults, in that order of priority.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds every tunable of the application.
type Config struct {
	RunAddr                    string        `env:"SERVER_ADDRESS" json:"server_address" validate:"hostname_port"`
	ShortURLBase               string        `env:"BASE_URL" json:"base_url" validate:"url"`
	LogLevel                   string        `env:"LOG_LEVEL" json:"log_level" validate:"loglevel"`
	DBFileName                 string        `env:"FILE_STORAGE_PATH" json:"file_storage_path" validate:"filepath"`
	DatabaseDSN                string        `env:"DATABASE_DSN" json:"database_dsn"`
	DBConnectionTimeout        time.Duration `env:"DB_CONNECTION_TIMEOUT" json:"-"`
	MigrationsDir              string        `env:"MIGRATIONS_DIR" json:"migrations_dir"`
	AuthCookieName             string        `env:"AUTH_COOKIE_NAME" json:"auth_cookie_name"`
	AuthCookieSigningSecretKey string        `env:"AUTH_COOKIE_SIGNING_SECRET_KEY" json:"auth_cookie_signing_secret_key"`
	SessionTTL                 time.Duration `env:"SESSION_TTL" json:"-"`
	TrustedSubnet              string        `env:"TRUSTED_SUBNET" json:"trusted_subnet"`
	VisitChannelCapacity       int           `env:"VISIT_CHANNEL_CAPACITY" json:"visit_channel_capacity"`
	DelayBetweenVisitFlushes   time.Duration `env:"DELAY_BETWEEN_VISIT_FLUSHES" json:"-"`
}

var defaultConfig = Config{
	RunAddr:                    ":8080",
	ShortURLBase:               "http://localhost:8080",
	LogLevel:                   "info",
	DBConnectionTimeout:        10 * time.Second,
	MigrationsDir:              "cmd/tinyapp/migrations",
	AuthCookieName:             "tinyapp_session",
	AuthCookieSigningSecretKey: "c3VwZXJzZWNyZXRrZXk=",
	SessionTTL:                 24 * time.Hour,
	VisitChannelCapacity:       64,
	DelayBetweenVisitFlushes:   5 * time.Second,
}

// applyDefaults copies every field of defaults into cfg that cfg has not set
// yet. Calling it repeatedly with sources of decreasing priority merges them.
func applyDefaults(cfg *Config, defaults Config) {
	if cfg.RunAddr == "" {
		cfg.RunAddr = defaults.RunAddr
	}
	if cfg.ShortURLBase == "" {
		cfg.ShortURLBase = defaults.ShortURLBase
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaults.LogLevel
	}
	if cfg.DBFileName == "" {
		cfg.DBFileName = defaults.DBFileName
	}
	if cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = defaults.DatabaseDSN
	}
	if cfg.DBConnectionTimeout == 0 {
		cfg.DBConnectionTimeout = defaults.DBConnectionTimeout
	}
	if cfg.MigrationsDir == "" {
		cfg.MigrationsDir = defaults.MigrationsDir
	}
	if cfg.AuthCookieName == "" {
		cfg.AuthCookieName = defaults.AuthCookieName
	}
	if cfg.AuthCookieSigningSecretKey == "" {
		cfg.AuthCookieSigningSecretKey = defaults.AuthCookieSigningSecretKey
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = defaults.SessionTTL
	}
	if cfg.TrustedSubnet == "" {
		cfg.TrustedSubnet = defaults.TrustedSubnet
	}
	if cfg.VisitChannelCapacity == 0 {
		cfg.VisitChannelCapacity = defaults.VisitChannelCapacity
	}
	if cfg.DelayBetweenVisitFlushes == 0 {
		cfg.DelayBetweenVisitFlushes = defaults.DelayBetweenVisitFlushes
	}
}

func validateFilePath(fieldLevel validator.FieldLevel) bool {
	path := fieldLevel.Field().String()
	if path == "" {
		return true
	}
	_, err := os.Stat(path)

	return err == nil || os.IsNotExist(err)
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowedLogLevels[value]
}

func (cfg *Config) validate() error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	err = validate.RegisterValidation("filepath", validateFilePath)
	if err != nil {
		return err
	}

	return validate.Struct(cfg)
}

// InitOption customizes New.
type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

// WithDisableFlagsParsing skips command line parsing, which tests rely on.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

func parseConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, cfg)
}

// New builds the configuration. Sources are merged with the priority
// flags > environment > JSON config file > defaults. The config file path
// itself comes from the -c flag or the CONFIG environment variable.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("Unable to load .env file: %v", err)
	}

	flagValues := Config{}
	configFile := ""
	if !options.disableFlagsParsing {
		flags := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
		flags.StringVar(&flagValues.RunAddr, "a", "", "address and port to run server")
		flags.StringVar(&flagValues.ShortURLBase, "b", "", "base address of the resulting shortened URL")
		flags.StringVar(&flagValues.LogLevel, "l", "", "logger level")
		flags.StringVar(&flagValues.DBFileName, "f", "", "JSON file name with database")
		flags.StringVar(&flagValues.DatabaseDSN, "d", "", "a string with the database connection details")
		flags.StringVar(&flagValues.TrustedSubnet, "t", "", "CIDR of the subnet allowed to query internal stats")
		flags.StringVar(&flagValues.AuthCookieSigningSecretKey, "s", "", "base64-encoded key used to sign session cookies")
		flags.StringVar(&configFile, "c", "", "path to a JSON config file")
		if err := flags.Parse(os.Args[1:]); err != nil {
			return nil, err
		}
	}

	envValues := Config{}
	if err := env.Parse(&envValues); err != nil {
		return nil, err
	}

	if configFile == "" {
		configFile = os.Getenv("CONFIG")
	}
	jsonValues := Config{}
	if configFile != "" {
		if err := parseConfigFile(configFile, &jsonValues); err != nil {
			return nil, err
		}
	}

	result := &Config{}
	applyDefaults(result, flagValues)
	applyDefaults(result, envValues)
	applyDefaults(result, jsonValues)
	applyDefaults(result, defaultConfig)

	if err := result.validate(); err != nil {
		return nil, err
	}

	return result, nil
}
