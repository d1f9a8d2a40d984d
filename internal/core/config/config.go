package config

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/spf13/viper"
)

// AppConfig holds the configuration for the application.
// Tags used:
// - mapstructure: used by viper to unmarshal
// - default: default value to set if missing
// - required: if "true", error if missing
type AppConfig struct {
	// Environment specifies the runtime environment (e.g., development, production).
	Environment string `mapstructure:"APP_ENV" default:"development"`
	// LogLevel defines the logging verbosity (e.g., debug, info, error).
	LogLevel string `mapstructure:"LOG_LEVEL" default:"info"`
	// ServerPort is the port where the server will listen.
	ServerPort int `mapstructure:"SERVER_PORT" default:"8080" required:"true"`

	// Storage holds the local snapshot and seeding configuration.
	Storage StorageConfig `mapstructure:",squash"`

	// Realtime holds the broadcaster configuration.
	Realtime RealtimeConfig `mapstructure:",squash"`

	// External holds the optional external database backend.
	External ExternalConfig `mapstructure:",squash"`
}

// StorageConfig controls where snapshots are written.
type StorageConfig struct {
	// DataDir is the process-local directory holding packages.json and users.json.
	DataDir string `mapstructure:"DATA_DIR" default:"data"`
	// SeedSQLPath points at the optional SQL seed file reported by the seeding operation.
	SeedSQLPath string `mapstructure:"SEED_SQL_PATH" default:"db/seed.sql"`
}

// RealtimeConfig controls event history and external relays.
type RealtimeConfig struct {
	// HistoryLimit bounds the in-memory event history.
	HistoryLimit int `mapstructure:"EVENT_HISTORY_LIMIT" default:"1000"`
	// RedisURL enables the Redis relay when set (redis://[:password@]host[:port][/db]).
	RedisURL string `mapstructure:"REDIS_URL"`
	// KafkaBrokers is a comma separated broker list; enables the Kafka relay when set.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// KafkaTopic is the topic events are relayed to.
	KafkaTopic string `mapstructure:"KAFKA_TOPIC" default:"courier.events"`
}

// ExternalConfig holds the credentials of the optional external backend.
type ExternalConfig struct {
	// URL is either an http(s) REST endpoint or a postgres:// DSN.
	URL string `mapstructure:"EXTERNAL_DB_URL"`
	// Key is the API key (REST) or password (postgres).
	Key string `mapstructure:"EXTERNAL_DB_KEY"`
	// TimeoutSeconds bounds every request to the backend.
	TimeoutSeconds int `mapstructure:"EXTERNAL_DB_TIMEOUT_SECONDS" default:"10"`
}

// Enabled reports whether both external settings are present.
func (e ExternalConfig) Enabled() bool {
	return e.URL != "" && e.Key != ""
}

// Scheme returns the lower-cased URL scheme of the backend, or "" if unparsable.
func (e ExternalConfig) Scheme() string {
	u, err := url.Parse(e.URL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Scheme)
}

// Brokers splits KafkaBrokers into a clean list.
func (r RealtimeConfig) Brokers() []string {
	var out []string
	for _, b := range strings.Split(r.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// Load loads configuration from .env files and environment variables.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.AutomaticEnv()

	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config AppConfig

	if err := processTags(v, &config); err != nil {
		return nil, err
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := validateRequired(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// processTags iterates over the struct fields, binds env keys and sets default values in Viper.
func processTags(v *viper.Viper, config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := processTags(v, val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		key := field.Tag.Get("mapstructure")
		defaultValue := field.Tag.Get("default")

		if key != "" {
			if err := v.BindEnv(key); err != nil {
				return fmt.Errorf("failed to bind env %s: %w", key, err)
			}
		}

		if key != "" && defaultValue != "" {
			v.SetDefault(key, defaultValue)
		}
	}
	return nil
}

// validateRequired checks if fields marked as required have non-zero values.
func validateRequired(config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := validateRequired(val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		if field.Tag.Get("required") == "true" && isZero(val.Field(i)) {
			return fmt.Errorf("missing required configuration: %s", field.Tag.Get("mapstructure"))
		}
	}
	return nil
}

// isZero checks if a reflect.Value is the zero value for its type.
func isZero(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return v.String() == ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	default:
		return v.IsZero()
	}
}
