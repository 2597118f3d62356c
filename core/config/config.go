package config

import (
	"errors"
	"reflect"
	"strings"

	"disc3d-batch/core/database"
	"disc3d-batch/core/engine"
	"disc3d-batch/core/logger"
	"disc3d-batch/core/server"
	"disc3d-batch/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileName is the optional config file looked up in the config directory.
const FileName = "disc3d"

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Pipeline holds the batch reconstruction settings.
	Pipeline Pipeline `mapstructure:"pipeline"`
	// Engine holds how the photogrammetry engine is launched.
	Engine engine.Config `mapstructure:"engine"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Storage holds configuration for the artifact archive (S3, MinIO).
	Storage storage.Config `mapstructure:"storage"`
	// Database holds configuration for the run ledger.
	Database database.Config `mapstructure:"database"`
	// Server holds configuration for the status server.
	Server server.Config `mapstructure:"server"`
}

// LoadConfig loads configuration from disc3d.yaml, a .env file and environment
// variables, in increasing precedence.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	// Map environment variables to nested keys (e.g. PIPELINE_F_PX -> pipeline.f_px)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
