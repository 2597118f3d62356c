package logger

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a new zap logger based on the configuration.
func New(cfg *Config) (*zap.Logger, error) {
	var config zap.Config

	if cfg.Level == "debug" {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
		if lvl, err := zapcore.ParseLevel(cfg.Level); err == nil {
			config.Level = zap.NewAtomicLevelAt(lvl)
		}
	}

	if cfg.Format == "console" {
		config.Encoding = "console"
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		config.DisableStacktrace = true
	} else {
		config.Encoding = "json"
	}

	config.EncoderConfig.LevelKey = "level"
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.MessageKey = "message"

	return config.Build()
}

// ScanFields is the subset of a scan job a log line is tagged with.
type ScanFields interface {
	DatasetID() string
	UIDToken() string
}

// ForScan returns a logger tagged with the scan's dataset id and uid.
func ForScan(l *zap.Logger, scan ScanFields) *zap.Logger {
	return l.With(zap.String("scan", scan.DatasetID()), zap.String("uid", scan.UIDToken()))
}

// ForDevice returns a logger tagged with the worker's compute device.
// A negative index means the engine picks its own devices and no field is added.
func ForDevice(l *zap.Logger, device int) *zap.Logger {
	if device < 0 {
		return l
	}
	return l.With(zap.Int("device", device))
}

// WithRayID returns a logger with the ray_id field set from the Fiber context.
func WithRayID(l *zap.Logger, c *fiber.Ctx) *zap.Logger {
	rid := c.Locals("ray_id")
	if str, ok := rid.(string); ok && str != "" {
		return l.With(zap.String("ray_id", str))
	}
	return l
}
