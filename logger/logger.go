package logger

import (
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"
)

var (
	log *zap.Logger

	// Transport failures are swallowed by design, so the only trace they
	// leave is a diagnostic record. A flapping Loki endpoint would otherwise
	// produce one record per flush interval; the limiter caps the noise.
	failureLimiter = rate.NewLimiter(rate.Every(10*time.Second), 5)
)

func init() {
	Initialize()
}

// Initialize sets up the diagnostic logger based on environment configuration.
func Initialize() {
	logFormat := getEnvOrDefault("LOG_FORMAT", "console")
	logLevel := getEnvOrDefault("LOG_LEVEL", "info")
	environment := getEnvOrDefault("ENV", "development")

	var config zapcore.EncoderConfig
	var encoder zapcore.Encoder

	if environment == "production" {
		config = zap.NewProductionEncoderConfig()
		config.TimeKey = "timestamp"
		config.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewDevelopmentEncoderConfig()
		config.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	}

	if logFormat == "json" {
		encoder = zapcore.NewJSONEncoder(config)
	} else {
		encoder = zapcore.NewConsoleEncoder(config)
	}

	var level zapcore.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	core := zapcore.NewCore(
		encoder,
		zapcore.AddSync(os.Stdout),
		level,
	)

	log = zap.New(core)
}

// Diag returns the diagnostic logger.
func Diag() *zap.Logger {
	return log
}

// SetLogger replaces the diagnostic logger. Used by tests to observe output.
func SetLogger(l *zap.Logger) {
	log = l
}

// ReportTransportFailure records a swallowed transport failure. The batch is
// already gone at this point; never propagate.
func ReportTransportFailure(err error, batchSize int) {
	if !failureLimiter.Allow() {
		return
	}
	log.Error("loki push failed, batch dropped",
		zap.Error(err),
		zap.Int("batch_size", batchSize),
	)
}

// Echo prints one entry locally in the form "[A11y LEVEL] message" with the
// entry's labels as structured context. Used when the remote sink is disabled
// in development.
func Echo(level, message string, labels map[string]interface{}) {
	fields := make([]zap.Field, 0, len(labels))
	for k, v := range labels {
		fields = append(fields, zap.Any(k, v))
	}

	msg := "[A11y " + strings.ToUpper(level) + "] " + message
	switch strings.ToLower(level) {
	case "error":
		log.Error(msg, fields...)
	case "warn":
		log.Warn(msg, fields...)
	default:
		log.Info(msg, fields...)
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
