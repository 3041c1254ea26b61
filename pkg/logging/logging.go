// Package logging builds the zap loggers used across the engine.
package logging

import (
	"go.uber.org/zap"
)

// Config holds logging configuration.
type Config struct {
	Level       string            `yaml:"level" json:"level"`
	Format      string            `yaml:"format" json:"format"` // "json" or "console"
	OutputPath  string            `yaml:"output_path" json:"output_path"`
	Fields      map[string]string `yaml:"fields" json:"fields"`
	Development bool              `yaml:"development" json:"development"`
}

// NewLogger creates a structured logger from config.
func NewLogger(config Config) (*zap.Logger, error) {
	var zapConfig zap.Config
	if config.Development {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	level, err := zap.ParseAtomicLevel(config.Level)
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zapConfig.Level = level

	if config.Format == "console" {
		zapConfig.Encoding = "console"
	} else {
		zapConfig.Encoding = "json"
	}

	if config.OutputPath != "" {
		zapConfig.OutputPaths = []string{config.OutputPath}
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	fields := make([]zap.Field, 0, len(config.Fields))
	for k, v := range config.Fields {
		fields = append(fields, zap.String(k, v))
	}
	return logger.With(fields...), nil
}

// NewDefaultLogger creates a JSON info-level logger tagged with the service
// name, falling back to zap's production logger.
func NewDefaultLogger() *zap.Logger {
	logger, err := NewLogger(Config{
		Level:  "info",
		Format: "json",
		Fields: map[string]string{"service": "steelframe"},
	})
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// WithFields returns a child logger carrying the given fields.
func WithFields(l *zap.Logger, fields map[string]interface{}) *zap.Logger {
	zapFields := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zapFields = append(zapFields, zap.Any(k, v))
	}
	return OrNop(l).With(zapFields...)
}

// LogDataIntegrity logs a recoverable data problem with a part: the part
// renders without geometry but the scene carries on.
func LogDataIntegrity(l *zap.Logger, entity, issue string, fields ...zap.Field) {
	all := append([]zap.Field{
		zap.String("entity", entity),
		zap.String("issue", issue),
		zap.String("type", "data_integrity"),
	}, fields...)
	OrNop(l).Warn("Data integrity issue", all...)
}
