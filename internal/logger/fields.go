package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Structured field keys shared by every package.
const (
	FieldProvider = "provider"
	FieldModel    = "model"
	FieldUser     = "user"
	FieldTier     = "tier"
	FieldRunID    = "run_id"
	FieldMethod   = "method"
	FieldJobHash  = "job_hash"
)

type StringField struct {
	Key   string
	Value string
}

// StringFields builds zap string fields, trimming both sides and dropping
// pairs where either is blank.
func StringFields(pairs ...StringField) []zap.Field {
	out := make([]zap.Field, 0, len(pairs))
	for _, p := range pairs {
		key, value := strings.TrimSpace(p.Key), strings.TrimSpace(p.Value)
		if key == "" || value == "" {
			continue
		}
		out = append(out, zap.String(key, value))
	}
	return out
}

// WithFields returns logger enriched with fields. A nil logger becomes a no-op one.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}

// ModelFields names the provider and model behind an entry.
func ModelFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

func WithModel(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, ModelFields(provider, model)...)
}

// MatchFields identifies one matching run.
func MatchFields(user, tier, runID string) []zap.Field {
	return StringFields(
		StringField{Key: FieldUser, Value: user},
		StringField{Key: FieldTier, Value: tier},
		StringField{Key: FieldRunID, Value: runID},
	)
}

func WithMatchFields(logger *zap.Logger, user, tier, runID string) *zap.Logger {
	return WithFields(logger, MatchFields(user, tier, runID)...)
}

func JobHash(hash string) zap.Field {
	return zap.String(FieldJobHash, hash)
}
