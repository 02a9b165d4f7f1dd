package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
	assert.NotEmpty(t, cfg.TimeFormat)
}

func TestProductionConfig(t *testing.T) {
	cfg := ProductionConfig()

	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"default config", DefaultConfig()},
		{"production config", ProductionConfig()},
		{"debug console", &Config{Level: "debug", Format: "console", Output: "stdout", TimeFormat: "2006-01-02T15:04:05Z07:00"}},
		{"info json", &Config{Level: "info", Format: "json", Output: "stderr", TimeFormat: "2006-01-02T15:04:05Z07:00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestNewForEnvironment(t *testing.T) {
	for _, env := range []string{"development", "production", "staging"} {
		t.Run(env, func(t *testing.T) {
			logger, err := NewForEnvironment(env)
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"unknown", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.level))
		})
	}
}

func TestNewWriter(t *testing.T) {
	t.Run("standard streams", func(t *testing.T) {
		assert.NotNil(t, newWriter("stdout"))
		assert.NotNil(t, newWriter("stderr"))
		assert.NotNil(t, newWriter("STDOUT"))
	})

	t.Run("file path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.log")
		assert.NotNil(t, newWriter(path))
	})

	t.Run("unopenable path falls back", func(t *testing.T) {
		assert.NotNil(t, newWriter("/nonexistent/dir/app.log"))
	})
}

func TestNewEncoder(t *testing.T) {
	console := newEncoder(&Config{Format: "console", TimeFormat: "2006-01-02T15:04:05Z07:00"})
	assert.NotNil(t, console)

	jsonEnc := newEncoder(&Config{Format: "json", TimeFormat: "2006-01-02T15:04:05Z07:00"})
	assert.NotNil(t, jsonEnc)
}

func TestHelpers(t *testing.T) {
	logger, err := NewForEnvironment("development")
	require.NoError(t, err)

	child := With(logger, zap.String("component", "sync"))
	assert.NotNil(t, child)
	assert.NotEqual(t, logger, child)

	named := Named(logger, "scheduler")
	assert.NotNil(t, named)
	assert.NotEqual(t, logger, named)

	// Sync on stdout may error depending on the platform; it must not panic.
	_ = Sync(logger)
}

func TestJSONOutputShape(t *testing.T) {
	var buf bytes.Buffer

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		MessageKey:     "msg",
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(&buf),
		zapcore.InfoLevel,
	)
	logger := zap.New(core)

	logger.Info("sync run finished", zap.String("sync_type", "open_orders"))

	var output map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &output))
	assert.Equal(t, "sync run finished", output["msg"])
	assert.Equal(t, "info", output["level"])
	assert.Equal(t, "open_orders", output["sync_type"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	encoderConfig := zapcore.EncoderConfig{
		LevelKey:    "level",
		MessageKey:  "msg",
		EncodeLevel: zapcore.LowercaseLevelEncoder,
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(&buf),
		zapcore.InfoLevel,
	)
	logger := zap.New(core)

	logger.Debug("suppressed line")
	assert.NotContains(t, buf.String(), "suppressed line")

	logger.Info("kept line")
	assert.Contains(t, buf.String(), "kept line")
}
