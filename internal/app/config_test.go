package app

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, SequencePostgres, cfg.SequenceBackend)
	require.Equal(t, "INR", cfg.Currency)
	require.Equal(t, 15, cfg.InvoiceDueDays)
	require.Equal(t, 7*24*time.Hour, cfg.QuotationValidity)
	require.Equal(t, "Asia/Kolkata", cfg.Location().String())
	require.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SEQUENCE_BACKEND", "Redis")
	t.Setenv("CURRENCY", "USD")
	t.Setenv("BUSINESS_TIMEZONE", "UTC")
	t.Setenv("INVOICE_DUE_DAYS", "30")
	t.Setenv("APP_ENV", "production")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, SequenceRedis, cfg.SequenceBackend)
	require.Equal(t, time.UTC, cfg.Location())
	require.Equal(t, 30, cfg.InvoiceDueDays)
	require.True(t, cfg.IsProduction())
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	t.Setenv("SEQUENCE_BACKEND", "mysql")
	t.Setenv("CURRENCY", "XYZW")
	t.Setenv("BUSINESS_TIMEZONE", "Mars/Olympus")
	t.Setenv("LOG_LEVEL", "chatty")

	_, err := LoadConfig()
	require.Error(t, err)
	for _, key := range []string{"SEQUENCE_BACKEND", "CURRENCY", "BUSINESS_TIMEZONE", "LOG_LEVEL"} {
		require.Contains(t, err.Error(), key)
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	var cfg *Config
	require.Equal(t, time.UTC, cfg.Location())
	require.Error(t, cfg.Validate())
}

func TestNewLoggerHonoursFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &Config{LogFormat: "json", LogLevel: "warn"})
	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.True(t, strings.HasPrefix(out, "{"))
	require.Contains(t, out, `"msg":"shown"`)
}
