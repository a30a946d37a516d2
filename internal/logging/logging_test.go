package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "server.log")
	log := New(Config{Level: "warn", FilePath: path, MaxSize: 1})

	log.Info().Msg("dropped")
	tagged := WithOrderID(WithComponent(log, "orders"), "order-1")
	tagged.Warn().Msg("kept")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), `"message":"kept"`)
	assert.Contains(t, string(data), `"component":"orders"`)
	assert.Contains(t, string(data), `"order_id":"order-1"`)
	assert.Contains(t, string(data), `"service":"p2pdesk"`)
}

func TestNew_NoWriters(t *testing.T) {
	log := New(Config{Level: "debug"})
	assert.Equal(t, zerolog.DebugLevel, log.GetLevel())
	log.Debug().Msg("discarded")
}
