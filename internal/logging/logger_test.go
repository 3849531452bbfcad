// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNew_JSONLevels(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		wantDebug bool
		wantInfo  bool
	}{
		{"default is info", "", false, true},
		{"debug", "debug", true, true},
		{"warn hides info", "warn", false, false},
		{"unknown falls back to info", "loud", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(&buf, Config{Level: tt.level, Format: "json"})

			logger.Debug().Msg("debug-line")
			logger.Info().Str("source", "a.csv").Msg("info-line")

			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("debug-line")))
			assert.Equal(t, tt.wantInfo, bytes.Contains(buf.Bytes(), []byte("info-line")))
		})
	}
}

func TestNew_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Config{Format: "json"})
	logger.Info().Str("source", "a.csv").Int("rows", 3).Msg("loaded")

	out := buf.String()
	assert.Contains(t, out, `"source":"a.csv"`)
	assert.Contains(t, out, `"rows":3`)
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Config{Format: "console", NoColor: true})
	logger.Warn().Msg("case variant")

	assert.Contains(t, buf.String(), "WRN")
	assert.Contains(t, buf.String(), "case variant")
}

func TestFromContext(t *testing.T) {
	assert.Equal(t, zerolog.Disabled, FromContext(context.Background()).GetLevel())

	var buf bytes.Buffer
	logger := New(&buf, Config{Format: "json"})
	ctx := WithLogger(context.Background(), &logger)

	FromContext(ctx).Info().Msg("from-context")
	assert.Contains(t, buf.String(), "from-context")
}
