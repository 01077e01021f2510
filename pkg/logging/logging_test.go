package logging

import (
	"bytes"
	"encoding/json"
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
		{" WARN ", zerolog.WarnLevel},
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

func TestBuild_JSONWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger := Build(Config{Level: "info", Console: true}, &buf)

	logger.Info().Int("written", 3).Msg("extraction complete")
	logger.Debug().Msg("hidden")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "extraction complete", entry["message"])
	assert.Equal(t, float64(3), entry["written"])
	assert.Contains(t, entry, "time")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestIsTerminal_NonFile(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, IsTerminal(&buf))
	assert.False(t, IsTerminal(nil))
}
