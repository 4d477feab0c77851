package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn", "json")

	log.Info().Msg("dropped")
	log.Warn().Str("set", "physics").Msg("kept")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "physics", entry["set"])
	assert.Equal(t, "exstem-practice", entry["service"])
	assert.Equal(t, "warn", entry["level"])
}

func TestNew_UnknownLevelIsInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "loud", "json")

	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
	log.Debug().Msg("dropped")
	assert.Zero(t, buf.Len())
}
