package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	file := filepath.Join(t.TempDir(), "logs", "vinyl-stack.log")
	var extra bytes.Buffer

	require.NoError(t, Init("warn", file, &extra))
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	log.Info().Msg("hidden")
	log.Warn().Str("id", "dsotm").Msg("shown")

	assert.NotContains(t, extra.String(), "hidden")
	assert.Contains(t, extra.String(), "shown")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"id":"dsotm"`)
}

func TestInit_BadLevel(t *testing.T) {
	err := Init("loud", filepath.Join(t.TempDir(), "x.log"))
	assert.Error(t, err)
}
