package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupTagsEveryLineWithServiceName(t *testing.T) {
	Setup("timetrack-api", false)

	var buf bytes.Buffer
	l := log.Logger.Output(&buf)
	l.Info().Msg("started")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "timetrack-api", entry["service"])
	assert.Equal(t, "started", entry["message"])
}
