package telemetry

import (
	"bytes"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("env defaults with code overrides", func(t *testing.T) {
		var buf bytes.Buffer
		tel, err := New(Options{ServiceName: "forge", Output: &buf})
		require.NoError(t, err)

		log := tel.GetLogger("job")
		log.Info().Msg("hello")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "forge.job", line["component"])
		assert.Equal(t, "hello", line["message"])
	})

	t.Run("level from env filters output", func(t *testing.T) {
		t.Setenv("FORGE_LOG_LEVEL", "error")
		var buf bytes.Buffer
		tel, err := New(Options{ServiceName: "forge", Output: &buf})
		require.NoError(t, err)

		tel.Logger.Info().Msg("dropped")
		assert.Empty(t, buf.String())
	})

	t.Run("invalid env format", func(t *testing.T) {
		t.Setenv("FORGE_LOG_FORMAT", "xml")
		_, err := New(Options{ServiceName: "forge"})
		require.Error(t, err)
	})

	t.Run("missing service name", func(t *testing.T) {
		_, err := New(Options{})
		require.Error(t, err)
	})
}

func TestParseLogFormat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, LogFormatJSON, ParseLogFormat("JSON"))
	assert.Equal(t, LogFormatPretty, ParseLogFormat("pretty"))
	assert.Equal(t, LogFormatUndefined, ParseLogFormat("yaml"))
	assert.Equal(t, "pretty", LogFormatPretty.String())
}
