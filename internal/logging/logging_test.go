package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONWithService(t *testing.T) {
	var buf bytes.Buffer
	log, closeFn, err := New(Options{Level: "debug", Out: &buf})
	require.NoError(t, err)
	defer closeFn()

	log.Debug().Str("component", "test").Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "voxdash", entry["service"])
	assert.Equal(t, "test", entry["component"])
	assert.Equal(t, "hello", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log, _, err := New(Options{Level: "warn", Out: &buf})
	require.NoError(t, err)
	log.Info().Msg("quiet")
	assert.Empty(t, buf.String())
}

func TestNewFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "voxdash.log")
	log, closeFn, err := New(Options{File: path})
	require.NoError(t, err)
	log.Error().Err(errors.New("boom")).Msg("failed")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"error":"boom"`))
}

func TestStackMarshalerAttachesStack(t *testing.T) {
	var buf bytes.Buffer
	log, _, err := New(Options{Out: &buf})
	require.NoError(t, err)
	log.Error().Stack().Err(errors.New("plain")).Msg("with stack")
	assert.Contains(t, buf.String(), `"stack"`)
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, lvl)

	lvl, err = ParseLevel(" DEBUG ")
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
