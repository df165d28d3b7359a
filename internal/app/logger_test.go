package app

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerCarriesServiceAndEnv(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &Config{AppEnv: "production", LogFormat: "json"})

	logger.Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "adminbase", line["service"])
	assert.Equal(t, "production", line["env"])
}

func TestLoggerTextFormatByDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &Config{AppEnv: "development"})

	logger.Info("hello")

	out := buf.String()
	assert.False(t, strings.HasPrefix(strings.TrimSpace(out), "{"))
	assert.Contains(t, out, "service=adminbase")
	assert.Contains(t, out, "env=development")
}
