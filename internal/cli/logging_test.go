package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLoggerLevels(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := newLogger(buf, false)

	logger.Debug("hidden")
	logger.Info("loaded token database", "entries", 3)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "loaded token database")
	assert.Contains(t, buf.String(), "entries=3")
	assert.NotContains(t, buf.String(), "\x1b[", "no colour on non-terminal writers")

	buf.Reset()
	verbose := newLogger(buf, true)
	verbose.Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}
