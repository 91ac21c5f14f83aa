package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateLogLevel(t *testing.T) {
	for _, lvl := range []string{"DEBUG", "info", " Warn ", "ERROR"} {
		assert.NoError(t, ValidateLogLevel(lvl), lvl)
	}
	err := ValidateLogLevel("verbose")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verbose")
}

func TestLevelWriterAndSuppression(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel("DEBUG")
	t.Cleanup(func() {
		SetLevel("INFO")
	})

	w := NewLevelWriter("ERROR", "gin")
	n, err := w.Write([]byte("first line\nsecond line\n"))
	require.NoError(t, err)
	assert.Equal(t, len("first line\nsecond line\n"), n)
	assert.Contains(t, buf.String(), "[gin] first line")
	assert.Contains(t, buf.String(), "[gin] second line")

	buf.Reset()
	SuppressOutput()
	Info("hidden")
	RestoreOutput()
	assert.Empty(t, buf.String())

	Info("visible")
	assert.Contains(t, buf.String(), "visible")
}
