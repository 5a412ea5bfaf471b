package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bilancio/internal/config"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"yes", "y\n", true},
		{"full word", "Yes\n", true},
		{"no", "n\n", false},
		{"empty line", "\n", false},
		{"eof", "", false},
		{"no newline", "y", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got := Confirm(strings.NewReader(tt.input), &out, "Delete?")
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Delete?")
		})
	}
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := SetupLogger(&config.Config{LogLevel: "debug", LogFormat: "json"}, &buf)
	require.NoError(t, err)

	logger.Debug("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"component":"cli"`)

	_, err = SetupLogger(&config.Config{LogLevel: "loud"}, &buf)
	assert.Error(t, err)
}
