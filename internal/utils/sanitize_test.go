package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripControl(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "extraction failed", "extraction failed"},
		{"newlines", "line one\nline two\r\n", "line oneline two"},
		{"ansi escape", "\x1b[31merror\x1b[0m", "[31merror[0m"},
		{"tabs", "a\tb", "ab"},
		{"empty", "", ""},
		{"unicode kept", "видео не найдено", "видео не найдено"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripControl(tt.in))
		})
	}
}
