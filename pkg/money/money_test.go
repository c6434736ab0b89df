package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name  string
		cents int64
		want  string
	}{
		{"zero", 0, "KES 0.00"},
		{"sub-unit", 7, "KES 0.07"},
		{"whole shillings", 500, "KES 5.00"},
		{"thousands separator", 123456, "KES 1,234.56"},
		{"millions", 1234567890, "KES 12,345,678.90"},
		{"negative", -123456, "KES -1,234.56"},
		{"exactly one thousand", 100000, "KES 1,000.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format("KES", tt.cents))
		})
	}
}

func TestFormatPlain(t *testing.T) {
	assert.Equal(t, "1,234.56", FormatPlain(123456))
	assert.Equal(t, "-0.01", FormatPlain(-1))
	assert.Equal(t, "999.99", FormatPlain(99999))
}
