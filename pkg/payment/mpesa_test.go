package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"local leading zero", "0712345678", "254712345678"},
		{"already canonical", "254712345678", "254712345678"},
		{"plus prefix", "+254712345678", "254712345678"},
		{"bare subscriber number", "712345678", "254712345678"},
		{"spaces and dashes", "0712-345 678", "254712345678"},
		{"empty", "", ""},
		{"too short", "07123", ""},
		{"too long", "2547123456789", ""},
		{"letters only", "call me", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.in))
		})
	}
}
