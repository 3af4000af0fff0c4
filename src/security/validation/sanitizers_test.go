package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeForFormulaInjection(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text untouched", "Corner Bakery", "Corner Bakery"},
		{"equals prefixed", "=SUM(A1:A9)", "'=SUM(A1:A9)"},
		{"plus prefixed", "+1234", "'+1234"},
		{"minus prefixed", "-cmd", "'-cmd"},
		{"at prefixed", "@macro", "'@macro"},
		{"leading spaces still caught", "  =1+1", "'  =1+1"},
		{"empty string", "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SanitizeForFormulaInjection(tc.input))
		})
	}
}

func TestStripUnprintable(t *testing.T) {
	assert.Equal(t, "note with\ttabs\nand lines", StripUnprintable("note with\ttabs\nand lines"))
	assert.Equal(t, "clean", StripUnprintable("cl\x00ea\x07n"))
}
