package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitFullName(t *testing.T) {
	tests := []struct {
		name      string
		fullName  string
		wantFirst string
		wantLast  string
		wantOK    bool
	}{
		{
			name:      "Simple two-part name",
			fullName:  "Ada Obi",
			wantFirst: "Ada",
			wantLast:  "Obi",
			wantOK:    true,
		},
		{
			name:      "Three-part name keeps remainder as last name",
			fullName:  "Maria Silva Santos",
			wantFirst: "Maria",
			wantLast:  "Silva Santos",
			wantOK:    true,
		},
		{
			name:      "Leading and trailing spaces",
			fullName:  "  Carlos  Souza  ",
			wantFirst: "Carlos",
			wantLast:  "Souza",
			wantOK:    true,
		},
		{
			name:     "Single token rejected",
			fullName: "Madonna",
			wantOK:   false,
		},
		{
			name:     "Empty string rejected",
			fullName: "",
			wantOK:   false,
		},
		{
			name:     "Only whitespace rejected",
			fullName: "   ",
			wantOK:   false,
		},
		{
			name:      "Hyphenated first name is one token",
			fullName:  "Ana-Paula Silva",
			wantFirst: "Ana-Paula",
			wantLast:  "Silva",
			wantOK:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last, ok := SplitFullName(tt.fullName)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantFirst, first)
				assert.Equal(t, tt.wantLast, last)
			}
		})
	}
}

func TestMaskName(t *testing.T) {
	tests := []struct {
		name     string
		fullName string
		want     string
	}{
		{
			name:     "Two-part name keeps both visible",
			fullName: "Ada Obi",
			want:     "Ada Obi",
		},
		{
			name:     "Middle names masked",
			fullName: "Ada Ngozi Obi",
			want:     "Ada N**** Obi",
		},
		{
			name:     "Single name masked after first letter",
			fullName: "Madonna",
			want:     "M******",
		},
		{
			name:     "Empty string",
			fullName: "",
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskName(tt.fullName))
		})
	}
}
