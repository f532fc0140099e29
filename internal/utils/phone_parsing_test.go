package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		phone   string
		want    string
		wantErr bool
	}{
		{
			name:  "Nigerian mobile in E.164",
			phone: "+2348031234567",
			want:  "+2348031234567",
		},
		{
			name:  "Brazilian mobile in E.164",
			phone: "+5521987654321",
			want:  "+5521987654321",
		},
		{
			name:  "US number with formatting",
			phone: "+1 (212) 555-0142",
			want:  "+12125550142",
		},
		{
			name:  "International 00 prefix converted",
			phone: "00447911123456",
			want:  "+447911123456",
		},
		{
			name:  "Surrounding whitespace trimmed",
			phone: "  +2348031234567  ",
			want:  "+2348031234567",
		},
		{
			name:    "Missing country code rejected",
			phone:   "08031234567",
			wantErr: true,
		},
		{
			name:    "Empty string rejected",
			phone:   "",
			wantErr: true,
		},
		{
			name:    "Garbage rejected",
			phone:   "+not-a-number",
			wantErr: true,
		},
		{
			name:    "Too short to be valid",
			phone:   "+123",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.phone)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
