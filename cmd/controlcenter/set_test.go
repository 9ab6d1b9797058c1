package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		arg      string
		expected brightnessTarget
		wantErr  bool
	}{
		{"40", brightnessTarget{value: 40}, false},
		{" 0 ", brightnessTarget{value: 0}, false},
		{"75%", brightnessTarget{value: 75, percent: true}, false},
		{"100%", brightnessTarget{value: 100, percent: true}, false},
		{"101%", brightnessTarget{}, true},
		{"-5", brightnessTarget{}, true},
		{"bright", brightnessTarget{}, true},
		{"%", brightnessTarget{}, true},
		{"99999999999", brightnessTarget{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := parseTarget(tt.arg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestBrightnessTarget_Resolve(t *testing.T) {
	assert.Equal(t, int32(40), brightnessTarget{value: 40}.resolve(100))
	assert.Equal(t, int32(400), brightnessTarget{value: 400}.resolve(100), "absolute values are not clamped")
	assert.Equal(t, int32(750), brightnessTarget{value: 75, percent: true}.resolve(1000))
	assert.Equal(t, int32(2), brightnessTarget{value: 50, percent: true}.resolve(3))
	assert.Equal(t, int32(0), brightnessTarget{value: 0, percent: true}.resolve(255))
}
