package providers

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFloatVariants(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want *float64
	}{
		{"float", 1.5, fp(1.5)},
		{"int", 42, fp(42)},
		{"quoted", "0.0123", fp(0.0123)},
		{"quoted with spaces", "  7 ", fp(7)},
		{"empty string", "", nil},
		{"garbage", "n/a", nil},
		{"nil", nil, nil},
		{"nan", math.NaN(), nil},
		{"inf", "Inf", nil},
		{"bool", true, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := parseFloat(tc.in)
			if tc.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tc.want, *got)
		})
	}
}

func TestParseIntTruncates(t *testing.T) {
	got := parseInt("1234.9")
	require.NotNil(t, got)
	assert.Equal(t, int64(1234), *got)

	assert.Nil(t, parseInt("nope"))
}

func TestHolderCountFromVariants(t *testing.T) {
	cases := []struct {
		name string
		in   map[string]any
		want int64
	}{
		{"holder", map[string]any{"holder": 120.0}, 120},
		{"holders", map[string]any{"holders": "450"}, 450},
		{"camel", map[string]any{"holderCount": 7.0}, 7},
		{"snake", map[string]any{"holder_count": 9.0}, 9},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := holderCountFrom(tc.in)
			require.NotNil(t, got)
			assert.Equal(t, tc.want, *got)
		})
	}

	assert.Nil(t, holderCountFrom(map[string]any{"holders": -5.0}), "negative counts are noise")
	assert.Nil(t, holderCountFrom(map[string]any{"unrelated": 5.0}))
}

func TestParseBoolFlagVariants(t *testing.T) {
	assert.Nil(t, parseBoolFlag(nil))
	assert.Nil(t, parseBoolFlag("maybe"))

	b := parseBoolFlag("1")
	require.NotNil(t, b)
	assert.True(t, *b)

	b = parseBoolFlag("0")
	require.NotNil(t, b)
	assert.False(t, *b)

	b = parseBoolFlag(nil, true)
	require.NotNil(t, b)
	assert.True(t, *b)

	b = parseBoolFlag(map[string]any{"status": "1"})
	require.NotNil(t, b)
	assert.True(t, *b)

	b = parseBoolFlag(0.0)
	require.NotNil(t, b)
	assert.False(t, *b)
}

func fp(f float64) *float64 { return &f }
