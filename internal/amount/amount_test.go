package amount

import (
	"math"
	"testing"

	"github.com/dmitrijs2005/blindauction/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1", "1000000000000000000"},
		{"0.1", "100000000000000000"},
		{".5", "500000000000000000"},
		{"5.", "5000000000000000000"},
		{"0", "0"},
		{"000.000", "0"},
		{"  2.25 ", "2250000000000000000"},
		{"0.000000000000000001", "1"},
		{"-1.5", "-1500000000000000000"},
		{"+3", "3000000000000000000"},
		{"18.446744073709551615", "18446744073709551615"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			a, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.Big().String())
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"", " ", "-", ".", "abc", "NaN", "Inf", "-Inf", "1e18", "1.2.3", "--1", "0x10", "1,5", "0.0000000000000000001"} {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidAmount)
		})
	}
}

func TestUint64(t *testing.T) {
	v, err := ScaleUint64("18.446744073709551615")
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), v)

	_, err = ScaleUint64("18.446744073709551616")
	assert.ErrorIs(t, err, common.ErrOverflow)

	_, err = ScaleUint64("-0.1")
	assert.ErrorIs(t, err, common.ErrInvalidAmount)

	v, err = ScaleUint64("-0")
	require.NoError(t, err)
	assert.Zero(t, v)
}

func TestFormat(t *testing.T) {
	tests := map[string]string{
		"1":                    "1",
		"0.1":                  "0.1",
		"-2.50":                "-2.5",
		"0.000000000000000001": "0.000000000000000001",
		"123.456":              "123.456",
		"0":                    "0",
	}
	for in, want := range tests {
		a, err := Parse(in)
		require.NoError(t, err)
		assert.Equal(t, want, a.Format(), in)
	}
	assert.Equal(t, "0.1", FromUint64(100000000000000000).String())
	assert.Equal(t, "0", Amount{}.Format())
	assert.Equal(t, 0, Amount{}.Sign())
}
