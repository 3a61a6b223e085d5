package entry_test

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/rpggio/tally/internal/domain/entry"
	"github.com/stretchr/testify/require"
)

func TestBuffer_KeySequence(t *testing.T) {
	b := entry.New("0")

	b.PressDigit('5')
	require.Equal(t, "5", b.DisplayText())

	b.PressDigit('0')
	require.Equal(t, "50", b.DisplayText())

	b.ToggleSign()
	require.Equal(t, "-50", b.DisplayText())
	require.Equal(t, int64(-50), b.ParsedValue())

	b.Backspace()
	require.Equal(t, "-5", b.DisplayText())

	b.Clear()
	require.Equal(t, "0", b.DisplayText())
	require.False(t, b.IsNegative())
}

func TestBuffer_LeadingZerosCollapse(t *testing.T) {
	b := entry.New("0")
	b.PressDigit('0')
	b.PressDigit('0')
	b.PressDigit('7')

	require.Equal(t, "7", b.Digits())
	require.Equal(t, int64(7), b.ParsedValue())
}

func TestBuffer_Activate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		display  string
		negative bool
	}{
		{name: "empty", input: "", display: "0"},
		{name: "zero", input: "0", display: "0"},
		{name: "positive", input: "42", display: "42"},
		{name: "negative", input: "-13", display: "-13", negative: true},
		{name: "leading zeros", input: "007", display: "7"},
		{name: "negative zero", input: "-0", display: "-0", negative: true},
		{name: "bare minus", input: "-", display: "-0", negative: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := entry.New(tt.input)
			require.Equal(t, tt.display, b.DisplayText())
			require.Equal(t, tt.negative, b.IsNegative())

			// Activating again with the same input yields the same state.
			b.Activate(tt.input)
			require.Equal(t, tt.display, b.DisplayText())
		})
	}
}

func TestBuffer_NegativeZeroParsesToZero(t *testing.T) {
	b := entry.New("0")
	b.ToggleSign()
	require.Equal(t, "-0", b.DisplayText())
	require.Equal(t, int64(0), b.ParsedValue())
}

func TestBuffer_BackspaceKeepsSign(t *testing.T) {
	b := entry.NewFromInt(-3)
	b.Backspace()
	require.Equal(t, "-0", b.DisplayText())
	b.Backspace()
	require.Equal(t, "-0", b.DisplayText())
}

func TestBuffer_IgnoresNonDigits(t *testing.T) {
	b := entry.New("12")
	b.PressDigit('x')
	require.Equal(t, "12", b.DisplayText())
}

func TestBuffer_MaxDigits(t *testing.T) {
	b := entry.New("0")
	for i := 0; i < entry.MaxDigits+5; i++ {
		b.PressDigit('9')
	}
	require.Len(t, b.Digits(), entry.MaxDigits)
	require.Equal(t, strings.Repeat("9", entry.MaxDigits), b.Digits())

	b.ToggleSign()
	require.Equal(t, int64(-999999999999999999), b.ParsedValue())
}

func TestBuffer_LongSeedClampsToInt64(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int64
	}{
		{name: "fits", input: "1234567890123456789", want: 1234567890123456789},
		{name: "max", input: "9223372036854775807", want: math.MaxInt64},
		{name: "min", input: "-9223372036854775808", want: math.MinInt64},
		{name: "above max", input: "12345678901234567890", want: math.MaxInt64},
		{name: "below min", input: "-9223372036854775809", want: math.MinInt64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := entry.New(tt.input)
			require.Equal(t, tt.want, b.ParsedValue())
			require.Equal(t, strconv.FormatInt(tt.want, 10), b.DisplayText())
		})
	}

	// Stored values round-trip through an edit seed unchanged.
	require.Equal(t, int64(math.MaxInt64-5), entry.NewFromInt(math.MaxInt64-5).ParsedValue())

	// A seeded buffer past MaxDigits takes no more digits but can be shortened.
	b := entry.New("1234567890123456789")
	b.PressDigit('1')
	require.Equal(t, "1234567890123456789", b.Digits())
	b.Backspace()
	require.Equal(t, "123456789012345678", b.Digits())
}
