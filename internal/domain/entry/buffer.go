package entry

import (
	"math"
	"strconv"
	"strings"
)

// MaxDigits bounds digit presses so every composed value fits in an int64.
// Activate may seed a longer buffer, up to the int64 range.
const MaxDigits = 18

// Buffer composes a signed decimal integer from keypad presses.
// The zero value is not ready for use; call Activate or use New.
type Buffer struct {
	digits     string
	isNegative bool
}

// New returns a buffer activated from an existing value.
func New(existing string) *Buffer {
	b := &Buffer{}
	b.Activate(existing)
	return b
}

// NewFromInt returns a buffer activated from an integer.
func NewFromInt(value int64) *Buffer {
	return New(strconv.FormatInt(value, 10))
}

// Activate resets the buffer from an existing display value.
func (b *Buffer) Activate(existing string) {
	existing = strings.TrimSpace(existing)
	b.isNegative = strings.HasPrefix(existing, "-")
	if b.isNegative {
		existing = existing[1:]
	}

	var sb strings.Builder
	for _, r := range existing {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	b.digits = normalize(sb.String())
	if len(b.digits) > MaxDigits {
		b.digits = clampDigits(b.digits, b.isNegative)
	}
}

// clampDigits saturates a magnitude outside the int64 range at its bound.
func clampDigits(digits string, negative bool) string {
	signed := digits
	if negative {
		signed = "-" + digits
	}
	if _, err := strconv.ParseInt(signed, 10, 64); err == nil {
		return digits
	}
	if negative {
		return strings.TrimPrefix(strconv.FormatInt(math.MinInt64, 10), "-")
	}
	return strconv.FormatInt(math.MaxInt64, 10)
}

// PressDigit appends d, replacing a lone zero. Non-digits and presses past
// MaxDigits are ignored.
func (b *Buffer) PressDigit(d rune) {
	if d < '0' || d > '9' {
		return
	}
	if b.digits == "0" || b.digits == "" {
		b.digits = string(d)
		return
	}
	if len(b.digits) >= MaxDigits {
		return
	}
	b.digits = normalize(b.digits + string(d))
}

// ToggleSign flips the sign, including for zero.
func (b *Buffer) ToggleSign() {
	b.isNegative = !b.isNegative
}

// Backspace removes the last digit. An emptied buffer becomes "0" and keeps its sign.
func (b *Buffer) Backspace() {
	if len(b.digits) <= 1 {
		b.digits = "0"
		return
	}
	b.digits = b.digits[:len(b.digits)-1]
}

// Clear resets to a positive zero.
func (b *Buffer) Clear() {
	b.digits = "0"
	b.isNegative = false
}

// Digits returns the unsigned digit string.
func (b *Buffer) Digits() string {
	if b.digits == "" {
		return "0"
	}
	return b.digits
}

// IsNegative reports whether the sign is set.
func (b *Buffer) IsNegative() bool {
	return b.isNegative
}

// DisplayText returns the signed display form, e.g. "-50".
func (b *Buffer) DisplayText() string {
	if b.isNegative {
		return "-" + b.Digits()
	}
	return b.Digits()
}

// ParsedValue parses the display text, returning 0 if it cannot be parsed.
func (b *Buffer) ParsedValue() int64 {
	v, err := strconv.ParseInt(b.DisplayText(), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func normalize(digits string) string {
	trimmed := strings.TrimLeft(digits, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}
