// Package units converts the memory quantities reported by Grid Engine into
// byte counts.
package units

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Magnitude factors. Grid Engine uses decimal multipliers for these tags.
const (
	Mega = 1000 * 1000
	Giga = 1000 * Mega
)

// DefaultTag is the magnitude assumed for a quantity without a tag.
const DefaultTag = "M"

var factors = map[string]int64{
	"M": Mega,
	"m": Mega,
	"G": Giga,
	"g": Giga,
}

// An UnrecognizedUnitError is returned when a quantity carries a magnitude
// tag that is not in the recognized set.
type UnrecognizedUnitError struct {
	Quantity string
	Unit     string
}

func (e *UnrecognizedUnitError) Error() string {
	return fmt.Sprintf("unrecognized unit %q in quantity %q", e.Unit, e.Quantity)
}

// ToBytes returns num multiplied by the magnitude denoted by tag. An empty tag
// means DefaultTag. Fractional bytes are truncated. A result that does not fit
// in int64 is an error.
func ToBytes(num, tag string) (int64, error) {
	if tag == "" {
		tag = DefaultTag
	}

	factor, ok := factors[tag]
	if !ok {
		return 0, &UnrecognizedUnitError{Quantity: num + tag, Unit: tag}
	}

	value, err := decimal.NewFromString(num)
	if err != nil {
		return 0, errors.Wrapf(err, "bad quantity %q", num+tag)
	}

	if value.IsNegative() {
		return 0, errors.Errorf("negative quantity %q", num+tag)
	}

	bytes := value.Mul(decimal.NewFromInt(factor))
	if bytes.GreaterThan(maxBytes) {
		return 0, errors.Errorf("quantity %q out of range", num+tag)
	}

	return bytes.IntPart(), nil
}

var maxBytes = decimal.NewFromInt(math.MaxInt64)

// ParseMemory converts a quantity like "512M", "2G" or "1.5g" into bytes. A
// quantity ending in a digit is taken to be in DefaultTag units.
func ParseMemory(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty quantity")
	}

	last := s[len(s)-1]
	if isDigit(last) {
		return ToBytes(s, "")
	}

	return ToBytes(s[:len(s)-1], s[len(s)-1:])
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
