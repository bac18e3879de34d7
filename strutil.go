package otc

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SI prefixes for exponents -24..24 in steps of 3. Index 8 is the empty
// prefix.
var siPrefixes = []string{
	"y", "z", "a", "f", "p", "n", "µ", "m",
	"",
	"k", "M", "G", "T", "P", "E", "Z", "Y",
}

const siUnityIndex = 8

// SiPrefix scales value into [1, 1000) and returns the matching SI
// prefix. digits is adjusted to keep the printed resolution: every
// upscale by 1000 removes three digits after the decimal point.
func SiPrefix(value float64, digits int) (scaled float64, adjDigits int, prefix string) {
	if value == 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return value, digits, ""
	}
	idx := siUnityIndex
	for math.Abs(value) < 1 && idx > 0 {
		value *= 1000
		digits -= 3
		idx--
	}
	for math.Abs(value) >= 1000 && idx < len(siPrefixes)-1 {
		value /= 1000
		digits += 3
		idx++
	}
	return value, digits, siPrefixes[idx]
}

// SiPrefixFriendly returns value scaled into [1, 1000) plus the SI
// prefix, without tracking digits.
func SiPrefixFriendly(value float64) (float64, string) {
	scaled, _, prefix := SiPrefix(value, 0)
	return scaled, prefix
}

// SamplerateString formats a samplerate in Hz with the appropriate SI
// prefix, e.g. 100000000 -> "100 MHz".
func SamplerateString(samplerate uint64) string {
	v, prefix := SiPrefixFriendly(float64(samplerate))
	return fmt.Sprintf("%v %sHz", v, prefix)
}

// PeriodString formats the period v/q seconds, e.g. (1, 1000) -> "1 ms".
func PeriodString(v, q uint64) string {
	if q == 0 {
		return ""
	}
	f, prefix := SiPrefixFriendly(float64(v) / float64(q))
	return fmt.Sprintf("%v %ss", f, prefix)
}

// VoltageString formats the voltage v/q volts.
func VoltageString(v, q uint64) string {
	if q == 0 {
		return ""
	}
	f, prefix := SiPrefixFriendly(float64(v) / float64(q))
	return fmt.Sprintf("%v %sV", f, prefix)
}

// ParseSizeString parses a size with an optional k/m/g suffix, e.g.
// "100k" -> 100000.
func ParseSizeString(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrArg
	}
	mult := uint64(1)
	switch s[len(s)-1] {
	case 'k', 'K':
		mult = 1000
		s = s[:len(s)-1]
	case 'm', 'M':
		mult = 1000000
		s = s[:len(s)-1]
	case 'g', 'G':
		mult = 1000000000
		s = s[:len(s)-1]
	}
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, ErrArg
	}
	return n * mult, nil
}

// ParseRationalString parses a decimal number into an unreduced
// rational, e.g. "1.5" -> 15/10.
func ParseRationalString(s string) (Rational, error) {
	s = strings.TrimSpace(s)
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		p, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Rational{}, ErrArg
		}
		return Rational{P: p, Q: 1}, nil
	}
	frac := s[dot+1:]
	digits := s[:dot] + frac
	p, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return Rational{}, ErrArg
	}
	q := uint64(1)
	for range frac {
		if q > math.MaxUint64/10 {
			return Rational{}, ErrArg
		}
		q *= 10
	}
	return Rational{P: p, Q: q}, nil
}

// ParsePeriodString parses a period like "10 ms" into v/q seconds.
func ParsePeriodString(s string) (v, q uint64, err error) {
	return parseScaled(s, "s")
}

// ParseVoltageString parses a voltage like "100 mV" into v/q volts.
func ParseVoltageString(s string) (v, q uint64, err error) {
	return parseScaled(s, "V")
}

func parseScaled(s, unit string) (uint64, uint64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, unit)
	s = strings.TrimSpace(s)
	q := uint64(1)
	downPrefixes := []struct {
		prefix string
		div    uint64
	}{
		{"m", 1000}, {"µ", 1000000}, {"u", 1000000},
		{"n", 1000000000}, {"p", 1000000000000},
	}
	for _, dp := range downPrefixes {
		if strings.HasSuffix(s, dp.prefix) {
			q = dp.div
			s = strings.TrimSuffix(s, dp.prefix)
			break
		}
	}
	s = strings.TrimSpace(s)
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, 0, ErrArg
	}
	return v, q, nil
}
