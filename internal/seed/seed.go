// Package seed converts host seed representations into the unsigned 64-bit
// seeds consumed by the pcg32 generator.
package seed

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"pcgstreams/internal/errors"
)

// Value is a seed as supplied by a host: an integer vector, a numeric
// vector or a text literal.
type Value interface {
	Kind() string
}

// Integers is a host integer vector. Each element is read as an unsigned
// 32-bit word, most significant word first.
type Integers []int32

// Numeric is a host double vector holding exactly one integral value.
type Numeric []float64

// Text is a decimal or 0x-prefixed hexadecimal literal.
type Text string

func (Integers) Kind() string { return "integer" }
func (Numeric) Kind() string  { return "numeric" }
func (Text) Kind() string     { return "text" }

// Converter maps a host seed to a uint64.
type Converter interface {
	Convert(v Value) (uint64, error)
}

// HostConverter implements the conversion rules for all Value kinds.
type HostConverter struct{}

// Default is the converter used when callers do not supply one.
var Default Converter = HostConverter{}

// type check
var _ Converter = HostConverter{}

// two64 is 2^64 as a float64; every float below it fits in a uint64.
const two64 = 18446744073709551616.0

// Convert implements the Converter interface for HostConverter.
func (HostConverter) Convert(v Value) (uint64, error) {
	switch val := v.(type) {
	case Integers:
		return convertIntegers(val)
	case Numeric:
		return convertNumeric(val)
	case Text:
		return convertText(val)
	default:
		return 0, errors.SeedConversion("seed must be an integer, numeric or text value")
	}
}

func convertIntegers(words Integers) (uint64, error) {
	if len(words) == 0 {
		return 0, errors.SeedConversion("seed vector must not be empty")
	}

	var out uint64
	for i, w := range words {
		// Only the last two words fit into 64 bits.
		if len(words)-i > 2 && w != 0 {
			return 0, errors.SeedConversion("vector implies an out-of-range seed")
		}
		out = out<<32 | uint64(uint32(w))
	}
	return out, nil
}

func convertNumeric(vals Numeric) (uint64, error) {
	if len(vals) != 1 {
		return 0, errors.SeedConversion("numeric seed should be a single value")
	}

	v := vals[0]
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v >= two64 || math.Trunc(v) != v {
		return 0, errors.SeedConversion("numeric seed must be a single non-negative integral value below 2^64")
	}
	return uint64(v), nil
}

func convertText(s Text) (uint64, error) {
	str := strings.TrimSpace(string(s))
	base := 10
	if rest, ok := strings.CutPrefix(strings.ToLower(str), "0x"); ok {
		str, base = rest, 16
	}

	out, err := strconv.ParseUint(str, base, 64)
	if err != nil {
		return 0, errors.SeedConversion(fmt.Sprintf("invalid seed string %q", string(s)))
	}
	return out, nil
}

// Parse converts a text seed with the default rules.
func Parse(s string) (uint64, error) {
	return Default.Convert(Text(s))
}

// New generates a random seed using crypto/rand.
func New() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, errors.Wrap(err, "read random seed")
	}

	return binary.LittleEndian.Uint64(b[:]), nil
}

const goldenRatio64 = 0x9e3779b97f4a7c15

// Derive expands master into n seeds with splitmix64. The same master always
// yields the same seeds.
func Derive(master uint64, n int) []uint64 {
	if n <= 0 {
		return []uint64{}
	}

	out := make([]uint64, n)
	state := master
	for i := range out {
		state += goldenRatio64
		out[i] = mix(state)
	}
	return out
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
