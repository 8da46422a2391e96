package seed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"

	"pcgstreams/internal/errors"
)

// JSON carries a Value through encoding/json. A JSON number decodes to
// Numeric, a string to Text and an array of integers to Integers.
type JSON struct {
	Value Value
}

// UnmarshalJSON implements the json.Unmarshaler interface for *JSON.
func (j *JSON) UnmarshalJSON(data []byte) error {
	v, err := DecodeValue(data)
	if err != nil {
		return err
	}
	j.Value = v
	return nil
}

// MarshalJSON implements the json.Marshaler interface for JSON.
func (j JSON) MarshalJSON() ([]byte, error) {
	switch v := j.Value.(type) {
	case Integers:
		return json.Marshal([]int32(v))
	case Numeric:
		if len(v) == 1 {
			return json.Marshal(v[0])
		}
		return json.Marshal([]float64(v))
	case Text:
		return json.Marshal(string(v))
	case nil:
		return []byte("null"), nil
	default:
		return nil, errors.SeedConversion("seed must be an integer, numeric or text value")
	}
}

// DecodeValue decodes a single JSON seed.
func DecodeValue(data []byte) (Value, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.SeedConversion("empty seed")
	}

	switch data[0] {
	case 'n':
		return nil, errors.SeedConversion("seed must not be null")
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, errors.WithCode(errors.CodeSeedConversion, err)
		}
		return Text(s), nil
	case '[':
		var nums []json.Number
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&nums); err != nil {
			return nil, errors.WithCode(errors.CodeSeedConversion, err)
		}
		return integersFromNumbers(nums)
	default:
		var n json.Number
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&n); err != nil {
			return nil, errors.SeedConversion("seed must be an integer, numeric or text value")
		}
		return numberValue(n)
	}
}

// numberValue keeps the exact value of a JSON number. Unsigned integers a
// float64 cannot hold travel as decimal Text; other literals must survive
// the float64 round trip unchanged.
func numberValue(n json.Number) (Value, error) {
	lit := n.String()
	if u, err := strconv.ParseUint(lit, 10, 64); err == nil {
		if f := float64(u); f < two64 && uint64(f) == u {
			return Numeric{f}, nil
		}
		return Text(lit), nil
	}

	f, err := n.Float64()
	if err != nil {
		return nil, errors.SeedConversion(fmt.Sprintf("invalid seed number %s", lit))
	}
	exact, ok := new(big.Rat).SetString(lit)
	if !ok || exact.Cmp(new(big.Rat).SetFloat64(f)) != 0 {
		return nil, errors.SeedConversion(fmt.Sprintf("seed %s is not exactly representable", lit))
	}
	return Numeric{f}, nil
}

// integersFromNumbers accepts signed 32-bit values and unsigned 32-bit words.
func integersFromNumbers(nums []json.Number) (Integers, error) {
	out := make(Integers, len(nums))
	for i, n := range nums {
		v, err := n.Int64()
		if err != nil || v < math.MinInt32 || v > math.MaxUint32 {
			return nil, errors.SeedConversion("seed vector elements must be 32-bit integers")
		}
		out[i] = int32(uint32(v))
	}
	return out, nil
}

// DecodeValues decodes a JSON array of seeds.
func DecodeValues(data []byte) ([]Value, error) {
	var raw []JSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return Values(raw), nil
}

// Values unwraps a slice of JSON seeds.
func Values(raw []JSON) []Value {
	out := make([]Value, len(raw))
	for i, r := range raw {
		out[i] = r.Value
	}
	return out
}
