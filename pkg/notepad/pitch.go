package notepad

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Pitch is the musical identity of a pad. It is absent, a single number, or
// an ordered sequence of numbers. Pads never interpret or validate it; the
// shape is kept as configured so listeners see exactly what was set.
type Pitch struct {
	values   []int
	sequence bool
}

// Single returns a pitch holding one number
func Single(n int) Pitch {
	return Pitch{values: []int{n}}
}

// Sequence returns a pitch holding an ordered sequence of numbers.
// Sequence() with no arguments is an empty sequence, which is not absent.
func Sequence(ns ...int) Pitch {
	return Pitch{values: append([]int{}, ns...), sequence: true}
}

// IsZero reports whether the pitch is absent
func (p Pitch) IsZero() bool {
	return !p.sequence && len(p.values) == 0
}

// IsSequence reports whether the pitch was configured as a sequence
func (p Pitch) IsSequence() bool {
	return p.sequence
}

// Values returns a copy of the numbers in the pitch
func (p Pitch) Values() []int {
	if len(p.values) == 0 {
		return nil
	}
	return append([]int(nil), p.values...)
}

// Transpose returns the pitch with every number shifted by delta, keeping its shape.
func (p Pitch) Transpose(delta int) Pitch {
	out := Pitch{sequence: p.sequence}
	if p.values != nil {
		out.values = make([]int, len(p.values))
		for i, v := range p.values {
			out.values[i] = v + delta
		}
	}
	return out
}

// Equal reports whether p and o have the same shape and numbers
func (p Pitch) Equal(o Pitch) bool {
	if p.sequence != o.sequence || len(p.values) != len(o.values) {
		return false
	}
	for i := range p.values {
		if p.values[i] != o.values[i] {
			return false
		}
	}
	return true
}

func (p Pitch) String() string {
	switch {
	case p.IsZero():
		return ""
	case !p.sequence:
		return strconv.Itoa(p.values[0])
	}
	parts := make([]string, len(p.values))
	for i, v := range p.values {
		parts[i] = strconv.Itoa(v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// MarshalJSON encodes an absent pitch as null, a single pitch as a number and
// a sequence as an array.
func (p Pitch) MarshalJSON() ([]byte, error) {
	switch {
	case p.IsZero():
		return []byte("null"), nil
	case !p.sequence:
		return []byte(strconv.Itoa(p.values[0])), nil
	}
	if len(p.values) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(p.values)
}

// UnmarshalJSON is the inverse of MarshalJSON
func (p *Pitch) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*p = Pitch{}
		return nil
	case data[0] == '[':
		var ns []int
		if err := json.Unmarshal(data, &ns); err != nil {
			return fmt.Errorf("pitch sequence: %w", err)
		}
		*p = Sequence(ns...)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("pitch: %w", err)
	}
	*p = Single(n)
	return nil
}
