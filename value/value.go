// Package value is the closed set of typed values a watch can carry:
// fixed-width integers, IEEE floats, booleans and capped-length text.
// Comparisons are implemented per kind; there is no dynamic coercion.
package value

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"
)

type Kind uint8

const (
	Invalid Kind = iota
	Int8
	UInt8
	Int16
	UInt16
	Int32
	UInt32
	Int64
	UInt64
	Float32
	Float64
	Bool
	UTF8
	UTF16
)

// MaxTextChars caps how many characters a text watch may read per tick.
const MaxTextChars = 128

var kindNames = map[Kind]string{
	Int8:    "int8",
	UInt8:   "uint8",
	Int16:   "int16",
	UInt16:  "uint16",
	Int32:   "int32",
	UInt32:  "uint32",
	Int64:   "int64",
	UInt64:  "uint64",
	Float32: "float32",
	Float64: "float64",
	Bool:    "bool",
	UTF8:    "utf8",
	UTF16:   "utf16",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "invalid"
}

func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if s == name {
			return k, nil
		}
	}
	return Invalid, fmt.Errorf("unknown value kind %q", s)
}

// UnmarshalText lets profile files name kinds directly ("int32", "utf16").
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Size returns the number of bytes a single read of this kind covers.
// Text kinds are variable-length and return 0; the watch's configured
// length decides how much to read.
func (k Kind) Size() int {
	switch k {
	case Int8, UInt8, Bool:
		return 1
	case Int16, UInt16:
		return 2
	case Int32, UInt32, Float32:
		return 4
	case Int64, UInt64, Float64:
		return 8
	}
	return 0
}

func (k Kind) IsNumeric() bool {
	switch k {
	case Int8, UInt8, Int16, UInt16, Int32, UInt32, Int64, UInt64, Float32, Float64:
		return true
	}
	return false
}

func (k Kind) IsText() bool { return k == UTF8 || k == UTF16 }

func (k Kind) isSigned() bool {
	switch k {
	case Int8, Int16, Int32, Int64:
		return true
	}
	return false
}

func (k Kind) isFloat() bool { return k == Float32 || k == Float64 }

// Value is a tagged union over Kind. The zero Value has kind Invalid and
// reports true from IsZero; the engine uses that to mark an unseeded
// previous-value slot.
type Value struct {
	kind Kind
	bits uint64 // signed kinds hold int64 bits, floats hold Float64bits
	str  string
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsZero() bool { return v.kind == Invalid }

func FromInt(k Kind, n int64) Value   { return Value{kind: k, bits: uint64(n)} }
func FromUint(k Kind, n uint64) Value { return Value{kind: k, bits: n} }
func FromFloat(k Kind, f float64) Value {
	return Value{kind: k, bits: math.Float64bits(f)}
}

func FromBool(b bool) Value {
	var n uint64
	if b {
		n = 1
	}
	return Value{kind: Bool, bits: n}
}

func FromText(k Kind, s string) Value { return Value{kind: k, str: s} }

// Decode interprets raw process bytes as a value of kind k. Fixed-width
// kinds require exactly k.Size() bytes; text kinds take whatever the
// watch read and stop at the first NUL.
func Decode(k Kind, b []byte) (Value, error) {
	if size := k.Size(); size != 0 && len(b) < size {
		return Value{}, fmt.Errorf("decode %s: need %d bytes, have %d", k, size, len(b))
	}

	switch k {
	case Int8:
		return FromInt(k, int64(int8(b[0]))), nil
	case UInt8:
		return FromUint(k, uint64(b[0])), nil
	case Int16:
		return FromInt(k, int64(int16(binary.LittleEndian.Uint16(b)))), nil
	case UInt16:
		return FromUint(k, uint64(binary.LittleEndian.Uint16(b))), nil
	case Int32:
		return FromInt(k, int64(int32(binary.LittleEndian.Uint32(b)))), nil
	case UInt32:
		return FromUint(k, uint64(binary.LittleEndian.Uint32(b))), nil
	case Int64:
		return FromInt(k, int64(binary.LittleEndian.Uint64(b))), nil
	case UInt64:
		return FromUint(k, binary.LittleEndian.Uint64(b)), nil
	case Float32:
		return FromFloat(k, float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))), nil
	case Float64:
		return FromFloat(k, math.Float64frombits(binary.LittleEndian.Uint64(b))), nil
	case Bool:
		return FromBool(b[0] != 0), nil
	case UTF8:
		return FromText(k, decodeUTF8(b)), nil
	case UTF16:
		return FromText(k, decodeUTF16(b)), nil
	}
	return Value{}, fmt.Errorf("decode: invalid kind %d", k)
}

func decodeUTF8(b []byte) string {
	for i, c := range b {
		if c == 0 {
			b = b[:i]
			break
		}
	}
	if len(b) > MaxTextChars {
		b = b[:MaxTextChars]
	}
	return string(b)
}

func decodeUTF16(b []byte) string {
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		u := binary.LittleEndian.Uint16(b[i:])
		if u == 0 {
			break
		}
		units = append(units, u)
		if len(units) == MaxTextChars {
			break
		}
	}
	return string(utf16.Decode(units))
}

// Parse converts a configured literal into a value of kind k. This is the
// one place loosely-typed config input becomes typed. It runs once at
// session start, never during the poll loop.
func Parse(k Kind, literal string) (Value, error) {
	literal = strings.TrimSpace(literal)
	switch {
	case k.isFloat():
		f, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parse %s literal %q: %w", k, literal, err)
		}
		return FromFloat(k, f), nil
	case k.isSigned():
		n, err := strconv.ParseInt(literal, 0, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parse %s literal %q: %w", k, literal, err)
		}
		return FromInt(k, n), nil
	case k.IsNumeric(): // unsigned
		n, err := strconv.ParseUint(literal, 0, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parse %s literal %q: %w", k, literal, err)
		}
		return FromUint(k, n), nil
	case k == Bool:
		switch strings.ToLower(literal) {
		case "true", "1", "yes", "on":
			return FromBool(true), nil
		case "false", "0", "no", "off":
			return FromBool(false), nil
		}
		return Value{}, fmt.Errorf("parse bool literal %q", literal)
	case k.IsText():
		return FromText(k, literal), nil
	}
	return Value{}, fmt.Errorf("parse: invalid kind %d", k)
}

// Text is the canonical textual form, used by Changed comparisons, speech
// substitution and the cue log.
func (v Value) Text() string {
	switch {
	case v.kind.isFloat():
		return strconv.FormatFloat(math.Float64frombits(v.bits), 'g', -1, 64)
	case v.kind.isSigned():
		return strconv.FormatInt(int64(v.bits), 10)
	case v.kind.IsNumeric():
		return strconv.FormatUint(v.bits, 10)
	case v.kind == Bool:
		if v.bits != 0 {
			return "true"
		}
		return "false"
	case v.kind.IsText():
		return v.str
	}
	return ""
}

// Int reports the value as an int64 where that makes sense (the game-state
// clock is read this way). Floats truncate.
func (v Value) Int() (int64, bool) {
	switch {
	case v.kind.isFloat():
		return int64(math.Float64frombits(v.bits)), true
	case v.kind.isSigned():
		return int64(v.bits), true
	case v.kind.IsNumeric():
		if v.bits > math.MaxInt64 {
			return math.MaxInt64, true
		}
		return int64(v.bits), true
	}
	return 0, false
}

// Float reports the value as a float64 for continuous range math.
func (v Value) Float() (float64, bool) {
	switch {
	case v.kind.isFloat():
		return math.Float64frombits(v.bits), true
	case v.kind.isSigned():
		return float64(int64(v.bits)), true
	case v.kind.IsNumeric():
		return float64(v.bits), true
	}
	return 0, false
}

// Equal compares two values for equality. Numeric kinds are promoted to a
// common wide representation first; text compares by string, bool by bool.
func (v Value) Equal(o Value) (bool, error) {
	switch {
	case v.kind.IsNumeric() && o.kind.IsNumeric():
		return compareNumeric(v, o) == 0, nil
	case v.kind.IsText() && o.kind.IsText():
		return v.str == o.str, nil
	case v.kind == Bool && o.kind == Bool:
		return (v.bits != 0) == (o.bits != 0), nil
	}
	return false, fmt.Errorf("cannot compare %s with %s", v.kind, o.kind)
}

// Compare orders two numeric values: -1 if v < o, 0 if equal, +1 if v > o.
// Non-numeric operands are a comparison failure, not a panic.
func (v Value) Compare(o Value) (int, error) {
	if !v.kind.IsNumeric() || !o.kind.IsNumeric() {
		return 0, fmt.Errorf("cannot order %s against %s", v.kind, o.kind)
	}
	return compareNumeric(v, o), nil
}

// compareNumeric promotes both operands before comparing: any float forces
// float64; two unsigneds compare as uint64; otherwise sign-aware int64.
func compareNumeric(a, b Value) int {
	if a.kind.isFloat() || b.kind.isFloat() {
		af, _ := a.Float()
		bf, _ := b.Float()
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}

	aSigned, bSigned := a.kind.isSigned(), b.kind.isSigned()
	switch {
	case !aSigned && !bSigned:
		switch {
		case a.bits < b.bits:
			return -1
		case a.bits > b.bits:
			return 1
		}
		return 0
	case aSigned && bSigned:
		ai, bi := int64(a.bits), int64(b.bits)
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	case aSigned: // b unsigned
		return -compareMixed(b.bits, int64(a.bits))
	default: // a unsigned, b signed
		return compareMixed(a.bits, int64(b.bits))
	}
}

// compareMixed orders an unsigned value against a signed one without
// losing the top bit of the unsigned range.
func compareMixed(u uint64, s int64) int {
	if s < 0 {
		return 1
	}
	us := uint64(s)
	switch {
	case u < us:
		return -1
	case u > us:
		return 1
	}
	return 0
}
