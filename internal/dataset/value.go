package dataset

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Kind tags the payload carried by a Value.
type Kind uint8

const (
	Empty Kind = iota
	Number
	Text
)

func (k Kind) String() string {
	switch k {
	case Number:
		return "number"
	case Text:
		return "text"
	default:
		return "empty"
	}
}

// Value is a single parsed cell.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
}

// Null is the empty cell.
var Null = Value{}

// Num returns a Number value.
func Num(f float64) Value { return Value{Kind: Number, Num: f} }

// Str returns a Text value, or Null when s is blank.
func Str(s string) Value {
	if strings.TrimSpace(s) == "" {
		return Null
	}
	return Value{Kind: Text, Str: s}
}

var (
	decimalLit  = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
	infinityLit = regexp.MustCompile(`^[+-]?Infinity$`)
)

// ParseNumber reports whether s is accepted by a JavaScript-style Number()
// conversion and returns the result. Blank input is not numeric.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if infinityLit.MatchString(s) {
		if s[0] == '-' {
			return math.Inf(-1), true
		}
		return math.Inf(1), true
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return 0, false
			}
			return float64(n), true
		}
	}
	if !decimalLit.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// out of range literals saturate to ±Inf or 0, same as JS
		if errors.Is(err, strconv.ErrRange) {
			return f, true
		}
		return 0, false
	}
	return f, true
}

// ParseCell converts a raw cell into a Value. Cells are parsed once at load.
func ParseCell(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Null
	}
	if f, ok := ParseNumber(s); ok {
		return Num(f)
	}
	return Value{Kind: Text, Str: s}
}

// IsEmpty reports whether v carries no data.
func (v Value) IsEmpty() bool { return v.Kind == Empty }

// Float returns the numeric payload and whether v is numeric-coercible.
func (v Value) Float() (float64, bool) {
	if v.Kind == Number {
		return v.Num, true
	}
	return 0, false
}

// String renders v the way JavaScript String() would.
func (v Value) String() string {
	switch v.Kind {
	case Number:
		return FormatNumber(v.Num)
	case Text:
		return v.Str
	default:
		return ""
	}
}

// Equal compares kind and payload.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case Number:
		return v.Num == o.Num
	case Text:
		return v.Str == o.Str
	default:
		return true
	}
}

// Interface returns the payload as float64, string or nil.
func (v Value) Interface() any {
	switch v.Kind {
	case Number:
		if math.IsInf(v.Num, 0) {
			return FormatNumber(v.Num)
		}
		return v.Num
	case Text:
		return v.Str
	default:
		return nil
	}
}

// FormatNumber renders f using the JavaScript Number#toString rules.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		// Go pads the exponent to two digits, JS does not
		mant, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		digits := strings.TrimLeft(exp[1:], "0")
		if digits == "" {
			digits = "0"
		}
		return mant + "e" + sign + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
