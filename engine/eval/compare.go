package eval

import (
	"cmp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/omniql-engine/omnifilter/engine/convert"
)

// Compare orders a against b. It returns false when the two values are not
// mutually comparable. Numbers compare numerically across widths, exactly
// when both sides are integers, times by instant, false sorts before true, UUIDs by their string form.
func Compare(a, b any) (int, bool) {
	a, b = deref(a), deref(b)

	if c, ok := compareIntegers(a, b); ok {
		return c, true
	}
	if fa, ok := convert.ToFloat(a); ok {
		fb, ok := convert.ToFloat(b)
		if !ok {
			return 0, false
		}
		return compareFloat(fa, fb), true
	}

	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case time.Time:
		y, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return x.Compare(y), true
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		return compareBool(x, y), true
	case uuid.UUID:
		y, ok := b.(uuid.UUID)
		if !ok {
			return 0, false
		}
		return strings.Compare(x.String(), y.String()), true
	}
	return 0, false
}

// Equal reports a == b under Compare.
func Equal(a, b any) bool {
	c, ok := Compare(a, b)
	return ok && c == 0
}

// Less orders nil before any value. Incomparable values are left in place
// by a stable sort.
func Less(a, b any) bool {
	if IsNil(a) || IsNil(b) {
		return IsNil(a) && !IsNil(b)
	}
	if c, ok := Compare(a, b); ok {
		return c < 0
	}
	return false
}

func deref(v any) any {
	if t, ok := v.(*time.Time); ok && t != nil {
		return *t
	}
	return v
}

// compareIntegers orders two integers of any width without going through
// float64, which loses precision above 2^53.
func compareIntegers(a, b any) (int, bool) {
	ai, aSigned := signedOf(a)
	au, aUnsigned := unsignedOf(a)
	bi, bSigned := signedOf(b)
	bu, bUnsigned := unsignedOf(b)

	switch {
	case aSigned && bSigned:
		return cmp.Compare(ai, bi), true
	case aUnsigned && bUnsigned:
		return cmp.Compare(au, bu), true
	case aSigned && bUnsigned:
		if ai < 0 {
			return -1, true
		}
		return cmp.Compare(uint64(ai), bu), true
	case aUnsigned && bSigned:
		if bi < 0 {
			return 1, true
		}
		return cmp.Compare(au, uint64(bi)), true
	}
	return 0, false
}

func signedOf(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	}
	return 0, false
}

func unsignedOf(v any) (uint64, bool) {
	switch x := v.(type) {
	case uint:
		return uint64(x), true
	case uint8:
		return uint64(x), true
	case uint16:
		return uint64(x), true
	case uint32:
		return uint64(x), true
	case uint64:
		return x, true
	}
	return 0, false
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}
