package core

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// IsAbsent reports whether v is nil or a nil pointer, interface, map or slice.
// Absent values are never serialized or signed.
func IsAbsent(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

// FormatValue renders a parameter value with ECMAScript String() coercion so
// signatures match peers that canonicalize the same way. Numbers follow
// Number::toString, arrays join their elements with ',' and any other
// object renders as "[object Object]".
func FormatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int8:
		return strconv.FormatInt(int64(val), 10)
	case int16:
		return strconv.FormatInt(int64(val), 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint8:
		return strconv.FormatUint(uint64(val), 10)
	case uint16:
		return strconv.FormatUint(uint64(val), 10)
	case uint32:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return formatNumber(float64(val), 32)
	case float64:
		return formatNumber(val, 64)
	case apd.Decimal:
		return val.String()
	case fmt.Stringer:
		return val.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return ""
		}
		return FormatValue(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		return joinElements(rv)
	case reflect.Map, reflect.Struct:
		return "[object Object]"
	}
	return fmt.Sprintf("%v", v)
}

// joinElements mirrors Array.prototype.join(","): absent elements become
// empty strings.
func joinElements(rv reflect.Value) string {
	parts := make([]string, rv.Len())
	for i := range parts {
		el := rv.Index(i).Interface()
		if IsAbsent(el) {
			continue
		}
		parts[i] = FormatValue(el)
	}
	return strings.Join(parts, ",")
}

// formatNumber implements Number::toString for radix 10: plain notation for
// magnitudes in [1e-6, 1e21), exponent notation otherwise. The digits are
// the shortest that round-trip at bitSize.
func formatNumber(f float64, bitSize int) string {
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

	sign := ""
	if f < 0 {
		sign = "-"
		f = -f
	}

	sci := strconv.FormatFloat(f, 'e', -1, bitSize)
	e := strings.IndexByte(sci, 'e')
	digits := strings.Replace(sci[:e], ".", "", 1)
	exp, _ := strconv.Atoi(sci[e+1:])
	k, n := len(digits), exp+1

	switch {
	case k <= n && n <= 21:
		return sign + digits + strings.Repeat("0", n-k)
	case 0 < n && n <= 21:
		return sign + digits[:n] + "." + digits[n:]
	case -6 < n && n <= 0:
		return sign + "0." + strings.Repeat("0", -n) + digits
	}

	mantissa := digits[:1]
	if k > 1 {
		mantissa += "." + digits[1:]
	}
	expSign := "+"
	if exp < 0 {
		expSign = "-"
		exp = -exp
	}
	return sign + mantissa + "e" + expSign + strconv.Itoa(exp)
}

// StringMap formats every present value of the set, dropping absent ones.
func (p Params) StringMap() map[string]string {
	result := make(map[string]string, len(p))
	for k, v := range p {
		if IsAbsent(v) {
			continue
		}
		result[k] = FormatValue(v)
	}
	return result
}
