package reconcile

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/noah-isme/hostel-console-api/internal/models"
)

// Pick returns the first alias whose value is present and non-empty. Aliases
// may be dotted paths into nested objects; a missing segment is a miss, never a panic.
func Pick(rec models.Record, aliases ...string) (interface{}, bool) {
	for _, alias := range aliases {
		if v, ok := lookup(rec, alias); ok && !isEmpty(v) {
			return v, true
		}
	}
	return nil, false
}

// PickString is Pick for scalar values coerced to string. Values that cannot be
// represented as a string (objects, arrays) are skipped.
func PickString(rec models.Record, aliases ...string) string {
	for _, alias := range aliases {
		v, ok := lookup(rec, alias)
		if !ok || isEmpty(v) {
			continue
		}
		if s, ok := scalarString(v); ok {
			return s
		}
	}
	return ""
}

// PickDecimal returns the first alias parseable as a decimal amount.
func PickDecimal(rec models.Record, aliases ...string) (decimal.Decimal, bool) {
	for _, alias := range aliases {
		v, ok := lookup(rec, alias)
		if !ok || isEmpty(v) {
			continue
		}
		if d, err := ToDecimal(v); err == nil {
			return d, true
		}
	}
	return decimal.Zero, false
}

// PickInt returns the first alias parseable as an integer.
func PickInt(rec models.Record, aliases ...string) (int, bool) {
	for _, alias := range aliases {
		v, ok := lookup(rec, alias)
		if !ok || isEmpty(v) {
			continue
		}
		s, ok := scalarString(v)
		if !ok {
			continue
		}
		if n, err := cast.ToIntE(strings.TrimSpace(s)); err == nil {
			return n, true
		}
		if d, err := decimal.NewFromString(strings.TrimSpace(s)); err == nil {
			return int(d.IntPart()), true
		}
	}
	return 0, false
}

// ToDecimal coerces a loosely-typed amount ("25000", 25000, json.Number) to a decimal.
func ToDecimal(v interface{}) (decimal.Decimal, error) {
	s, ok := scalarString(v)
	if !ok {
		return decimal.Zero, fmt.Errorf("unsupported amount type %T", v)
	}
	return decimal.NewFromString(strings.TrimSpace(s))
}

// DisplayName builds a display name from a combined name field, falling back to
// first and last name when the combined form is absent.
func DisplayName(rec models.Record) string {
	if name := PickString(rec, StudentNameAliases...); name != "" {
		return strings.TrimSpace(name)
	}
	first := PickString(rec, FirstNameAliases...)
	last := PickString(rec, LastNameAliases...)
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

// SplitName splits a combined full name into first name and the remainder.
func SplitName(full string) (first, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

func lookup(rec models.Record, path string) (interface{}, bool) {
	var cur interface{} = map[string]interface{}(rec)
	for _, segment := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[segment]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case models.Record:
		return m, true
	default:
		return nil, false
	}
}

func isEmpty(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	default:
		return false
	}
}

func scalarString(v interface{}) (string, bool) {
	switch v.(type) {
	case map[string]interface{}, models.Record, []interface{}:
		return "", false
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", false
	}
	return s, true
}
