package reconcile

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// NaturalLess returns a comparator ordering strings the way a person reads
// room numbers ("2" < "10" < "A-101"). The returned func owns a collator and
// must not be shared across goroutines.
func NaturalLess() func(a, b string) bool {
	c := collate.New(language.English, collate.Numeric, collate.IgnoreCase)
	return func(a, b string) bool {
		return c.CompareString(a, b) < 0
	}
}

// ByField orders rows by a string field using natural ordering.
func ByField(field string) func(a, b Row) bool {
	less := NaturalLess()
	return func(a, b Row) bool {
		return less(PickString(a.Fields, field), PickString(b.Fields, field))
	}
}
