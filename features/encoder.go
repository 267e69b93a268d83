package features

import "sort"

// Code is the resolved encoding of a categorical value. Known is false when
// the value was never seen during fitting and the fallback code was used.
type Code struct {
	Index int
	Known bool
}

// Encoder maps categorical string values to stable ordinal codes. The code
// space is [0, len(Categories)); the fallback code for unseen values is
// len(Categories).
type Encoder struct {
	Categories []string
	Codes      map[string]int
}

// FitEncoder builds an encoder over the distinct values in the column.
// Categories are sorted so the mapping is independent of input order.
func FitEncoder(values []string) *Encoder {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}

	categories := make([]string, 0, len(set))
	for v := range set {
		categories = append(categories, v)
	}
	sort.Strings(categories)

	codes := make(map[string]int, len(categories))
	for i, v := range categories {
		codes[v] = i
	}
	return &Encoder{Categories: categories, Codes: codes}
}

// Resolve returns the code for a value, falling back to the explicit
// unknown code when the value was not seen at fit time. It never fails.
func (e *Encoder) Resolve(value string) Code {
	if idx, ok := e.Codes[value]; ok {
		return Code{Index: idx, Known: true}
	}
	return Code{Index: e.FallbackCode(), Known: false}
}

// FallbackCode is the code assigned to categories unseen during fitting.
func (e *Encoder) FallbackCode() int {
	return len(e.Categories)
}

// Decode recovers the category for a code. The second return is false for
// the fallback code and for out-of-range values.
func (e *Encoder) Decode(code int) (string, bool) {
	if code < 0 || code >= len(e.Categories) {
		return "", false
	}
	return e.Categories[code], true
}
