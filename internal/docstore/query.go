package docstore

import (
	"fmt"
	"sort"
)

// Filter matches documents whose top-level Field equals Value.
type Filter struct {
	Field string
	Value any
}

// Query filters and orders a collection listing. Documents missing the
// OrderBy field sort last; ties keep creation order.
type Query struct {
	Where   []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

// Where returns a query with a single equality filter.
func Where(field string, value any) Query {
	return Query{Where: []Filter{{Field: field, Value: value}}}
}

// Order returns a copy of q ordered by field ascending.
func (q Query) Order(field string) Query {
	q.OrderBy = field
	q.Desc = false
	return q
}

func (q Query) apply(docs []Document) []Document {
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if q.matches(d) {
			out = append(out, d)
		}
	}
	if q.OrderBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			a, aok := out[i].Data[q.OrderBy]
			b, bok := out[j].Data[q.OrderBy]
			switch {
			case !aok || !bok:
				return aok && !bok
			case q.Desc:
				return less(b, a)
			default:
				return less(a, b)
			}
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func (q Query) matches(d Document) bool {
	for _, f := range q.Where {
		v, ok := d.Data[f.Field]
		if !ok || !equal(v, f.Value) {
			return false
		}
	}
	return true
}

func equal(a, b any) bool {
	if af, ok := number(a); ok {
		bf, ok := number(b)
		return ok && af == bf
	}
	switch av := a.(type) {
	case string, bool:
		return a == b
	case nil:
		return b == nil
	default:
		return fmt.Sprint(av) == fmt.Sprint(b)
	}
}

func less(a, b any) bool {
	if af, ok := number(a); ok {
		if bf, ok := number(b); ok {
			return af < bf
		}
		return true
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return as < bs
		}
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}
