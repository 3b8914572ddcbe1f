package query

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"regoffice/pkg/platform/sentinel"
)

// Document is the schemaless record shape collections store and criteria
// evaluate against. Nested documents are Documents, arrays are []any.
type Document = map[string]any

// Matches evaluates a criteria tree against a document. It is the reference
// semantics every gateway implementation must agree with.
func Matches(doc Document, c Criteria) (bool, error) {
	if !c.IsLeaf() {
		switch c.Join {
		case JoinAnd:
			for _, child := range c.Children {
				ok, err := Matches(doc, child)
				if err != nil || !ok {
					return false, err
				}
			}
			return true, nil
		case JoinOr:
			for _, child := range c.Children {
				ok, err := Matches(doc, child)
				if err != nil {
					return false, err
				}
				if ok {
					return true, nil
				}
			}
			return false, nil
		default:
			return false, fmt.Errorf("%w: unknown join %q", sentinel.ErrInvalidQuery, c.Join)
		}
	}
	values := Resolve(doc, c.Field)
	return leafMatches(values, c)
}

// Resolve walks a dotted path through nested documents, fanning out across
// array elements. It returns every non-nil value found at the path.
func Resolve(doc Document, path string) []any {
	current := []any{doc}
	for _, token := range strings.Split(path, ".") {
		var next []any
		for _, v := range current {
			switch tv := v.(type) {
			case Document:
				if child, ok := tv[token]; ok {
					next = append(next, spread(child)...)
				}
			case []any:
				for _, elem := range tv {
					if m, ok := elem.(Document); ok {
						if child, ok := m[token]; ok {
							next = append(next, spread(child)...)
						}
					}
				}
			}
		}
		current = next
		if len(current) == 0 {
			return nil
		}
	}
	out := current[:0:0]
	for _, v := range current {
		if v != nil {
			out = append(out, v)
		}
	}
	return out
}

// spread flattens one level of array nesting so per-element matching applies
// to array fields.
func spread(v any) []any {
	if arr, ok := v.([]any); ok {
		return arr
	}
	return []any{v}
}

func leafMatches(values []any, c Criteria) (bool, error) {
	switch c.Op {
	case OpExists:
		want, ok := c.Value.(bool)
		if !ok {
			return false, fmt.Errorf("%w: EXISTS requires a bool operand", sentinel.ErrInvalidQuery)
		}
		return (len(values) > 0) == want, nil

	case OpEq:
		for _, v := range values {
			if equal(v, c.Value) {
				return true, nil
			}
		}
		return false, nil

	case OpNe:
		// $ne convention: matches only when no element equals, and matches
		// documents missing the field entirely.
		for _, v := range values {
			if equal(v, c.Value) {
				return false, nil
			}
		}
		return true, nil

	case OpIn:
		members, ok := c.Value.([]any)
		if !ok {
			return false, fmt.Errorf("%w: IN requires a value list", sentinel.ErrInvalidQuery)
		}
		for _, v := range values {
			for _, m := range members {
				if equal(v, m) {
					return true, nil
				}
			}
		}
		return false, nil

	case OpGt, OpGte, OpLt, OpLte:
		for _, v := range values {
			cmp, comparable := order(v, c.Value)
			if !comparable {
				continue
			}
			switch c.Op {
			case OpGt:
				if cmp > 0 {
					return true, nil
				}
			case OpGte:
				if cmp >= 0 {
					return true, nil
				}
			case OpLt:
				if cmp < 0 {
					return true, nil
				}
			case OpLte:
				if cmp <= 0 {
					return true, nil
				}
			}
		}
		return false, nil

	case OpRegex:
		pattern, ok := c.Value.(string)
		if !ok {
			return false, fmt.Errorf("%w: REGEX requires a string pattern", sentinel.ErrInvalidQuery)
		}
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return false, fmt.Errorf("%w: %v", sentinel.ErrInvalidQuery, err)
		}
		for _, v := range values {
			if s, ok := v.(string); ok && re.MatchString(s) {
				return true, nil
			}
		}
		return false, nil

	default:
		return false, fmt.Errorf("%w: unknown operator %q", sentinel.ErrInvalidQuery, c.Op)
	}
}

// equal compares a document value against a criteria operand, coercing
// across the numeric types and time representations JSON round-trips
// produce.
func equal(docVal, operand any) bool {
	if docVal == nil || operand == nil {
		return docVal == nil && operand == nil
	}
	if df, dok := asFloat(docVal); dok {
		if of, ook := asFloat(operand); ook {
			return df == of
		}
		return false
	}
	if dt, dok := asTime(docVal); dok {
		if ot, ook := asTime(operand); ook {
			return dt.Equal(ot)
		}
	}
	switch dv := docVal.(type) {
	case string:
		os, ok := operand.(string)
		return ok && dv == os
	case bool:
		ob, ok := operand.(bool)
		return ok && dv == ob
	}
	return docVal == operand
}

// order compares a document value against an operand, returning -1/0/1 and
// whether the pair was comparable at all. Incomparable pairs simply fail to
// match rather than erroring, matching document-store behavior.
func order(docVal, operand any) (int, bool) {
	if df, ok := asFloat(docVal); ok {
		if of, ook := asFloat(operand); ook {
			switch {
			case df < of:
				return -1, true
			case df > of:
				return 1, true
			}
			return 0, true
		}
		return 0, false
	}
	if dt, ok := asTime(docVal); ok {
		if ot, ook := asTime(operand); ook {
			switch {
			case dt.Before(ot):
				return -1, true
			case dt.After(ot):
				return 1, true
			}
			return 0, true
		}
		return 0, false
	}
	if ds, ok := docVal.(string); ok {
		if os, ook := operand.(string); ook {
			return strings.Compare(ds, os), true
		}
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// asTime recognizes native times and the RFC 3339 strings they become after
// a JSON round-trip through a document.
func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed, true
		}
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// Less orders two document values for sorting. Missing values sort first.
func Less(a, b any) bool {
	if a == nil {
		return b != nil
	}
	if b == nil {
		return false
	}
	if cmp, ok := order(a, b); ok {
		return cmp < 0
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}
