package graph

import (
	"reflect"
	"strings"
)

// Hint is an optional type constraint on a data channel, expressed as a
// union of Go types. A nil *Hint means unconstrained.
type Hint struct {
	types []reflect.Type
}

// HintOf builds a hint for a single Go type.
func HintOf[T any]() *Hint {
	return &Hint{types: []reflect.Type{reflect.TypeOf((*T)(nil)).Elem()}}
}

// Union merges several hints into one that admits any of their types.
func Union(hints ...*Hint) *Hint {
	merged := &Hint{}
	for _, h := range hints {
		if h == nil {
			// An unconstrained member makes the whole union unconstrained.
			return nil
		}
		merged.types = append(merged.types, h.types...)
	}
	return merged
}

// Satisfies reports whether a concrete value conforms to the hint.
// The NoValue sentinel never satisfies a hint.
func (h *Hint) Satisfies(v any) bool {
	if h == nil {
		return HasData(v)
	}
	if !HasData(v) {
		return false
	}
	vt := reflect.TypeOf(v)
	for _, t := range h.types {
		if vt == nil {
			// Untyped nil conforms only to nilable hint members.
			switch t.Kind() {
			case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
				return true
			}
			continue
		}
		if vt.AssignableTo(t) {
			return true
		}
		if t.Kind() == reflect.Interface && vt.Implements(t) {
			return true
		}
	}
	return false
}

// Accepts reports whether this hint, as a connection target, can take
// everything the source hint may produce. An absent target hint accepts
// anything; an absent source hint is only acceptable to an absent target.
func (h *Hint) Accepts(source *Hint) bool {
	if h == nil {
		return true
	}
	if source == nil {
		return false
	}
	for _, st := range source.types {
		ok := false
		for _, tt := range h.types {
			if st.AssignableTo(tt) || (tt.Kind() == reflect.Interface && st.Implements(tt)) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func (h *Hint) String() string {
	if h == nil {
		return "any"
	}
	names := make([]string, len(h.types))
	for i, t := range h.types {
		names[i] = t.String()
	}
	return strings.Join(names, " | ")
}
