package graph

// Values is a labelled record of channel data, keyed by channel label.
type Values map[string]any

// Copy returns a shallow copy so callers can't mutate channel-held records.
func (v Values) Copy() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

type noValue struct{}

func (noValue) String() string { return "<no value>" }

// NoValue is the sentinel held by a data channel that has never received
// data. It is distinct from nil, which is a perfectly valid value: an
// unconnected optional input keeps whatever the user set, and fetching
// skips sources that still hold NoValue.
var NoValue any = noValue{}

// HasData reports whether v is real data rather than the NoValue sentinel.
func HasData(v any) bool {
	_, absent := v.(noValue)
	return !absent
}
