package action

// Outcome reports what a dispatched action did.
type Outcome struct {
	Action    string         `json:"action,omitempty"`
	Bulk      bool           `json:"bulk,omitempty"`
	Links     []string       `json:"links,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Processed int            `json:"processed"`
	Failed    string         `json:"failed,omitempty"`
	Error     string         `json:"error,omitempty"`
	Refetch   bool           `json:"refetch"`
	Err       error          `json:"-"`
}

// Ran reports whether an action was dispatched.
func (o Outcome) Ran() bool { return o.Action != "" }

func (o *Outcome) fail(id string, err error) {
	o.Failed = id
	o.Err = err
	if err != nil {
		o.Error = err.Error()
	}
}

func (o *Outcome) merge(result any) {
	m, ok := result.(map[string]any)
	if !ok {
		return
	}
	if o.Data == nil {
		o.Data = make(map[string]any, len(m))
	}
	Merge(o.Data, m)
}

// Merge folds src into dst. Numbers are summed, slices are appended and any
// other value replaces the previous one.
func Merge(dst, src map[string]any) {
	for key, value := range src {
		existing, ok := dst[key]
		if !ok {
			dst[key] = value
			continue
		}
		dst[key] = combine(existing, value)
	}
}

func combine(a, b any) any {
	if ai, ok := asInt(a); ok {
		if bi, ok := asInt(b); ok {
			return ai + bi
		}
	}
	if af, ok := asFloat(a); ok {
		if bf, ok := asFloat(b); ok {
			return af + bf
		}
	}
	switch av := a.(type) {
	case []any:
		if bv, ok := b.([]any); ok {
			return append(append([]any(nil), av...), bv...)
		}
	case []string:
		if bv, ok := b.([]string); ok {
			return append(append([]string(nil), av...), bv...)
		}
	}
	return b
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	if i, ok := asInt(v); ok {
		return float64(i), true
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}
