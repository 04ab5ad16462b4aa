// Package predicate decides whether an action is offered for the filters
// that are active on a request.
package predicate

// Predicate evaluates against the active filter values of a request.
type Predicate interface {
	Allow(filters map[string]string) (bool, error)
}

// Func adapts a function into a Predicate.
type Func func(filters map[string]string) (bool, error)

// Allow delegates to the underlying function. A nil Func allows everything.
func (fn Func) Allow(filters map[string]string) (bool, error) {
	if fn == nil {
		return true, nil
	}
	return fn(filters)
}

// Always allows every request.
var Always Predicate = Func(nil)

// Allow evaluates p, treating a nil predicate as allowing.
func Allow(p Predicate, filters map[string]string) (bool, error) {
	if p == nil {
		return true, nil
	}
	return p.Allow(filters)
}

// FilterEquals allows requests where filter name has exactly value.
func FilterEquals(name, value string) Predicate {
	return Func(func(filters map[string]string) (bool, error) {
		got, ok := filters[name]
		return ok && got == value, nil
	})
}
