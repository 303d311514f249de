package pegium

import (
	"sync"
	"sync/atomic"
)

// Reference is a lazy placeholder for a cross-AST pointer.  The parser
// stores the matched text; name resolution happens after parsing,
// through a resolver installed by the owner of the AST.
//
// Get resolves at most once, even under contention.  A failing
// resolver leaves the reference unresolved and later Get calls retry.
type Reference[T AstNode] struct {
	text     string
	resolver func(string) (T, bool)

	resolved atomic.Bool
	mu       sync.Mutex
	ref      T
}

// Text returns the raw reference text recorded at parse time.
func (r *Reference[T]) Text() string { return r.text }

// SetText records the raw reference text.
func (r *Reference[T]) SetText(text string) { r.text = text }

// setRefText is the parse-time write path used by assignments.
func (r *Reference[T]) setRefText(text string) { r.text = text }

// SetResolver installs the function that maps the reference text to its
// target.  Until one is installed, Get reports the reference unresolved.
func (r *Reference[T]) SetResolver(fn func(string) (T, bool)) { r.resolver = fn }

// Get returns the resolved target.  The fast path is a single atomic
// load; on a miss the resolver runs under the lock, and its result is
// published before the resolved flag.
func (r *Reference[T]) Get() (T, bool) {
	if r.resolved.Load() {
		return r.ref, true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.resolved.Load() {
		if r.resolver == nil {
			var zero T
			return zero, false
		}
		target, ok := r.resolver(r.text)
		if !ok {
			var zero T
			return zero, false
		}
		r.ref = target
		r.resolved.Store(true)
	}
	return r.ref, true
}
