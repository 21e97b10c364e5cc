package windowz

import "fmt"

// entry is a window element in its internal representation: arrival time in
// milliseconds since the Unix epoch plus the submitted value. Arrival order
// and timestamp order coincide because timestamps come from a non-decreasing
// clock at submission time.
type entry[T any] struct {
	atMs  int64
	value T
}

// windowState is the actor's complete state, threaded as a value through
// each message handler. Handlers return a replacement state instead of
// mutating in place, which keeps the expire fold testable without the actor
// goroutine.
type windowState[T, S any] struct {
	entries []entry[T]
	state   S
}

// arrive appends e to the window and runs the configured update callback.
// For aggregating windows the callback's return value replaces the
// aggregate. The append commits even if the callback panics; the aggregate
// does not.
func (w *RollingWindow[T, S]) arrive(st windowState[T, S], e entry[T]) (windowState[T, S], error) {
	next := windowState[T, S]{
		entries: append(st.entries, e),
		state:   st.state,
	}
	switch {
	case w.updateState != nil:
		s, err := fold(w.updateState, next.state, e.value, "update")
		if err != nil {
			return next, err
		}
		next.state = s
	case w.update != nil:
		if err := observe(w.update, e.value, "update"); err != nil {
			return next, err
		}
	}
	return next, nil
}

// sweep evicts every entry older than the window length at nowMs, folding
// the expire callback over the evicted entries oldest-first. The trimmed
// window and the final folded aggregate commit together, after the whole
// fold has succeeded; if any callback panics, st is returned unchanged.
func (w *RollingWindow[T, S]) sweep(st windowState[T, S], nowMs int64) (windowState[T, S], error) {
	// Entries are ordered oldest-first, so the expired set is a prefix.
	cut := 0
	for cut < len(st.entries) && nowMs-st.entries[cut].atMs > w.lengthMs {
		cut++
	}
	if cut == 0 {
		return st, nil
	}
	expired := st.entries[:cut]
	kept := st.entries[cut:]

	next := windowState[T, S]{state: st.state}
	switch {
	case w.expireState != nil:
		s := st.state
		for _, e := range expired {
			var err error
			s, err = fold(w.expireState, s, e.value, "expire")
			if err != nil {
				return st, err
			}
		}
		next.state = s
	case w.expire != nil:
		for _, e := range expired {
			if err := observe(w.expire, e.value, "expire"); err != nil {
				return st, err
			}
		}
	}
	// Copy so the evicted prefix is released to the GC.
	next.entries = append([]entry[T](nil), kept...)
	return next, nil
}

// observe runs a side-effect callback, converting a panic into a
// CallbackError.
func observe[T any](fn func(T), item T, callback string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewCallbackError(item, panicError(r), callback)
		}
	}()
	fn(item)
	return nil
}

// fold runs a state-shaped callback, converting a panic into a
// CallbackError. On panic the input state is returned so the caller never
// commits a partial result.
func fold[T, S any](fn func(S, T) S, state S, item T, callback string) (next S, err error) {
	defer func() {
		if r := recover(); r != nil {
			next = state
			err = NewCallbackError(item, panicError(r), callback)
		}
	}()
	return fn(state, item), nil
}

// panicError normalizes a recovered panic value into an error.
func panicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", r)
}
