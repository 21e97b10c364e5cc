// Package windowz provides a rolling time-window over a stream of submitted
// items: each item is timestamped on arrival, surfaced to an optional update
// callback, and evicted by a periodic sweep once its age exceeds the window
// length, firing an optional expire callback.
//
// A window optionally carries a caller-defined aggregate that is threaded
// through both callbacks, so running computations ("5-minute moving average")
// fall out of the callback signatures without the caller managing timers or
// buffers.
//
// All mutations flow through a single goroutine, so callbacks never race with
// arrivals, queries, or sweeps. The trade-off is explicit: a slow callback
// stalls every other operation on the same window.
//
// Basic usage:
//
//	w := windowz.New[Request](5*time.Minute, windowz.RealClock).
//		OnExpire(func(r Request) { releaseQuota(r) })
//	if err := w.Start(); err != nil {
//		log.Fatal(err)
//	}
//	defer w.Stop()
//
//	w.Submit(req)
//	recent, _ := w.Snapshot()
//
// Aggregating usage:
//
//	w := windowz.NewAggregating[float64, float64](5*time.Minute, 0, windowz.RealClock).
//		OnUpdateState(func(sum, v float64) float64 { return sum + v }).
//		OnExpireState(func(sum, v float64) float64 { return sum - v })
//
// Time is always taken from the injected Clock, so tests drive arrivals and
// sweeps deterministically with a fake clock.
package windowz

// UpdateFunc observes an item as it arrives in the window.
// Used by windows constructed with New; it cannot modify any state.
type UpdateFunc[T any] func(item T)

// ExpireFunc observes an item as a sweep evicts it from the window.
// Used by windows constructed with New.
type ExpireFunc[T any] func(item T)

// StateUpdateFunc folds an arriving item into the window's aggregate,
// returning the replacement aggregate. Used by windows constructed with
// NewAggregating. The argument order matches aggregation functions elsewhere
// in this family of libraries: state first, item second.
type StateUpdateFunc[T, S any] func(state S, item T) S

// StateExpireFunc folds an evicted item out of the window's aggregate,
// returning the replacement aggregate. During a sweep it is applied to every
// expired item oldest-first, each call receiving the previous call's result.
type StateExpireFunc[T, S any] func(state S, item T) S
