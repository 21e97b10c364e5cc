package windowz

import (
	"sync"
	"time"
)

// inboxSize bounds the actor's command buffer. Submit is fire-and-forget
// until the buffer fills, at which point it blocks until the actor catches
// up; back-pressure beyond that is out of scope.
const inboxSize = 64

// RollingWindow maintains a fixed-length trailing time window over submitted
// items. Items enter through Submit, become visible to Snapshot, and are
// evicted by a periodic sweep once their age exceeds the window length.
//
// All state lives behind a single goroutine that processes one command at a
// time, so callbacks, arrivals, queries, and sweeps never interleave.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type RollingWindow[T, S any] struct {
	name       string
	length     time.Duration
	lengthMs   int64
	sweepEvery time.Duration
	sweepSet   bool
	clock      Clock

	update      UpdateFunc[T]
	expire      ExpireFunc[T]
	updateState StateUpdateFunc[T, S]
	expireState StateExpireFunc[T, S]
	aggregating bool
	initial     S

	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
	cmds     chan command[T, S]
	stop     chan struct{}
	done     chan struct{}
	failure  error // written by the actor before done closes
}

// cmdKind discriminates the actor's inbox commands.
type cmdKind int

const (
	cmdSubmit cmdKind = iota
	cmdSnapshot
	cmdState
	cmdLen
	cmdSweep
)

// command is one message in the actor's serialized inbox. Reply channels
// are buffered (capacity 1) so the actor never blocks sending a response.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type command[T, S any] struct {
	kind  cmdKind
	entry entry[T]
	snap  chan []Entry[T]
	state chan aggregate[S]
	size  chan int
	swept chan struct{}
}

// aggregate pairs the window's aggregate value with its presence flag:
// present is false for windows built with New, which carry no aggregate.
type aggregate[S any] struct {
	value   S
	present bool
}

// New creates a rolling time window without an aggregate. Items older than
// length are evicted by a periodic sweep.
//
// When to use:
//   - Keeping the last N minutes of events queryable
//   - Releasing resources (quota, leases) when their grant ages out
//   - Sliding-window rate accounting where only membership matters
//
// Example:
//
//	// Hold the last minute of requests; release quota as they age out.
//	w := windowz.New[Request](time.Minute, windowz.RealClock).
//		OnExpire(func(r Request) { quota.Release(r) })
//	if err := w.Start(); err != nil {
//		return err
//	}
//	defer w.Stop()
//
//	w.Submit(req)
//	recent, _ := w.Snapshot()
//
// Parameters:
//   - length: Maximum age an item may reach before eviction (must be >= 1ms)
//   - clock: Clock interface for time operations
//
// Configure callbacks and the sweep cadence with OnUpdate, OnExpire, and
// WithSweepInterval before calling Start.
func New[T any](length time.Duration, clock Clock) *RollingWindow[T, struct{}] {
	return &RollingWindow[T, struct{}]{
		name:   "rolling-window",
		length: length,
		clock:  clock,
	}
}

// NewAggregating creates a rolling time window that threads a caller-defined
// aggregate through its callbacks. Each arriving item passes through the
// update callback together with the current aggregate; each evicted item
// passes through the expire callback the same way. The callback's return
// value replaces the aggregate, so running computations stay correct as the
// window slides.
//
// When to use:
//   - Moving averages and rolling sums over a time horizon
//   - Counters that must decrement as contributing events age out
//   - Any aggregate maintainable by one fold-in and one fold-out function
//
// Example:
//
//	// 5-minute rolling sum.
//	w := windowz.NewAggregating[float64, float64](5*time.Minute, 0, windowz.RealClock).
//		OnUpdateState(func(sum, v float64) float64 { return sum + v }).
//		OnExpireState(func(sum, v float64) float64 { return sum - v })
//	if err := w.Start(); err != nil {
//		return err
//	}
//	defer w.Stop()
//
//	w.Submit(3.5)
//	sum, _, _ := w.State()
//
// Parameters:
//   - length: Maximum age an item may reach before eviction (must be >= 1ms)
//   - initial: Starting aggregate value
//   - clock: Clock interface for time operations
//
// Aggregating windows take the state-shaped callbacks (OnUpdateState,
// OnExpireState); the side-effect shapes are rejected by Start.
func NewAggregating[T, S any](length time.Duration, initial S, clock Clock) *RollingWindow[T, S] {
	return &RollingWindow[T, S]{
		name:        "rolling-window",
		length:      length,
		clock:       clock,
		aggregating: true,
		initial:     initial,
	}
}

// OnUpdate sets the callback observing each arriving item.
// Only valid for windows created with New.
func (w *RollingWindow[T, S]) OnUpdate(fn UpdateFunc[T]) *RollingWindow[T, S] {
	w.update = fn
	return w
}

// OnExpire sets the callback observing each evicted item.
// Only valid for windows created with New.
func (w *RollingWindow[T, S]) OnExpire(fn ExpireFunc[T]) *RollingWindow[T, S] {
	w.expire = fn
	return w
}

// OnUpdateState sets the callback folding each arriving item into the
// aggregate. Only valid for windows created with NewAggregating.
func (w *RollingWindow[T, S]) OnUpdateState(fn StateUpdateFunc[T, S]) *RollingWindow[T, S] {
	w.updateState = fn
	return w
}

// OnExpireState sets the callback folding each evicted item out of the
// aggregate. Only valid for windows created with NewAggregating.
func (w *RollingWindow[T, S]) OnExpireState(fn StateExpireFunc[T, S]) *RollingWindow[T, S] {
	w.expireState = fn
	return w
}

// WithSweepInterval overrides the sweep cadence. The default is length/100
// clamped to [1ms, 1s]: a shorter interval evicts sooner at the cost of more
// wakeups, a longer one lets entries linger up to that long past their
// deadline.
func (w *RollingWindow[T, S]) WithSweepInterval(d time.Duration) *RollingWindow[T, S] {
	w.sweepEvery = d
	w.sweepSet = true
	return w
}

// Name returns a descriptive name for the window, useful for debugging.
func (w *RollingWindow[T, S]) Name() string {
	return w.name
}

// Start validates the configuration, arms the sweep ticker, and launches the
// actor goroutine. Returns a *ConfigError for invalid configuration. A
// stopped window cannot be restarted.
func (w *RollingWindow[T, S]) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrAlreadyStarted
	}
	if err := w.validate(); err != nil {
		return err
	}

	w.lengthMs = w.length.Milliseconds()
	if !w.sweepSet {
		w.sweepEvery = defaultSweepInterval(w.length)
	}
	w.cmds = make(chan command[T, S], inboxSize)
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	w.started = true

	go w.run(w.clock.NewTicker(w.sweepEvery))
	return nil
}

func (w *RollingWindow[T, S]) validate() error {
	if w.clock == nil {
		return &ConfigError{Option: "clock", Reason: "must not be nil"}
	}
	if w.length <= 0 {
		return &ConfigError{Option: "window length", Reason: "must be positive"}
	}
	if w.length < time.Millisecond {
		return &ConfigError{Option: "window length", Reason: "must be at least one millisecond"}
	}
	if w.sweepSet && w.sweepEvery <= 0 {
		return &ConfigError{Option: "sweep interval", Reason: "must be positive"}
	}
	if w.aggregating && (w.update != nil || w.expire != nil) {
		return &ConfigError{Option: "callbacks", Reason: "aggregating windows take OnUpdateState/OnExpireState"}
	}
	if !w.aggregating && (w.updateState != nil || w.expireState != nil) {
		return &ConfigError{Option: "callbacks", Reason: "state-shaped callbacks require NewAggregating"}
	}
	return nil
}

// defaultSweepInterval picks a sweep cadence proportional to the window
// length, clamped so short windows do not busy-poll and long windows still
// evict promptly.
func defaultSweepInterval(length time.Duration) time.Duration {
	d := length / 100
	if d < time.Millisecond {
		return time.Millisecond
	}
	if d > time.Second {
		return time.Second
	}
	return d
}

// Stop cancels the sweep ticker and waits for the actor to exit. It is
// idempotent and safe to call concurrently. If the window terminated because
// a callback panicked, Stop returns that *CallbackError; otherwise nil.
func (w *RollingWindow[T, S]) Stop() error {
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()
	if !started {
		return nil
	}

	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
	return w.failure
}

func (w *RollingWindow[T, S]) run(ticker Ticker) {
	defer close(w.done)
	defer ticker.Stop()

	st := windowState[T, S]{state: w.initial}
	for {
		select {
		case <-w.stop:
			return

		case <-ticker.C():
			var err error
			if st, err = w.sweep(st, w.clock.Now().UnixMilli()); err != nil {
				w.failure = err
				return
			}

		case cmd := <-w.cmds:
			// A tick that fired before this command was dequeued is applied
			// first, so a query never observes entries past their eviction
			// deadline by more than one interval.
			select {
			case <-ticker.C():
				var err error
				if st, err = w.sweep(st, w.clock.Now().UnixMilli()); err != nil {
					w.failure = err
					return
				}
			default:
			}

			var err error
			if st, err = w.apply(st, cmd); err != nil {
				w.failure = err
				return
			}
		}
	}
}

func (w *RollingWindow[T, S]) apply(st windowState[T, S], cmd command[T, S]) (windowState[T, S], error) {
	switch cmd.kind {
	case cmdSubmit:
		return w.arrive(st, cmd.entry)

	case cmdSnapshot:
		out := make([]Entry[T], len(st.entries))
		for i, e := range st.entries {
			out[i] = Entry[T]{Timestamp: time.UnixMilli(e.atMs), Value: e.value}
		}
		cmd.snap <- out

	case cmdState:
		cmd.state <- aggregate[S]{value: st.state, present: w.aggregating}

	case cmdLen:
		cmd.size <- len(st.entries)

	case cmdSweep:
		next, err := w.sweep(st, w.clock.Now().UnixMilli())
		if err != nil {
			return st, err
		}
		cmd.swept <- struct{}{}
		return next, nil
	}
	return st, nil
}

// Submit enqueues an item, stamping it with the clock's current time. It
// does not wait for the actor to process the arrival. Returns ErrNotStarted
// before Start and the window's terminal error after Stop or a callback
// failure.
func (w *RollingWindow[T, S]) Submit(item T) error {
	if err := w.running(); err != nil {
		return err
	}
	cmd := command[T, S]{
		kind:  cmdSubmit,
		entry: entry[T]{atMs: w.clock.Now().UnixMilli(), value: item},
	}
	select {
	case w.cmds <- cmd:
		return nil
	case <-w.done:
		return w.closedErr()
	}
}

// Snapshot returns the window's entries in arrival order, each paired with
// its arrival time. The result reflects exactly the entries present when the
// actor processes the request; commands already enqueued by this caller are
// ordered before it.
func (w *RollingWindow[T, S]) Snapshot() ([]Entry[T], error) {
	if err := w.running(); err != nil {
		return nil, err
	}
	reply := make(chan []Entry[T], 1)
	return call(w, command[T, S]{kind: cmdSnapshot, snap: reply}, reply)
}

// State returns the current aggregate. The boolean reports whether the
// window carries an aggregate at all: windows created with New return false.
func (w *RollingWindow[T, S]) State() (S, bool, error) {
	if err := w.running(); err != nil {
		var zero S
		return zero, false, err
	}
	reply := make(chan aggregate[S], 1)
	agg, err := call(w, command[T, S]{kind: cmdState, state: reply}, reply)
	if err != nil {
		var zero S
		return zero, false, err
	}
	return agg.value, agg.present, nil
}

// Len returns the number of entries currently in the window.
func (w *RollingWindow[T, S]) Len() (int, error) {
	if err := w.running(); err != nil {
		return 0, err
	}
	reply := make(chan int, 1)
	return call(w, command[T, S]{kind: cmdLen, size: reply}, reply)
}

// Sweep requests an immediate expiration pass and waits for it to complete.
// Useful when eviction latency matters more than the configured cadence, and
// for driving tests deterministically.
func (w *RollingWindow[T, S]) Sweep() error {
	if err := w.running(); err != nil {
		return err
	}
	reply := make(chan struct{}, 1)
	_, err := call(w, command[T, S]{kind: cmdSweep, swept: reply}, reply)
	return err
}

// running rejects operations on windows that never started or have already
// terminated. The done check keeps Submit from quietly parking a command in
// the buffered inbox after Stop.
func (w *RollingWindow[T, S]) running() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return ErrNotStarted
	}
	select {
	case <-w.done:
		return w.closedErr()
	default:
	}
	return nil
}

// closedErr reports why the actor is gone. Only called after observing done
// closed, which orders the failure write before the read.
func (w *RollingWindow[T, S]) closedErr() error {
	if w.failure != nil {
		return w.failure
	}
	return ErrClosed
}

// call submits cmd to the actor and waits for its reply, failing with the
// window's terminal error if the actor exits first. A reply buffered just
// before the actor terminated still counts as a success.
func call[T, S, R any](w *RollingWindow[T, S], cmd command[T, S], reply chan R) (R, error) {
	var zero R
	select {
	case w.cmds <- cmd:
	case <-w.done:
		return zero, w.closedErr()
	}
	select {
	case out := <-reply:
		return out, nil
	case <-w.done:
		select {
		case out := <-reply:
			return out, nil
		default:
			return zero, w.closedErr()
		}
	}
}
