package windowz

import (
	"time"
)

// Entry is one element of a window snapshot: the item together with the
// calendar time at which it arrived. Entries are immutable once created.
type Entry[T any] struct {
	Timestamp time.Time
	Value     T
}
