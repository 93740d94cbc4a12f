package detector

import "sync/atomic"

var lastID uint64

// nextID is monotonic, so a forked node always has a greater id than the
// node it was forked from.
func nextID() uint64 {
	return atomic.AddUint64(&lastID, 1)
}
