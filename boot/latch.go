package boot

import "sync/atomic"

// Latch is the boot loop flag. It starts held and can only be cleared; once
// cleared, the servicing loop falls through to the control transfer.
//
// Clear may be called from interrupt handlers and collaborator drivers, for
// example on a fatal USB error or after a completed download.
type Latch struct {
	cleared atomic.Bool
}

// Held reports whether the servicing loop may continue.
func (l *Latch) Held() bool {
	return !l.cleared.Load()
}

// Clear releases the latch. It cannot be set again.
func (l *Latch) Clear() {
	l.cleared.Store(true)
}
