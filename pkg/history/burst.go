package history

import "time"

// DefaultBurstDelay is the idle gap that ends a typing burst.
const DefaultBurstDelay = 2 * time.Second

// Burst coalesces a run of keystrokes into one undo step. The first
// keystroke after an idle gap of at least Delay is due for a commit; later
// keystrokes are not, and each one extends the burst.
type Burst struct {
	Delay time.Duration
	Now   func() time.Time

	last   time.Time
	active bool
}

// NewBurst returns a Burst using the wall clock.
func NewBurst(delay time.Duration) *Burst {
	if delay <= 0 {
		delay = DefaultBurstDelay
	}
	return &Burst{Delay: delay, Now: time.Now}
}

// Keystroke records a keystroke and reports whether the caller should
// commit an undo step before applying it.
func (b *Burst) Keystroke() bool {
	now := b.now()
	due := !b.active || now.Sub(b.last) >= b.Delay
	b.last = now
	b.active = true
	return due
}

// Reset ends the current burst, so the next keystroke commits. Selection
// changes call this.
func (b *Burst) Reset() {
	b.active = false
}

// Active reports whether a burst is in progress.
func (b *Burst) Active() bool {
	return b.active && b.now().Sub(b.last) < b.Delay
}

func (b *Burst) now() time.Time {
	if b.Now == nil {
		return time.Now()
	}
	return b.Now()
}
