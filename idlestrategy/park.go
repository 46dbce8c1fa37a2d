package idlestrategy

import "time"

// Park suspends the calling goroutine for approximately d without
// informing any cooperative scheduler running on top of it — it is the
// primitive the Sleeping, Backoff, and Controllable strategies use for
// their deepest wait state. Go's runtime already collapses a blocking
// time.Sleep to a single OS-level wait (a nanosleep-class syscall on
// Unix, a millisecond-granularity wait on Windows), so a single
// implementation suffices across platforms. Park never panics; a short
// early or late wakeup from OS/runtime preemption is acceptable.
func Park(d time.Duration) {
	if d <= 0 {
		return
	}
	time.Sleep(d)
}
