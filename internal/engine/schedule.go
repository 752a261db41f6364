package engine

import "time"

// Polling schedules are deliberate, inspectable data rather than a computed
// backoff formula: tests assert exact wait counts and operators can read the
// worst-case wait straight off the slice.

// LongSchedule is the primary wait after a successful generation submission.
// Sums to 80s; exhausting it without an archive hit falls back to one direct
// store read before timing out.
var LongSchedule = []time.Duration{
	5 * time.Second,
	5 * time.Second,
	10 * time.Second,
	10 * time.Second,
	15 * time.Second,
	15 * time.Second,
	20 * time.Second,
}

// ShortSchedule is used for opportunistic re-checks when a generation job may
// already be running elsewhere.
var ShortSchedule = []time.Duration{
	4 * time.Second,
	6 * time.Second,
	8 * time.Second,
}
