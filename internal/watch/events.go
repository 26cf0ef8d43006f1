package watch

import "time"

// Changed reports that a file inside a watched group changed on disk, or that
// a scheduled refresh asked for the group to be rebuilt.
type Changed struct {
	Group string
	Path  string
	Cause string
	At    time.Time
}

// Rebuild is emitted by the Debouncer once a burst of Changed events has
// settled. Groups is sorted and free of duplicates.
type Rebuild struct {
	Groups       []string
	RequestCount int
	FirstRequest time.Time
	LastRequest  time.Time
	Cause        string // "quiet", "max_delay" or "after_running"
}
