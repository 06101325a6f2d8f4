package domain

import "time"

// Submission is a per-(round, connection) record of a raw answer. It is
// created once per connection per round and is never mutated afterward.
type Submission struct {
	ConnID    string
	RawAnswer string
	Timestamp time.Time
}
