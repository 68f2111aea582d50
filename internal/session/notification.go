package session

import "github.com/zipxxx1/GravityBox-sub001/internal/progress"

// Notification is one host notification event as seen by the tracker. It is
// produced by host glue and treated as read-only.
type Notification struct {
	SourceID  string
	Tag       string // empty when the notification has no tag
	ID        int
	Clearable bool

	// Tracking is the explicit marker a source sets to opt into progress
	// mirroring without being on the allow-list.
	Tracking bool

	// Actions is nil when the notification carries no content payload.
	Actions []progress.Record
}

// Identity is the session a qualifying notification belongs to.
type Identity struct {
	Key string

	// Download is set for sessions keyed by the multiplexed download
	// source. Consumers use it to pick an icon or label variant.
	Download bool
}
