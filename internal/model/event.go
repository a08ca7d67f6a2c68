package model

import "time"

// EventKind identifies the filesystem change that produced an event.
type EventKind string

// Filesystem event kinds.
const (
	EventCreated  EventKind = "created"
	EventModified EventKind = "modified"
	EventDeleted  EventKind = "deleted"
	EventMoved    EventKind = "moved"
)

// FileEvent is a single filesystem change observed under the watch root.
type FileEvent struct {
	Time time.Time
	Path string
	Kind EventKind
}
