package registry

import (
	handlersystem "github.com/wippyai/handler-system"
)

// StableID identifies one insertion. IDs are allocated sequentially and are
// never reused, even after the object is removed.
type StableID uint64

// Handle is an opaque reference to an object in a Registry.
// Handle 0 is reserved and always invalid.
type Handle uint64

// handleOf wraps a stable id.
func handleOf(id StableID) Handle {
	return Handle(id + 1)
}

// ID returns the stable id wrapped by the handle.
// The result is meaningless for the zero handle.
func (h Handle) ID() StableID {
	return StableID(h - 1)
}

// Valid reports whether h could have been issued by Insert.
func (h Handle) Valid() bool {
	return h != 0
}

// Capability is the position of a declared capability in a Registry.
type Capability int

// Event types for registry lifecycle notifications.
type EventType uint8

const (
	EventInserted EventType = iota
	EventRemoved
	EventEvicted
	EventCleared
)

func (t EventType) String() string {
	switch t {
	case EventInserted:
		return "inserted"
	case EventRemoved:
		return "removed"
	case EventEvicted:
		return "evicted"
	case EventCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// Event represents a registry lifecycle event.
// Object is nil for EventEvicted; Capability is set only for EventEvicted.
type Event struct {
	Object     handlersystem.Object
	Capability string
	Handle     Handle
	Type       EventType
}

// Observer receives notifications about registry lifecycle events.
type Observer interface {
	OnRegistryEvent(Event)
}

// Dropper is optionally implemented by objects that need cleanup when the
// registry discards them in Clear. Objects returned by Remove are owned by
// the caller and are not dropped.
type Dropper interface {
	Drop()
}

// Options configures a Registry.
type Options struct {
	Observers []Observer
	// Capacity presizes the object store and indices. Negative means 0.
	Capacity int
}

// DefaultOptions returns default registry configuration.
func DefaultOptions() Options {
	return Options{
		Capacity: 64,
	}
}
