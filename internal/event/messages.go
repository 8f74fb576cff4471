package event

import (
	"time"

	"github.com/google/uuid"
)

// RefreshTrigger asks the route cache to reload routes from its
// upstream source. It carries only the identity of its origin.
type RefreshTrigger struct {
	// ID identifies this trigger in logs and results.
	ID string
	// Source names the component that originated the trigger.
	Source string
}

// NewRefreshTrigger creates a trigger originating from source.
func NewRefreshTrigger(source string) RefreshTrigger {
	return RefreshTrigger{
		ID:     uuid.NewString(),
		Source: source,
	}
}

// RefreshResult reports the outcome of one route table reload.
// The reload succeeded iff Err is nil.
type RefreshResult struct {
	// TriggerID is the id of the trigger that started the reload.
	TriggerID string
	// Coalesced is the number of additional triggers served by this reload.
	Coalesced int
	// Generation is the snapshot generation published on success, or the
	// generation that stayed published on failure.
	Generation uint64
	// Routes is the number of routes in the published snapshot.
	Routes int
	// Duration is how long the reload took.
	Duration time.Duration
	// Err is the failure cause.
	Err error
}

// Success reports whether the reload published a new snapshot.
func (r RefreshResult) Success() bool {
	return r.Err == nil
}

// EnableBodyCaching asks the body cache registry to buffer request
// bodies for a route.
type EnableBodyCaching struct {
	RouteID string
}
