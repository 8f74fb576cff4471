// Package event implements the in-process message passing that connects
// administrative trigger sources to the route cache and body cache
// registry.
//
// A Bus is constructed explicitly at gateway startup and handed to every
// collaborator; there is no process-wide bus. Handlers subscribe by
// message type:
//
//	bus := event.NewBus()
//	unsubscribe := event.Subscribe(bus, func(r event.RefreshResult) {
//	    if !r.Success() {
//	        logger.Error("refresh failed", observability.Error(r.Err))
//	    }
//	})
//	defer unsubscribe()
//
//	bus.Publish(event.NewRefreshTrigger("admin"))
//
// Delivery is synchronous, in subscription order, on the publishing
// goroutine. Handlers that need to do slow work must hand it off.
package event
