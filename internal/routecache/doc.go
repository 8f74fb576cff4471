// Package routecache holds the route snapshot the gateway is currently
// serving and reloads it from an upstream source on demand.
//
// Readers never block: Routes and Snapshot load the current snapshot
// with a single atomic read and keep using it for as long as they need.
// A reload builds a complete new snapshot and swaps it in; a failed
// reload leaves the previous snapshot published. Every executed reload
// publishes one event.RefreshResult on the bus.
//
// Reloads are started by event.RefreshTrigger messages and run on a
// goroutine owned by the cache. Triggers that arrive while a reload is
// running are folded into a single follow-up reload, so a burst of
// triggers costs at most two upstream fetches and the last trigger is
// always followed by a fetch that started after it.
package routecache
