// Package viewer drives the lightbox: which item is shown, what is loading
// for it, and what reaches the display.
//
// Every navigation (open, next, prev, route change, close) bumps a
// generation counter under the orchestrator lock. The rendition, metadata
// and placeholder pipelines started by a load carry the generation they
// were started with and drop their results once it is outdated, so only
// the last navigation can change the display. Resize additionally bumps a
// rendition sequence so an older rendition of the same item cannot replace
// a newer one.
//
// Display side effects go through a Sink and are always issued while the
// lock is held. Route side effects go through a RouteWriter and are
// suppressed for navigations that a route change triggered.
package viewer
