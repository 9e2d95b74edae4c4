// Package display records what the viewer shows.
//
// [Recorder] implements the viewer's Sink and RouteWriter. Instead of
// drawing anything it keeps a snapshot of the current display state
// (open, route, progress, placeholder, rendition, metadata, controls) and
// a bounded ring of events, which the HTTP control API serves to a front
// end. Long-polling clients wait on [Recorder.Changed].
package display
