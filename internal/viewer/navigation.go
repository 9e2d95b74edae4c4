package viewer

import (
	"media-lightbox/internal/routing"
)

// NavigationState is what the viewer is showing.
type NavigationState struct {
	CurrentIndex int  `json:"currentIndex"`
	IsOpen       bool `json:"isOpen"`
	// FromHistory is set while a navigation driven by a route change is
	// applied; it suppresses writing the route back.
	FromHistory bool `json:"fromHistory"`
}

// Navigator owns the NavigationState and the route side effects.
// It is not safe for concurrent use; the orchestrator serializes access.
type Navigator struct {
	state  NavigationState
	codec  RouteCodec
	routes RouteWriter
}

func newNavigator(codec RouteCodec, routes RouteWriter) *Navigator {
	if codec == nil {
		codec = routing.NewRouter()
	}
	return &Navigator{codec: codec, routes: routes}
}

// State returns a copy of the navigation state.
func (n *Navigator) State() NavigationState {
	return n.state
}

// inRange reports whether index is valid for count items.
func inRange(index, count int) bool {
	return index >= 0 && index < count
}

// open moves to index. It reports whether the viewer was closed before.
func (n *Navigator) open(index int, fromHistory bool) bool {
	wasOpen := n.state.IsOpen
	n.state.CurrentIndex = index
	n.state.IsOpen = true
	n.state.FromHistory = fromHistory
	return !wasOpen
}

// writeRoute publishes the route for fileTitle unless the navigation came
// from a route change.
func (n *Navigator) writeRoute(fileTitle string) {
	if n.state.FromHistory || n.routes == nil {
		return
	}
	n.routes.SetRoute(n.codec.CreateHash(routing.Route{FileTitle: fileTitle}))
}

// settle ends a route-driven navigation.
func (n *Navigator) settle() {
	n.state.FromHistory = false
}

// close marks the viewer closed and clears the route unless the close came
// from a route change. It reports whether the viewer was open.
func (n *Navigator) close(fromHistory bool) bool {
	if !n.state.IsOpen {
		return false
	}
	n.state.IsOpen = false
	n.state.FromHistory = false
	if !fromHistory && n.routes != nil {
		n.routes.SetRoute("#")
	}
	return true
}

func (n *Navigator) parse(location string) (routing.Route, bool) {
	return n.codec.ParseLocation(location)
}
