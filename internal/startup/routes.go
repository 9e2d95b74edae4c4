package startup

import (
	"sort"
	"strings"

	"github.com/gorilla/mux"

	"media-lightbox/internal/logging"
)

// RouteInfo is one method and path served by the router.
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		// Subrouter prefixes have no handler of their own
		if route.GetHandler() == nil {
			return nil
		}
		path, err := route.GetPathTemplate()
		if err != nil {
			return err
		}
		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}
		for _, method := range methods {
			routes = append(routes, RouteInfo{Method: method, Path: path, Name: route.GetName()})
		}
		return nil
	})

	return routes, err
}

// GroupRoutes buckets routes by their group ("health", "api/viewer", ...)
// and sorts each bucket by path, then method.
func GroupRoutes(routes []RouteInfo) map[string][]RouteInfo {
	groups := make(map[string][]RouteInfo)
	for _, route := range routes {
		g := routeGroup(route.Path)
		groups[g] = append(groups[g], route)
	}
	for _, rs := range groups {
		sort.Slice(rs, func(i, j int) bool {
			if rs[i].Path != rs[j].Path {
				return rs[i].Path < rs[j].Path
			}
			return rs[i].Method < rs[j].Method
		})
	}
	return groups
}

// routeGroup names the group of a path: the first two segments under /api,
// "health" for the probe endpoints, otherwise the first segment.
func routeGroup(path string) string {
	parts := strings.SplitN(strings.TrimPrefix(path, "/"), "/", 3)

	switch {
	case parts[0] == "":
		return "root"
	case parts[0] == "api" && len(parts) > 1:
		return "api/" + parts[1]
	}

	switch parts[0] {
	case "health", "healthz", "livez", "readyz":
		return "health"
	}
	return parts[0]
}

// LogHTTPRoutes logs a count per route group, and every route at debug level
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	section("HTTP SERVER")

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}
	groups := GroupRoutes(routes)

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	logging.Info("  %d routes registered", len(routes))
	for _, name := range names {
		logging.Info("    %-16s %d", name, len(groups[name]))
		for _, route := range groups[name] {
			logging.Debug("      %-6s %s", route.Method, route.Path)
		}
	}

	if logHealthChecks {
		logging.Info("  Health check logging: ON")
	} else {
		logging.Info("  Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}
