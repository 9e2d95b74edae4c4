package viewer

import (
	"context"

	"media-lightbox/internal/logging"
	"media-lightbox/internal/mediatypes"
	"media-lightbox/internal/metadata"
	"media-lightbox/internal/rendition"
	"media-lightbox/internal/routing"
)

// Sink receives every display side effect. The orchestrator calls it while
// holding its lock, so implementations must not call back into the
// orchestrator.
type Sink interface {
	ShowOpen()
	// ShowPlaceholder shows the blurred on-page thumbnail and reports
	// whether it was actually shown.
	ShowPlaceholder(item *mediatypes.MediaItem, widths mediatypes.ThumbnailWidth) bool
	ShowProgress(item *mediatypes.MediaItem, percent int)
	ShowRendition(item *mediatypes.MediaItem, resolved *rendition.Resolved, widths mediatypes.ThumbnailWidth, unblur bool)
	ShowImageError(item *mediatypes.MediaItem, err error)
	ShowMetadata(item *mediatypes.MediaItem, aggregate *metadata.Aggregate)
	ShowMetadataError(item *mediatypes.MediaItem, err error)
	ShowControls(hasNext, hasPrev bool)
	ShowClose()
}

// RouteWriter publishes the route of the current state.
type RouteWriter interface {
	SetRoute(hash string)
}

// RouteCodec converts between locations and routes.
type RouteCodec interface {
	ParseLocation(location string) (routing.Route, bool)
	CreateHash(route routing.Route) string
}

// WidthSource measures the on-screen widths for an item.
type WidthSource interface {
	Widths(item *mediatypes.MediaItem) mediatypes.ThumbnailWidth
}

// RenditionSource resolves renditions.
type RenditionSource interface {
	Resolve(ctx context.Context, req rendition.Request, progress func(float64)) (*rendition.Resolved, error)
	ThumbnailInfo(ctx context.Context, fileTitle string, width int) (*mediatypes.Thumbnail, error)
}

// MetadataSource joins the metadata of a file.
type MetadataSource interface {
	Fetch(ctx context.Context, fileTitle string) (*metadata.Aggregate, error)
}

// ActionLogger records user actions.
type ActionLogger interface {
	Log(action logging.Action) bool
}

type nopActions struct{}

func (nopActions) Log(logging.Action) bool { return false }
