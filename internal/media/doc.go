// Package media fetches, measures and renders images for the lightbox.
//
// Fetcher downloads rendition bytes with progress reporting and keeps the
// most recent ones in a byte-bounded in-memory cache. WidthCalculator turns
// the client viewport into the widths a rendition is displayed and
// requested at. RenderPlaceholder produces the blurred stand-in shown while
// the real rendition loads.
package media
