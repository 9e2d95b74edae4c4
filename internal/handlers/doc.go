// Package handlers provides the HTTP control API of the lightbox.
//
// A front end drives the viewer through it and renders what the display
// recorder holds. It includes handlers for:
//   - Loading the gallery from a posted document or a document URL
//   - Opening, paging, resizing and closing the viewer, and routing
//   - Reading the display state, long-polling display events, and fetching
//     the current image and its blurred placeholder
//   - Thumbnail URLs and embed snippets for the current file
//   - The enable-on-click preference
//   - Health checks, version and Prometheus metrics
package handlers
