// Package mediatypes provides the shared domain model of the lightbox.
//
// This package exists as a dependency-free foundation that can be imported by
// every other package without creating import cycles. It contains plain data
// types and pure helpers with no dependencies beyond the standard library.
//
// # Items
//
// A MediaItem is one thumbnail found on a page. Its identity (index, file
// title, on-page thumbnail URL) is fixed; its original dimensions may be
// filled in later, so they are read and written through accessors:
//
//	item := mediatypes.NewMediaItem(0, "File:Foo.jpg", 0, 0)
//	if !item.HasDimensions() {
//	    item.SetDimensions(info.Width, info.Height)
//	}
//
// # Renditions
//
// ThumbnailWidth carries the CSS, screen and bucketed widths a rendition is
// shown at. Thumbnail is a resolved rendition URL with its size, and
// ImageHandle carries the fetched bytes.
//
// # Metadata
//
// ImageInfo, Repo, FileUsage and User are the size-independent descriptions
// gathered for the metadata panel.
//
// # Formats
//
// FormatOf tells raster from vector files. Raster renditions are never wider
// than the original; vector renditions may be.
package mediatypes
