// Package mwapi talks to a MediaWiki action API.
//
// Client issues GET requests with format=json&formatversion=2, caches the
// raw responses in a cache.Store keyed by a hash of the request, collapses
// concurrent identical requests, and retries transient failures with
// capped exponential backoff. The providers on top of it (ImageInfo,
// FileRepoInfo, ThumbnailInfo, ImageUsage, GlobalUsage, UserInfo) turn
// responses into mediatypes values. GuessedThumbnailInfo derives rendition
// URLs without any request.
package mwapi
