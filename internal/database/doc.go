// Package database provides the SQLite store of the lightbox service.
//
// It holds two tables:
//   - api_cache: serialized API responses with an expiry, used as a
//     cache.Store backend
//   - preferences: viewer preferences such as the enable-on-click setting
//
// The database uses WAL mode for concurrent readers and creates its schema
// on open.
package database
