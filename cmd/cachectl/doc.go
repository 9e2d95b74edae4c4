// Package main provides cachectl, a maintenance tool for the API cache of
// the media lightbox service.
//
// # Usage
//
//	cachectl status           # entry counts and size
//	cachectl clean            # remove expired entries
//	cachectl purge [--yes]    # remove everything
//
// purge asks for confirmation when stdin is a terminal and refuses to run
// without --yes otherwise.
//
// # Environment
//
// The cache is selected the same way the server selects it:
//
//   - CACHE_BACKEND: sqlite or redis (default: sqlite)
//   - CACHE_DIR: directory holding lightbox.db (default: /cache)
//   - REDIS_ADDR, REDIS_PASSWORD, REDIS_DB: redis connection
//
// Each variable can be overridden with the matching flag.
package main
