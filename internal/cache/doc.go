// Package cache defines the key/value store used for API responses and
// provides its Redis and no-op backends. The sqlite backend lives in
// package database.
package cache
