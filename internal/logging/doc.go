// Package logging provides a simple leveled logging interface for the
// lightbox service.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable.
// Components get a prefixed logger with For("preload").
//
// ActionLogger records user actions (next image, close, ...) with
// per-action sampling factors read from a YAML file.
package logging
