// Package middleware provides HTTP middleware for the lightbox control API.
//
// It includes:
//   - Request IDs (X-Request-ID), generated when the client sends none
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics labelled by route template
//   - Response compression (gzip) for JSON and HTML bodies
package middleware
