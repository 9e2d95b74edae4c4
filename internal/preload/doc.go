// Package preload schedules background fetching for the items around the
// current one.
//
// Each axis (metadata, thumbnail) owns at most one task queue. Scheduling
// an axis cancels its previous queue and starts a new one over the window
// returned by Window, nearest indices first. An axis moves
// Idle -> Scheduled on Schedule, Scheduled -> Cancelled on Cancel or
// replacement, and Scheduled -> Idle once its queue finishes.
package preload
