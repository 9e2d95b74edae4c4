// Package preferences manages whether clicking a thumbnail opens the
// viewer, and the one-time notice shown after a user turns it off.
//
// Values are persisted through a [Store], normally the sqlite database.
// The enable preference is only written when it differs from the
// configured default; setting it back to the default deletes the row.
package preferences
