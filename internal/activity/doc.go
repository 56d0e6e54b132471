// Package activity provides the append-only activity log: a persistent
// trail of who did what, when, and from where.
//
// Entries are never updated. Reads are filtered and paginated, ordered
// newest first. The only destructive operations are the explicit
// delete-one and clear-all administrative actions, which callers are
// expected to record as entries themselves.
package activity
