package activity

import (
	"errors"
	"time"
)

// Source values for activity entries.
const (
	// SourceManual marks entries originating from an authenticated API call.
	SourceManual = "manual"
)

// Pagination defaults and bounds.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 200
)

// ErrEntryNotFound is returned when no entry matches the given id.
var ErrEntryNotFound = errors.New("activity entry not found")

// Entry is one immutable activity log record.
type Entry struct {
	// ID is assigned on insert ("act-" prefix plus a random fragment).
	ID string `json:"id"`

	// ActorID identifies who performed the action.
	ActorID string `json:"actor_id"`

	// Action is a short machine-readable tag, e.g. "set_lamp_on".
	Action string `json:"action"`

	// Details carries action-specific context as free-form JSON.
	Details map[string]any `json:"details,omitempty"`

	// Source records how the action was initiated. Defaults to manual.
	Source string `json:"source"`

	// OriginAddress is the network address the action came from.
	OriginAddress string `json:"origin_address,omitempty"`

	// Timestamp is when the action happened. Set on insert if zero.
	Timestamp time.Time `json:"timestamp"`
}

// Filter narrows and paginates a listing. Zero values mean "no
// constraint" for the match fields and "use defaults" for pagination.
type Filter struct {
	// ActorID matches exactly when set.
	ActorID string

	// Action matches as a case-insensitive substring when set.
	Action string

	// Source matches exactly when set.
	Source string

	// Start/End bound the timestamp inclusively. Zero means unbounded.
	Start time.Time
	End   time.Time

	// Page is 1-based. Values < 1 fall back to DefaultPage.
	Page int

	// PageSize caps entries per page. Values < 1 fall back to
	// DefaultPageSize; values above MaxPageSize are clamped.
	PageSize int
}

// normalise applies pagination defaults and bounds.
func (f *Filter) normalise() {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
}

// ListResult is one page of entries plus the page count for the filter.
type ListResult struct {
	Logs []Entry `json:"logs"`

	// TotalPages is ceil(matching entries / page size). Zero when
	// nothing matches.
	TotalPages int `json:"totalPages"`

	// Total is the number of matching entries across all pages.
	Total int `json:"total"`
}
