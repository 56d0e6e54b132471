package activity

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/luxgrid/luxgrid-core/internal/infrastructure/database"
)

// idFragmentLen is how many characters of the random UUID are kept in
// an entry id after the "act-" prefix.
const idFragmentLen = 12

// Repository is the persistence boundary for activity entries.
type Repository interface {
	// Create appends one entry. The entry's ID and Timestamp are
	// assigned when unset.
	Create(ctx context.Context, entry *Entry) error

	// List returns one page of entries matching the filter, newest
	// first, plus the total page count for the filter.
	List(ctx context.Context, filter Filter) (*ListResult, error)

	// DeleteByID removes one entry. Returns ErrEntryNotFound when no
	// entry has that id.
	DeleteByID(ctx context.Context, id string) error

	// DeleteAll removes every entry and reports how many were removed.
	DeleteAll(ctx context.Context) (int64, error)
}

// SQLiteRepository implements Repository backed by SQLite.
type SQLiteRepository struct {
	db *database.DB
}

// NewSQLiteRepository creates an activity repository using the given database.
func NewSQLiteRepository(db *database.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new activity entry.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - entry: Entry to persist; ID, Source and Timestamp get defaults when unset
//
// Returns:
//   - error: If marshalling details or the insert fails
func (r *SQLiteRepository) Create(ctx context.Context, entry *Entry) error {
	if entry.ID == "" {
		entry.ID = "act-" + strings.ReplaceAll(uuid.New().String(), "-", "")[:idFragmentLen]
	}
	if entry.Source == "" {
		entry.Source = SourceManual
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	var details sql.NullString
	if len(entry.Details) > 0 {
		raw, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("marshalling entry details: %w", err)
		}
		details = sql.NullString{String: string(raw), Valid: true}
	}

	query := `
		INSERT INTO activity_logs (id, actor_id, action, details, source, origin_address, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.ActorID,
		entry.Action,
		details,
		entry.Source,
		nullableString(entry.OriginAddress),
		entry.Timestamp.UTC().Format(database.TimeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting activity entry: %w", err)
	}

	return nil
}

// List retrieves one page of entries matching the filter, ordered by
// timestamp descending (ties broken by id for a stable order).
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - filter: Match fields plus pagination; see Filter
//
// Returns:
//   - *ListResult: Page of entries with total/page counts
//   - error: If the query fails
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	filter.normalise()

	where, args := buildWhere(filter)

	var total int
	countQuery := "SELECT COUNT(*) FROM activity_logs" + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting activity entries: %w", err)
	}

	result := &ListResult{
		Logs:       []Entry{},
		Total:      total,
		TotalPages: (total + filter.PageSize - 1) / filter.PageSize,
	}
	if total == 0 {
		return result, nil
	}

	query := `
		SELECT id, actor_id, action, details, source, origin_address, timestamp
		FROM activity_logs
	` + where + `
		ORDER BY timestamp DESC, id DESC
		LIMIT ? OFFSET ?
	`
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying activity entries: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only iteration

	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result.Logs = append(result.Logs, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activity entries: %w", err)
	}

	return result, nil
}

// DeleteByID removes a single entry.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - id: Entry id to remove
//
// Returns:
//   - error: ErrEntryNotFound if no entry matched, or the exec error
func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM activity_logs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting activity entry: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return ErrEntryNotFound
	}

	return nil
}

// DeleteAll removes every entry.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - int64: Number of entries removed
//   - error: If the exec fails
func (r *SQLiteRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM activity_logs")
	if err != nil {
		return 0, fmt.Errorf("clearing activity log: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking clear result: %w", err)
	}

	return affected, nil
}

// buildWhere assembles the WHERE clause and bind args for a filter.
// The returned clause has a leading space, or is empty when the filter
// has no match fields.
func buildWhere(filter Filter) (string, []any) {
	var conditions []string
	var args []any

	if filter.ActorID != "" {
		conditions = append(conditions, "actor_id = ?")
		args = append(args, filter.ActorID)
	}
	if filter.Action != "" {
		// SQLite LIKE is case-insensitive for ASCII, which matches the
		// action tags this service writes.
		conditions = append(conditions, "action LIKE '%' || ? || '%'")
		args = append(args, filter.Action)
	}
	if filter.Source != "" {
		conditions = append(conditions, "source = ?")
		args = append(args, filter.Source)
	}
	if !filter.Start.IsZero() {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, filter.Start.UTC().Format(database.TimeLayout))
	}
	if !filter.End.IsZero() {
		conditions = append(conditions, "timestamp <= ?")
		args = append(args, filter.End.UTC().Format(database.TimeLayout))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// scanEntry reads one row into an Entry.
func scanEntry(rows *sql.Rows) (*Entry, error) {
	var entry Entry
	var details, origin sql.NullString
	var timestamp string

	err := rows.Scan(
		&entry.ID,
		&entry.ActorID,
		&entry.Action,
		&details,
		&entry.Source,
		&origin,
		&timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning activity entry: %w", err)
	}

	if details.Valid {
		if err := json.Unmarshal([]byte(details.String), &entry.Details); err != nil {
			return nil, fmt.Errorf("decoding entry details: %w", err)
		}
	}
	entry.OriginAddress = origin.String

	entry.Timestamp, err = time.Parse(database.TimeLayout, timestamp)
	if err != nil {
		return nil, fmt.Errorf("parsing entry timestamp: %w", err)
	}

	return &entry, nil
}

// nullableString converts an empty string to a SQL NULL.
func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
