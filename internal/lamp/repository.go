package lamp

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/luxgrid/luxgrid-core/internal/infrastructure/database"
)

// Repository is the persistence boundary for lamp records.
type Repository interface {
	// FindByKey returns the lamp for (gwID, nodeID), or ErrLampNotFound.
	FindByKey(ctx context.Context, gwID, nodeID string) (*Lamp, error)

	// Upsert persists the lamp, inserting or replacing the record for
	// its (gw_id, node_id) key. UpdatedAt is refreshed on every call;
	// CreatedAt is set when zero. Returns ErrNodeIDConflict when the
	// node id is already registered under a different gateway.
	Upsert(ctx context.Context, lamp *Lamp) error

	// List returns all lamps ordered by gateway then node id.
	List(ctx context.Context) ([]Lamp, error)

	// DeleteByKey removes the lamp for (gwID, nodeID) and returns the
	// removed record, or ErrLampNotFound.
	DeleteByKey(ctx context.Context, gwID, nodeID string) (*Lamp, error)
}

// SQLiteRepository implements Repository backed by SQLite.
type SQLiteRepository struct {
	db *database.DB
}

// NewSQLiteRepository creates a lamp repository using the given database.
func NewSQLiteRepository(db *database.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const lampColumns = `gw_id, node_id, lamp_state, lamp_dim, lux, current_a,
	latitude, longitude, created_at, updated_at`

// FindByKey retrieves a single lamp.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - gwID: Gateway identifier
//   - nodeID: Node identifier
//
// Returns:
//   - *Lamp: The lamp record
//   - error: ErrLampNotFound if no row matches, or the query error
func (r *SQLiteRepository) FindByKey(ctx context.Context, gwID, nodeID string) (*Lamp, error) {
	query := `SELECT ` + lampColumns + ` FROM lamps WHERE gw_id = ? AND node_id = ?`

	row := r.db.QueryRowContext(ctx, query, gwID, nodeID)
	lamp, err := scanLamp(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLampNotFound
	}
	if err != nil {
		return nil, err
	}
	return lamp, nil
}

// Upsert inserts the lamp or updates the existing record in place.
//
// The update-then-insert order makes the common path (an existing lamp
// changing state) a single statement. The INSERT can still trip a
// constraint: either the global UNIQUE(node_id) when the node id
// exists under another gateway (surfaced as ErrNodeIDConflict), or the
// (gw_id, node_id) primary key when a concurrent first contact for the
// same lamp won the race between the UPDATE and the INSERT. The latter
// is not a conflict; the row exists now, so the update is applied.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - lamp: Record to persist; UpdatedAt is refreshed, CreatedAt set when zero
//
// Returns:
//   - error: ErrNodeIDConflict on a node id collision, or the exec error
func (r *SQLiteRepository) Upsert(ctx context.Context, lamp *Lamp) error {
	now := time.Now().UTC()
	lamp.UpdatedAt = now
	if lamp.CreatedAt.IsZero() {
		lamp.CreatedAt = now
	}

	applied, err := r.applyUpdate(ctx, lamp)
	if err != nil {
		return err
	}
	if applied {
		return nil
	}

	if err := r.insert(ctx, lamp); err != nil {
		return r.recoverInsertConflict(ctx, lamp, err)
	}
	return nil
}

// applyUpdate runs the in-place UPDATE and reports whether a row matched.
func (r *SQLiteRepository) applyUpdate(ctx context.Context, lamp *Lamp) (bool, error) {
	query := `
		UPDATE lamps
		SET lamp_state = ?, lamp_dim = ?, lux = ?, current_a = ?,
		    latitude = ?, longitude = ?, updated_at = ?
		WHERE gw_id = ? AND node_id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		string(lamp.State),
		lamp.DimLevel,
		lamp.Lux,
		lamp.CurrentA,
		nullableFloat(lamp.Latitude),
		nullableFloat(lamp.Longitude),
		lamp.UpdatedAt.UTC().Format(database.TimeLayout),
		lamp.GatewayID,
		lamp.NodeID,
	)
	if err != nil {
		return false, fmt.Errorf("updating lamp: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking update result: %w", err)
	}
	return affected > 0, nil
}

// insert creates the lamp row.
func (r *SQLiteRepository) insert(ctx context.Context, lamp *Lamp) error {
	query := `
		INSERT INTO lamps (` + lampColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		lamp.GatewayID,
		lamp.NodeID,
		string(lamp.State),
		lamp.DimLevel,
		lamp.Lux,
		lamp.CurrentA,
		nullableFloat(lamp.Latitude),
		nullableFloat(lamp.Longitude),
		lamp.CreatedAt.UTC().Format(database.TimeLayout),
		lamp.UpdatedAt.UTC().Format(database.TimeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting lamp: %w", err)
	}
	return nil
}

// recoverInsertConflict classifies a failed insert. A constraint
// violation where the (gw_id, node_id) row exists means this call lost
// a same-key race; the update is applied instead. Any other constraint
// violation is a node id already held by a different gateway.
func (r *SQLiteRepository) recoverInsertConflict(ctx context.Context, lamp *Lamp, insertErr error) error {
	if !isConstraintViolation(insertErr) {
		return insertErr
	}

	if _, err := r.FindByKey(ctx, lamp.GatewayID, lamp.NodeID); err == nil {
		applied, err := r.applyUpdate(ctx, lamp)
		if err != nil {
			return err
		}
		if applied {
			return nil
		}
	}

	return fmt.Errorf("%w: %q", ErrNodeIDConflict, lamp.NodeID)
}

// List retrieves all lamps.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - []Lamp: All lamp records, ordered by gateway then node id
//   - error: If the query fails
func (r *SQLiteRepository) List(ctx context.Context) ([]Lamp, error) {
	query := `SELECT ` + lampColumns + ` FROM lamps ORDER BY gw_id, node_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying lamps: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only iteration

	lamps := []Lamp{}
	for rows.Next() {
		lamp, err := scanLamp(rows)
		if err != nil {
			return nil, err
		}
		lamps = append(lamps, *lamp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lamps: %w", err)
	}

	return lamps, nil
}

// DeleteByKey removes a lamp and returns what was removed.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - gwID: Gateway identifier
//   - nodeID: Node identifier
//
// Returns:
//   - *Lamp: The record as it was before deletion
//   - error: ErrLampNotFound if no row matched, or the exec error
func (r *SQLiteRepository) DeleteByKey(ctx context.Context, gwID, nodeID string) (*Lamp, error) {
	lamp, err := r.FindByKey(ctx, gwID, nodeID)
	if err != nil {
		return nil, err
	}

	_, err = r.db.ExecContext(ctx,
		"DELETE FROM lamps WHERE gw_id = ? AND node_id = ?", gwID, nodeID)
	if err != nil {
		return nil, fmt.Errorf("deleting lamp: %w", err)
	}

	return lamp, nil
}

// scanner abstracts sql.Row and sql.Rows for scanLamp.
type scanner interface {
	Scan(dest ...any) error
}

// scanLamp reads one row into a Lamp.
func scanLamp(row scanner) (*Lamp, error) {
	var lamp Lamp
	var state string
	var latitude, longitude sql.NullFloat64
	var createdAt, updatedAt string

	err := row.Scan(
		&lamp.GatewayID,
		&lamp.NodeID,
		&state,
		&lamp.DimLevel,
		&lamp.Lux,
		&lamp.CurrentA,
		&latitude,
		&longitude,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning lamp: %w", err)
	}

	lamp.State = State(state)
	if latitude.Valid {
		lamp.Latitude = &latitude.Float64
	}
	if longitude.Valid {
		lamp.Longitude = &longitude.Float64
	}

	if lamp.CreatedAt, err = time.Parse(database.TimeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parsing lamp created_at: %w", err)
	}
	if lamp.UpdatedAt, err = time.Parse(database.TimeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing lamp updated_at: %w", err)
	}

	return &lamp, nil
}

// isConstraintViolation reports whether err is a SQLite uniqueness
// constraint failure (UNIQUE or PRIMARY KEY).
func isConstraintViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// nullableFloat converts a nil pointer to a SQL NULL.
func nullableFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
