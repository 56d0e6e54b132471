// Package database provides SQLite database connectivity for Luxgrid Core.
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - Schema migrations (embedded in the binary via go:embed)
//   - Connection pooling and lifecycle management
//
// Security Considerations:
//   - All queries use parameterised statements (no SQL injection)
//   - Database file permissions are set to 0600 (owner read/write only)
//
// The lamp and activity repositories take the underlying *sql.DB; this
// package owns only the connection lifecycle and schema versioning.
package database
