// Package database provides SQLite connectivity for the frame art bridge.
//
// The bridge keeps a single small database holding TV pairing tokens when
// the sqlite token backend is selected. This package manages:
//   - Opening the file with WAL mode and a busy timeout
//   - Versioned schema migrations from an embedded filesystem
//   - Health checks and lifecycle
//
// The database file is restricted to owner read/write (0600) because it
// holds pairing tokens.
//
// Usage:
//
//	db, err := database.Open(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with a
// matching .down.sql, and live in the top-level migrations package.
package database
