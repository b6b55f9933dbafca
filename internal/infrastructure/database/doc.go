// Package database opens the daemon's SQLite file and applies schema
// migrations.
//
// The database holds the command audit trail and per-node liveness
// snapshots. It is opened with WAL mode so the HTTP API can read while the
// journal writes, and with a single connection because SQLite has one
// writer.
//
// Migrations are plain SQL files embedded by the top-level migrations
// package and passed in as an fs.FS:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migrations are additive: new columns are nullable or defaulted, and every
// .up.sql has a matching .down.sql.
package database
