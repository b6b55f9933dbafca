// Package migrations embeds the SQL schema files into the binary.
package migrations

import "embed"

// FS holds the *.sql files at its root, ready for database.DB.Migrate.
//
//go:embed *.sql
var FS embed.FS
