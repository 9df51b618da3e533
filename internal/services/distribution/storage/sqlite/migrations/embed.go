package migrations

import "embed"

// FS contains embedded SQLite migrations for distribution storage.
//
//go:embed *.sql
var FS embed.FS
