package migrations

import "embed"

// FS contains embedded SQLite migrations for the game archive.
//
//go:embed *.sql
var FS embed.FS
