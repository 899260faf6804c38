// Package sqlite embeds the goose schema migrations for the SQLite
// backend.
package sqlite

import "embed"

//go:embed *.sql
var Migrations embed.FS
