// Package postgres embeds the goose schema migrations for the
// PostgreSQL backend.
package postgres

import "embed"

//go:embed *.sql
var Migrations embed.FS
