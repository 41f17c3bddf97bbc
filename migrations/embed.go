// Package migrations embeds the Postgres schema migrations.
package migrations

import "embed"

// FS holds the up/down SQL files read by golang-migrate's iofs source.
//
//go:embed *.sql
var FS embed.FS
