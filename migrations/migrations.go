// Package migrations embeds the goose SQL files applied by db.Migrate.
package migrations

import "embed"

// FS holds every *.sql file, applied in version order.
//
//go:embed *.sql
var FS embed.FS
