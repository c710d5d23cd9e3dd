// Package migrations embeds the schema migrations applied by db.MigrateUp.
package migrations

import "embed"

// Migration files bundled at compile time, one directory per driver.
//
//go:embed sqlite/*.sql
var SqliteMigrations embed.FS

//go:embed postgres/*.sql
var PostgresMigrations embed.FS
