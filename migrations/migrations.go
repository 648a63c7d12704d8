// Package migrations embeds the database schemas for the reputation ledger.
//
// Postgres migrations under postgres/ are numbered "NNN_name.up.sql" and are
// applied in order by cmd/migrate. SQLite has a single idempotent schema that
// the store applies on open.
package migrations

import "embed"

// Postgres holds the numbered Postgres migrations.
//
//go:embed postgres/*.sql
var Postgres embed.FS

// PostgresDir is the directory inside Postgres that holds the migration files.
const PostgresDir = "postgres"

// SQLiteSchema is applied on every open and must stay idempotent.
//
//go:embed sqlite.sql
var SQLiteSchema string
