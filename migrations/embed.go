package migrations

import "embed"

// FS holds the SQL migrations applied by the schema initializer.
//
//go:embed *.sql
var FS embed.FS
