// Package migrations holds the SQL schema migrations, embedded into the
// binary so the service can apply them at startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
