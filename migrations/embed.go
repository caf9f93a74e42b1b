// Package migrations carries the SQL schema of the service. The files are
// embedded so the binaries migrate without a checkout next to them.
package migrations

import "embed"

// FS holds every *.up.sql and *.down.sql file of this directory
//
//go:embed *.sql
var FS embed.FS
