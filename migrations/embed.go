// Package migrations embeds the SQL schema migrations so the binary can
// apply them without shipping loose files alongside it.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
