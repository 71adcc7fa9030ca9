// Package migrations embeds the SQL schema applied by golang-migrate at startup.
package migrations

import "embed"

// FS holds every *.up.sql and *.down.sql file in this directory.
//
//go:embed *.sql
var FS embed.FS
