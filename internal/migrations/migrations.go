// Package migrations embeds the schema migration files.
package migrations

import "embed"

// Files holds the SQL migrations compiled into the binary. Names follow a
// flat NNN_description.sql convention; lexical order is application order.
//
//go:embed *.sql
var Files embed.FS
