// Package migrations embeds the SQL schema files so the binary can apply
// them on startup regardless of its working directory.
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
