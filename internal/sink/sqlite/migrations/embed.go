// Package migrations embeds the battle statistics schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
