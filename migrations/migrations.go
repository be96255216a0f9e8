// Package migrations embeds the Postgres schema
package migrations

import "embed"

// FS holds the *.sql files applied by `quant migrate`
//
//go:embed *.sql
var FS embed.FS
