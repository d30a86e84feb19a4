// Package migrations embeds the PostgreSQL schema shared by the profile and
// activity stores.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
