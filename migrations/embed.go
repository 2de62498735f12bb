package migrations

import "embed"

// FS embeds the SQL migration files so the server binary can bootstrap
// its schema without shipping the migrations directory alongside it.
//
//go:embed *.sql
var FS embed.FS
