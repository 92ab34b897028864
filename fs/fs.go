// Package appfs embeds the SQL migrations and email templates shipped with the binaries.
package appfs

import "embed"

// explicit globs so the _base templates are included
//go:embed migrations/*.sql templates/email/*
var FS embed.FS

const (
	MigrationsDir     = "migrations"
	EmailTemplatesDir = "templates/email"
)
