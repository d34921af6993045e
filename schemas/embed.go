// Package schemas provides embedded SQL migration files, one directory per database driver.
package schemas

import "embed"

// Migrations contains all SQL migration files under migrations/<driver>/.
//
//go:embed migrations/*/*.sql
var Migrations embed.FS
