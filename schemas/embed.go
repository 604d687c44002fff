// Package schemas holds the MySQL tables the CSV stores are mirrored into.
package schemas

import "embed"

// Migrations are applied in file name order.
//
//go:embed migrations/*.sql
var Migrations embed.FS
