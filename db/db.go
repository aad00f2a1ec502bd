package db

import "embed"

// Migrations holds the snapshot cache schema, applied in file name order.
//
//go:embed migrations/*.sql
var Migrations embed.FS
