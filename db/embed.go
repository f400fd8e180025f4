// Package db provides embedded database schema and seed files.
package db

import _ "embed"

// Schema contains the DDL statements for all application tables.
//
//go:embed migrations/001_schema.sql
var Schema string

// Fixtures is the demo dataset loaded by cmd/seed-db.
//
//go:embed seed/fixtures.json
var Fixtures []byte
