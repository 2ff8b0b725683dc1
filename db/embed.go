// Package db provides the embedded database schema and seed catalog.
package db

import _ "embed"

// Schema contains the DDL statements for all application tables.
//
//go:embed migrations/001_schema.sql
var Schema string

// Items is the default item catalog as a JSON array.
//
//go:embed seed/items.json
var Items []byte
