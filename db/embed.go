// Package db embeds the database schema. Seed data under db/seed is read
// from disk by cmd/seed-db.
package db

import _ "embed"

// Schema contains the DDL statements for the products table. Every statement
// is idempotent so it can run on each start.
//
//go:embed migrations/001_schema.sql
var Schema string
