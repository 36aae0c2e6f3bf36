// Package db embeds the storefront's database schema.
package db

import _ "embed"

// Schema holds the DDL for the products, coupons, orders, and
// cart_snapshots tables. Statements are idempotent and applied at startup.
//
//go:embed migrations/001_schema.sql
var Schema string
