// Package testdb opens per-test in-memory sqlite databases carrying the
// tables the domain repositories touch. Postgres-only features (enums,
// identity columns, partial indexes) are flattened to plain sqlite types.
package testdb

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var schema = []string{
	`CREATE TABLE profiles (
		id TEXT PRIMARY KEY,
		vendor_number INTEGER NOT NULL DEFAULT 0,
		email TEXT NOT NULL,
		full_name TEXT,
		role TEXT NOT NULL DEFAULT 'SELLER',
		discord_user_id TEXT,
		is_exclusive_member BOOLEAN NOT NULL DEFAULT 0,
		membership_checked_at DATETIME,
		business_name TEXT,
		payout_details TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE deals (
		id TEXT PRIMARY KEY,
		deal_number INTEGER NOT NULL DEFAULT 0,
		slug TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		description TEXT,
		image_url TEXT,
		retail_price TEXT NOT NULL,
		payout TEXT NOT NULL,
		price_type TEXT NOT NULL,
		limit_per_vendor INTEGER,
		free_label_min INTEGER,
		is_exclusive BOOLEAN NOT NULL DEFAULT 0,
		exclusive_price TEXT,
		deadline DATETIME,
		status TEXT NOT NULL DEFAULT 'DRAFT',
		created_by TEXT,
		activated_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	)`,
	`CREATE TABLE warehouses (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		address TEXT,
		allow_drop_off BOOLEAN NOT NULL DEFAULT 0,
		allow_shipping BOOLEAN NOT NULL DEFAULT 1,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE commitments (
		id TEXT PRIMARY KEY,
		commitment_number INTEGER NOT NULL DEFAULT 0,
		deal_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		delivery_method TEXT NOT NULL DEFAULT 'SHIP',
		warehouse TEXT NOT NULL DEFAULT 'TBD',
		status TEXT NOT NULL DEFAULT 'PENDING',
		payout_rate TEXT NOT NULL,
		is_vip BOOLEAN NOT NULL DEFAULT 0,
		shipped_at DATETIME,
		delivered_at DATETIME,
		fulfilled_at DATETIME,
		fulfilled_by TEXT,
		cancelled_at DATETIME,
		cancelled_by TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE UNIQUE INDEX ux_commitments_active_per_vendor_deal
		ON commitments (user_id, deal_id) WHERE status NOT IN ('FULFILLED', 'CANCELLED')`,
	`CREATE TABLE trackings (
		id TEXT PRIMARY KEY,
		commitment_id TEXT NOT NULL UNIQUE,
		tracking_number TEXT NOT NULL,
		carrier TEXT NOT NULL DEFAULT 'UNKNOWN',
		last_status TEXT,
		last_location TEXT,
		last_checked_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE label_requests (
		id TEXT PRIMARY KEY,
		commitment_id TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL DEFAULT 'PENDING',
		label_url TEXT,
		label_files TEXT,
		notes TEXT,
		reviewed_by TEXT,
		reviewed_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE invoices (
		id TEXT PRIMARY KEY,
		commitment_id TEXT NOT NULL UNIQUE,
		user_id TEXT NOT NULL,
		skynova_url TEXT NOT NULL,
		amount TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		check_number TEXT,
		check_image_url TEXT,
		notes TEXT,
		paid_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME,
		published_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT
	)`,
}

// Open returns a fresh database named after the running test so parallel
// tests never share state.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

// TxRunner adapts a bare *gorm.DB to the WithTx contract services expect
// from db.Client.
type TxRunner struct {
	DB *gorm.DB
}

func (r TxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.DB.WithContext(ctx).Transaction(fn)
}
