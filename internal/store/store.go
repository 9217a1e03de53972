// Package store provides PostgreSQL persistence for courier.
//
// Statements are built with ent's dialect builder and executed on the
// shared pgx pool. Every store reads through to the database; nothing is
// cached between calls.
//
// Import Path: mediadesk.io/courier/internal/store
package store

import (
	"context"
	"errors"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrHasDependents is returned when a row is still referenced and the caller
// did not ask for a cascading delete.
var ErrHasDependents = errors.New("row has dependents")

// Table names.
const (
	tableNotificationSettings = "notification_settings"
	tableSiteSettings         = "site_settings"
	tableProfiles             = "profiles"
	tableOrders               = "orders"
	tableOrderItems           = "order_items"
	tableMediaItems           = "media_items"
	tableSentReminders        = "sent_reminders"
)

// singletonID is the fixed primary key of the settings tables.
const singletonID = 1

// DBTX is the subset of pgxpool.Pool and pgx.Tx the stores need.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxBeginner starts transactions; satisfied by *pgxpool.Pool.
type TxBeginner interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

func pg() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.Postgres)
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
