package store

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so every store function can
// run standalone or inside a caller's transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// idArray converts ids into a Postgres BIGINT[] parameter, mapping nil to an
// empty array so NOT NULL array columns accept it.
func idArray(ids []int64) pq.Int64Array {
	if ids == nil {
		return pq.Int64Array{}
	}
	return pq.Int64Array(ids)
}
