// Package sqlxrepos implements the domain repositories on Postgres with sqlx and squirrel.
package sqlxrepos

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// insertChunk bounds the rows of one multi-row INSERT (postgres caps bind params at 65535).
const insertChunk = 1000

func selectContext(ctx context.Context, db *sqlx.DB, dst interface{}, b sq.Sqlizer, msg string) error {
	query, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query: "+msg)
	}
	return errors.Wrap(db.SelectContext(ctx, dst, query, args...), msg)
}

// getContext maps sql.ErrNoRows to notFound.
func getContext(ctx context.Context, db *sqlx.DB, dst interface{}, b sq.Sqlizer, notFound error, msg string) error {
	query, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query: "+msg)
	}
	if err = db.GetContext(ctx, dst, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return notFound
		}
		return errors.Wrap(err, msg)
	}
	return nil
}

// execContext returns the number of affected rows.
func execContext(ctx context.Context, db *sqlx.DB, b sq.Sqlizer, msg string) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query: "+msg)
	}
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrap(err, msg)
	}
	n, err := res.RowsAffected()
	return n, errors.Wrap(err, msg)
}

func chunks(n int) [][2]int {
	out := make([][2]int, 0, n/insertChunk+1)
	for lo := 0; lo < n; lo += insertChunk {
		hi := lo + insertChunk
		if hi > n {
			hi = n
		}
		out = append(out, [2]int{lo, hi})
	}
	return out
}
