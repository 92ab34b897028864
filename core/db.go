package core

import (
	"context"
	"database/sql"
	"strings"
)

type (
	DBExecutor interface {
		ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
		QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
		QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	}

	DB interface {
		DBExecutor

		BeginTx(context.Context, *sql.TxOptions) (*sql.Tx, error)
	}
)

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// Page describes one window of a paged fetch.
type Page struct {
	Offset int
	Limit  int
}

// FetchAll drains a paged source: `fetch` is called with successive pages of `size` rows
// until it returns fewer rows than requested.
func FetchAll(ctx context.Context, size int, fetch func(ctx context.Context, p Page) (int, error)) error {
	if size <= 0 {
		size = 1000
	}
	for offset := 0; ; offset += size {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := fetch(ctx, Page{Offset: offset, Limit: size})
		if err != nil {
			return err
		}
		if n < size {
			return nil
		}
	}
}

// CleanOrderings keeps the orderings whose field is in `allowed`, mapping API names to columns.
func CleanOrderings(ords []DBOrdering, allowed map[string]string) []DBOrdering {
	cleaned := make([]DBOrdering, 0, len(ords))
	for _, ord := range ords {
		if col, ok := allowed[strings.ToLower(ord.Field)]; ok {
			cleaned = append(cleaned, DBOrdering{Field: col, Ascending: ord.Ascending})
		}
	}
	return cleaned
}
