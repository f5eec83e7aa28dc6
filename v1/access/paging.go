package access

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/Aleph-Alpha/dbaccess/v1/dialect"
	"github.com/Aleph-Alpha/dbaccess/v1/schema"
)

const (
	// DefaultPageSize is used when PageQuery.PageSize is not set.
	DefaultPageSize = 20
)

// PageQuery selects one page of rows.
type PageQuery struct {
	Columns string
	Where   string

	// OrderBy should be set; without it the rows of a page are not stable.
	OrderBy string

	// PageSize defaults to DefaultPageSize, CurrentPage to 1.
	PageSize    int
	CurrentPage int
	Args        []any
}

// Page is one page of rows plus the totals of the whole query.
type Page[T any] struct {
	Items        []T
	TotalRecords int64
	TotalPages   int64
	CurrentPage  int
	PageSize     int
}

// Paged reads one page of the table.
func (t *Table[T]) Paged(ctx context.Context, q PageQuery) (*Page[T], error) {
	if t.name == "" {
		return nil, opError("page", "", ErrNoTable)
	}
	if q.Columns == "" {
		q.Columns = t.columns
	}
	return Paged[T](ctx, t.db, t.name, q)
}

// Paged reads one page from source, a table name or a parenthesized derived
// table. It issues exactly two statements: a COUNT over the predicate and the
// windowed SELECT. On private connections they run concurrently.
func Paged[T any](ctx context.Context, db *DB, source string, q PageQuery) (page *Page[T], err error) {
	if q.PageSize == 0 {
		q.PageSize = DefaultPageSize
	}
	if q.CurrentPage == 0 {
		q.CurrentPage = 1
	}
	countSQL, windowSQL, err := db.dialect.BuildPagingQueryPair(dialect.Select{
		Columns: q.Columns,
		Table:   source,
		Where:   q.Where,
		OrderBy: q.OrderBy,
	}, q.PageSize, q.CurrentPage)
	if err != nil {
		return nil, opError("page", "", err)
	}
	countCmd, err := db.CreateCommand(countSQL, q.Args...)
	if err != nil {
		return nil, err
	}
	windowCmd, err := db.CreateCommand(windowSQL, q.Args...)
	if err != nil {
		return nil, err
	}

	cfg := db.config()
	ctx, op := db.startOperation(ctx, cfg, "page", source)
	page = &Page[T]{CurrentPage: q.CurrentPage, PageSize: q.PageSize}
	defer func() {
		var n int64
		if page != nil {
			n = int64(len(page.Items))
		}
		op.end(n, err)
	}()

	count := func(ctx context.Context) error {
		v, err := db.scalar(ctx, cfg, op, countCmd)
		if err != nil {
			return err
		}
		page.TotalRecords, err = schema.ToInt64(v)
		return err
	}
	window := func(ctx context.Context) error {
		rows, err := queryRows[T](ctx, db, cfg, "page_window", source, windowCmd, q.PageSize)
		if err != nil {
			return err
		}
		page.Items, err = rows.Collect()
		return err
	}

	if _, external := ConnFrom(ctx); external {
		if err = count(ctx); err == nil {
			err = window(ctx)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return count(gctx) })
		g.Go(func() error { return window(gctx) })
		err = g.Wait()
	}
	if err != nil {
		return nil, err
	}
	page.TotalPages = totalPages(page.TotalRecords, q.PageSize)
	return page, nil
}

func totalPages(records int64, size int) int64 {
	s := int64(size)
	return (records + s - 1) / s
}
