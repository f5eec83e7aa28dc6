package dialect

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// trimKeyword strips a leading SQL keyword (case-insensitive) so callers may
// pass "WHERE a = 1" or "a = 1" alike.
func trimKeyword(fragment, keyword string) string {
	s := strings.TrimSpace(fragment)
	if len(s) >= len(keyword) && strings.EqualFold(s[:len(keyword)], keyword) {
		rest := s[len(keyword):]
		if rest == "" || rest[0] == ' ' || rest[0] == '\t' || rest[0] == '\n' || rest[0] == '(' {
			return strings.TrimSpace(rest)
		}
	}
	return s
}

func selectBuilder(s Select) (sq.SelectBuilder, error) {
	if strings.TrimSpace(s.Table) == "" {
		return sq.SelectBuilder{}, ErrNoTable
	}
	columns := strings.TrimSpace(s.Columns)
	if columns == "" {
		columns = "*"
	}
	b := sq.Select(columns).From(s.Table).PlaceholderFormat(sq.Question)
	if where := trimKeyword(s.Where, "WHERE"); where != "" {
		b = b.Where(where)
	}
	if orderBy := trimKeyword(s.OrderBy, "ORDER BY"); orderBy != "" {
		b = b.OrderBy(orderBy)
	}
	return b, nil
}

// limitOffsetSelect renders a SELECT with trailing LIMIT/OFFSET clauses.
func limitOffsetSelect(s Select) (string, error) {
	b, err := selectBuilder(s)
	if err != nil {
		return "", err
	}
	if s.Limit > 0 {
		b = b.Limit(uint64(s.Limit))
	}
	if s.Offset > 0 {
		b = b.Offset(uint64(s.Offset))
	}
	return toSQL(b)
}

func countSelect(s Select) (string, error) {
	return limitOffsetSelect(Select{Columns: "COUNT(*)", Table: s.Table, Where: s.Where})
}

func pageWindow(s Select, pageSize, currentPage int) (Select, error) {
	if pageSize < 1 || currentPage < 1 {
		return s, ErrInvalidPage
	}
	s.Limit = pageSize
	s.Offset = (currentPage - 1) * pageSize
	return s, nil
}

func insertSQL(table string, columns, values []string, emptyForm string) (string, error) {
	if strings.TrimSpace(table) == "" {
		return "", ErrNoTable
	}
	if len(columns) != len(values) {
		return "", fmt.Errorf("%w: %d columns, %d values", ErrMismatchedValues, len(columns), len(values))
	}
	if len(columns) == 0 {
		return fmt.Sprintf(emptyForm, table), nil
	}
	exprs := make([]interface{}, len(values))
	for i, v := range values {
		exprs[i] = sq.Expr(v)
	}
	return toSQL(sq.Insert(table).Columns(columns...).Values(exprs...).PlaceholderFormat(sq.Question))
}

func updateSQL(table string, set []Assignment, where string) (string, error) {
	if strings.TrimSpace(table) == "" {
		return "", ErrNoTable
	}
	if len(set) == 0 {
		return "", ErrNoColumns
	}
	where = trimKeyword(where, "WHERE")
	if where == "" {
		return "", ErrNoWhere
	}
	b := sq.Update(table).PlaceholderFormat(sq.Question)
	for _, a := range set {
		b = b.Set(a.Column, sq.Expr(a.Value))
	}
	return toSQL(b.Where(where))
}

func deleteSQL(table, where string) (string, error) {
	if strings.TrimSpace(table) == "" {
		return "", ErrNoTable
	}
	where = trimKeyword(where, "WHERE")
	if where == "" {
		return "", ErrNoWhere
	}
	return toSQL(sq.Delete(table).Where(where).PlaceholderFormat(sq.Question))
}

func toSQL(s sq.Sqlizer) (string, error) {
	text, _, err := s.ToSql()
	if err != nil {
		return "", fmt.Errorf("dialect: render statement: %w", err)
	}
	return text, nil
}

// inputTokens returns the tokens of input-side arguments.
func inputTokens(args []ProcedureArg) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a.Input && !a.Return {
			out = append(out, a.Token)
		}
	}
	return out
}

func validSequenceName(seq string) error {
	if strings.TrimSpace(seq) == "" || strings.ContainsAny(seq, "'\";") {
		return fmt.Errorf("dialect: invalid sequence name %q", seq)
	}
	return nil
}

// ForName returns the dialect registered for a driver or provider name.
//
//	dialect.ForName("pgx")       // Postgres
//	dialect.ForName("mariadb")   // MySQL
//	dialect.ForName("sqlserver") // SQLServer
func ForName(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "postgres", "postgresql", "pgx", "pq", "lib/pq":
		return NewPostgres(), nil
	case "mysql", "mariadb":
		return NewMySQL(), nil
	case "sqlserver", "mssql":
		return NewSQLServer(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDialect, name)
	}
}
