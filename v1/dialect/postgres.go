package dialect

import (
	"fmt"
	"strings"
)

// Postgres renders PostgreSQL statements.
type Postgres struct{}

// NewPostgres returns the PostgreSQL dialect.
func NewPostgres() *Postgres { return &Postgres{} }

func (*Postgres) Name() string { return "postgres" }

func (*Postgres) Capabilities() Capabilities {
	return Capabilities{
		IgnoresOutputTypes:  true,
		AnonymousParameters: true,
		SequenceBased:       true,
		Cursors:             true,
	}
}

func (*Postgres) ParameterToken(ordinal int, _ string) string {
	return fmt.Sprintf("$%d", ordinal)
}

func (*Postgres) BuildSelect(s Select) (string, error) {
	return limitOffsetSelect(s)
}

func (*Postgres) BuildPagingQueryPair(s Select, pageSize, currentPage int) (string, string, error) {
	window, err := pageWindow(s, pageSize, currentPage)
	if err != nil {
		return "", "", err
	}
	countSQL, err := countSelect(s)
	if err != nil {
		return "", "", err
	}
	windowSQL, err := limitOffsetSelect(window)
	if err != nil {
		return "", "", err
	}
	return countSQL, windowSQL, nil
}

func (*Postgres) BuildInsert(table string, columns, values []string) (string, error) {
	return insertSQL(table, columns, values, "INSERT INTO %s DEFAULT VALUES")
}

func (*Postgres) BuildUpdate(table string, set []Assignment, where string) (string, error) {
	return updateSQL(table, set, where)
}

func (*Postgres) BuildDelete(table, where string) (string, error) {
	return deleteSQL(table, where)
}

func (*Postgres) BuildNextval(sequence string) (string, error) {
	if err := validSequenceName(sequence); err != nil {
		return "", err
	}
	return fmt.Sprintf("nextval('%s')", sequence), nil
}

// BuildProcedureCall renders a set-returning function call, so OUT parameters
// come back as the columns of a single row.
func (*Postgres) BuildProcedureCall(name string, args []ProcedureArg) string {
	return fmt.Sprintf("SELECT * FROM %s(%s)", name, strings.Join(inputTokens(args), ", "))
}

func (*Postgres) DereferenceCursor(cursor string) (string, bool) {
	return `FETCH ALL IN "` + strings.ReplaceAll(cursor, `"`, `""`) + `"`, true
}

func (*Postgres) KeyRetrieval() KeyRetrieval { return KeyRetrievalReturning }

func (*Postgres) GeneratedKeyExpression(column string) string {
	return "RETURNING " + column
}

func (p *Postgres) AppendKeyRetrieval(insertSQL, column string) string {
	return insertSQL + " " + p.GeneratedKeyExpression(column)
}

// RequiresWrappingTransaction is true for refcursor-returning calls: the
// cursor is only valid inside the transaction that opened it.
func (*Postgres) RequiresWrappingTransaction(t CommandTraits) bool {
	return t.ProcedureCall && t.CursorParameters
}

var _ Dialect = (*Postgres)(nil)
