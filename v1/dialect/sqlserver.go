package dialect

import (
	"fmt"
	"strings"
)

// SQLServer renders Microsoft SQL Server statements.
type SQLServer struct{}

// NewSQLServer returns the SQL Server dialect.
func NewSQLServer() *SQLServer { return &SQLServer{} }

func (*SQLServer) Name() string { return "sqlserver" }

func (*SQLServer) Capabilities() Capabilities {
	return Capabilities{
		NamedParameters:  true,
		OutputParameters: true,
		SequenceBased:    true,
	}
}

func (*SQLServer) ParameterToken(_ int, name string) string { return "@" + name }

// BuildSelect uses TOP for a bare limit and OFFSET/FETCH once an offset is
// involved; OFFSET needs an ORDER BY, so "(SELECT NULL)" stands in when none is given.
func (*SQLServer) BuildSelect(s Select) (string, error) {
	b, err := selectBuilder(s)
	if err != nil {
		return "", err
	}
	switch {
	case s.Offset > 0:
		if trimKeyword(s.OrderBy, "ORDER BY") == "" {
			b = b.OrderBy("(SELECT NULL)")
		}
		suffix := fmt.Sprintf("OFFSET %d ROWS", s.Offset)
		if s.Limit > 0 {
			suffix += fmt.Sprintf(" FETCH NEXT %d ROWS ONLY", s.Limit)
		}
		b = b.Suffix(suffix)
	case s.Limit > 0:
		b = b.Options(fmt.Sprintf("TOP %d", s.Limit))
	}
	return toSQL(b)
}

func (d *SQLServer) BuildPagingQueryPair(s Select, pageSize, currentPage int) (string, string, error) {
	window, err := pageWindow(s, pageSize, currentPage)
	if err != nil {
		return "", "", err
	}
	countSQL, err := countSelect(s)
	if err != nil {
		return "", "", err
	}
	if window.Offset == 0 {
		// Keep OFFSET/FETCH form on the first page too so ordering is explicit.
		b, err := selectBuilder(window)
		if err != nil {
			return "", "", err
		}
		if trimKeyword(window.OrderBy, "ORDER BY") == "" {
			b = b.OrderBy("(SELECT NULL)")
		}
		windowSQL, err := toSQL(b.Suffix(fmt.Sprintf("OFFSET 0 ROWS FETCH NEXT %d ROWS ONLY", window.Limit)))
		return countSQL, windowSQL, err
	}
	windowSQL, err := d.BuildSelect(window)
	if err != nil {
		return "", "", err
	}
	return countSQL, windowSQL, nil
}

func (*SQLServer) BuildInsert(table string, columns, values []string) (string, error) {
	return insertSQL(table, columns, values, "INSERT INTO %s DEFAULT VALUES")
}

func (*SQLServer) BuildUpdate(table string, set []Assignment, where string) (string, error) {
	return updateSQL(table, set, where)
}

func (*SQLServer) BuildDelete(table, where string) (string, error) {
	return deleteSQL(table, where)
}

func (*SQLServer) BuildNextval(sequence string) (string, error) {
	if err := validSequenceName(sequence); err != nil {
		return "", err
	}
	return "NEXT VALUE FOR " + sequence, nil
}

// BuildProcedureCall renders EXEC with OUTPUT markers; a return value is
// captured with "EXEC @ret = name".
func (*SQLServer) BuildProcedureCall(name string, args []ProcedureArg) string {
	var ret string
	rendered := make([]string, 0, len(args))
	for _, a := range args {
		switch {
		case a.Return:
			ret = a.Token
		case a.Output:
			rendered = append(rendered, a.Token+" OUTPUT")
		default:
			rendered = append(rendered, a.Token)
		}
	}
	call := "EXEC "
	if ret != "" {
		call += ret + " = "
	}
	call += name
	if len(rendered) > 0 {
		call += " " + strings.Join(rendered, ", ")
	}
	return call
}

func (*SQLServer) DereferenceCursor(string) (string, bool) { return "", false }

func (*SQLServer) KeyRetrieval() KeyRetrieval { return KeyRetrievalAppended }

func (*SQLServer) GeneratedKeyExpression(string) string {
	return "SELECT CAST(SCOPE_IDENTITY() AS BIGINT)"
}

func (d *SQLServer) AppendKeyRetrieval(insertSQL, column string) string {
	return insertSQL + "; " + d.GeneratedKeyExpression(column)
}

func (*SQLServer) RequiresWrappingTransaction(CommandTraits) bool { return false }

var _ Dialect = (*SQLServer)(nil)
