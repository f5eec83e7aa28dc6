package dialect

import (
	"fmt"
	"strings"
)

// MySQL renders MySQL and MariaDB statements.
type MySQL struct{}

// NewMySQL returns the MySQL/MariaDB dialect.
func NewMySQL() *MySQL { return &MySQL{} }

func (*MySQL) Name() string { return "mysql" }

func (*MySQL) Capabilities() Capabilities {
	return Capabilities{
		IgnoresOutputTypes:  true,
		AnonymousParameters: true,
	}
}

func (*MySQL) ParameterToken(int, string) string { return "?" }

func (*MySQL) BuildSelect(s Select) (string, error) {
	return limitOffsetSelect(s)
}

func (*MySQL) BuildPagingQueryPair(s Select, pageSize, currentPage int) (string, string, error) {
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

func (*MySQL) BuildInsert(table string, columns, values []string) (string, error) {
	return insertSQL(table, columns, values, "INSERT INTO %s () VALUES ()")
}

func (*MySQL) BuildUpdate(table string, set []Assignment, where string) (string, error) {
	return updateSQL(table, set, where)
}

func (*MySQL) BuildDelete(table, where string) (string, error) {
	return deleteSQL(table, where)
}

func (*MySQL) BuildNextval(string) (string, error) {
	return "", ErrSequencesUnsupported
}

func (*MySQL) BuildProcedureCall(name string, args []ProcedureArg) string {
	return fmt.Sprintf("CALL %s(%s)", name, strings.Join(inputTokens(args), ", "))
}

func (*MySQL) DereferenceCursor(string) (string, bool) { return "", false }

func (*MySQL) KeyRetrieval() KeyRetrieval { return KeyRetrievalLastInsertID }

func (*MySQL) GeneratedKeyExpression(string) string { return "LAST_INSERT_ID()" }

// AppendKeyRetrieval leaves the INSERT unchanged; the driver reports the key.
func (*MySQL) AppendKeyRetrieval(insertSQL, _ string) string { return insertSQL }

func (*MySQL) RequiresWrappingTransaction(CommandTraits) bool { return false }

var _ Dialect = (*MySQL)(nil)
