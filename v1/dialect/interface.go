package dialect

// KeyRetrieval tells the access core how a generated key comes back from an INSERT.
type KeyRetrieval int

const (
	// KeyRetrievalNone means the dialect cannot return generated keys.
	KeyRetrievalNone KeyRetrieval = iota

	// KeyRetrievalReturning means the INSERT itself returns the key as a one-row result.
	KeyRetrievalReturning

	// KeyRetrievalAppended means a SELECT of the new key is appended to the INSERT
	// in the same batch; the key is the first row of the first result set that has one.
	KeyRetrievalAppended

	// KeyRetrievalLastInsertID means the driver reports the key through sql.Result.LastInsertId.
	KeyRetrievalLastInsertID
)

// String returns the strategy name.
func (k KeyRetrieval) String() string {
	switch k {
	case KeyRetrievalReturning:
		return "returning"
	case KeyRetrievalAppended:
		return "appended"
	case KeyRetrievalLastInsertID:
		return "last-insert-id"
	default:
		return "none"
	}
}

// Capabilities are the provider capability flags the core branches on.
type Capabilities struct {
	// IgnoresOutputTypes is true when the provider accepts output parameters
	// without a declared storage type.
	IgnoresOutputTypes bool

	// SequenceBased is true when generated keys can come from a named sequence
	// referenced in the INSERT (BuildNextval).
	SequenceBased bool

	// AnonymousParameters is true when the provider binds strictly by position.
	AnonymousParameters bool

	// NamedParameters is true when arguments are passed as sql.Named values.
	NamedParameters bool

	// OutputParameters is true when the driver supports sql.Out arguments.
	OutputParameters bool

	// Cursors is true when procedures can return cursor parameters.
	Cursors bool
}

// CommandTraits describe a command for RequiresWrappingTransaction.
type CommandTraits struct {
	ProcedureCall    bool
	CursorParameters bool
	ReturnsRows      bool
}

// Select describes a table-bound SELECT. Where and OrderBy are opaque fragments
// without their keywords. Limit and Offset of zero are omitted.
type Select struct {
	Columns string
	Table   string
	Where   string
	OrderBy string
	Limit   int
	Offset  int
}

// Assignment is one SET pair of an UPDATE. Value is already-rendered SQL
// (a parameter token or a literal such as NULL).
type Assignment struct {
	Column string
	Value  string
}

// ProcedureArg is one rendered argument of a procedure call.
type ProcedureArg struct {
	Token string

	// Output is set for Out and InOut parameters.
	Output bool

	// Input is set for In and InOut parameters.
	Input bool

	// Return is set for the ReturnValue parameter.
	Return bool
}

// Dialect is the provider plugin consumed by the access core.
type Dialect interface {
	// Name returns the provider name, e.g. "postgres".
	Name() string

	// Capabilities returns the provider capability flags.
	Capabilities() Capabilities

	// ParameterToken renders the placeholder for the parameter at the given
	// 1-based position in the command, with the given name.
	ParameterToken(ordinal int, name string) string

	// BuildSelect renders a table-bound SELECT.
	BuildSelect(s Select) (string, error)

	// BuildPagingQueryPair renders the COUNT and the windowed SELECT for one page.
	BuildPagingQueryPair(s Select, pageSize, currentPage int) (countSQL, windowSQL string, err error)

	// BuildInsert renders an INSERT; values are already-rendered SQL.
	BuildInsert(table string, columns, values []string) (string, error)

	// BuildUpdate renders an UPDATE with the given SET list and WHERE fragment.
	BuildUpdate(table string, set []Assignment, where string) (string, error)

	// BuildDelete renders a DELETE with the given WHERE fragment.
	BuildDelete(table, where string) (string, error)

	// BuildNextval renders the next-value expression of a sequence.
	BuildNextval(sequence string) (string, error)

	// BuildProcedureCall renders a call of a stored procedure or function.
	// Providers without output parameters only pass input-side arguments and
	// return outputs as the columns of the result row.
	BuildProcedureCall(name string, args []ProcedureArg) string

	// DereferenceCursor renders the statement reading all rows of a cursor
	// returned by a procedure. ok is false when the provider has no cursors.
	DereferenceCursor(cursor string) (sql string, ok bool)

	// KeyRetrieval reports how a generated key is returned.
	KeyRetrieval() KeyRetrieval

	// GeneratedKeyExpression returns the SQL that yields the generated key
	// of the given column for this provider.
	GeneratedKeyExpression(column string) string

	// AppendKeyRetrieval returns insertSQL extended so that executing it also
	// returns the generated key of column.
	AppendKeyRetrieval(insertSQL, column string) string

	// RequiresWrappingTransaction reports whether a command must run in a
	// local transaction when none is active.
	RequiresWrappingTransaction(t CommandTraits) bool
}
