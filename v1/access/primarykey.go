package access

import (
	"fmt"
	"strings"

	"github.com/Aleph-Alpha/dbaccess/v1/dialect"
	"github.com/Aleph-Alpha/dbaccess/v1/schema"
)

// PrimaryKey is the resolved key of a table binding.
type PrimaryKey struct {
	// Columns in key order. Empty means the table has no key.
	Columns []string

	// Sequence generating the key, when the dialect uses one.
	Sequence string

	// Generated is true when the database produces the (single-column) key.
	Generated bool

	expression string
}

func newPrimaryKey(cfg TableConfig, model schema.Model, d dialect.Dialect) (*PrimaryKey, error) {
	pk := &PrimaryKey{Columns: splitColumns(cfg.PrimaryKey), Sequence: cfg.Sequence}
	if pk.Sequence != "" && !d.Capabilities().SequenceBased {
		return nil, opError("table "+cfg.Name, cfg.Sequence, fmt.Errorf("%w: sequences", ErrUnsupported))
	}
	if len(pk.Columns) == 0 {
		pk.Columns = append(pk.Columns, model.PrimaryKeys...)
	}
	switch cfg.KeyGeneration {
	case KeyGenerationDatabase:
		pk.Generated = true
	case KeyGenerationNone:
	default:
		pk.Generated = cfg.Sequence != "" ||
			(len(pk.Columns) == 1 && strings.EqualFold(model.AutoIncrement, pk.Columns[0]))
	}
	if pk.Generated {
		switch len(pk.Columns) {
		case 0:
			return nil, opError("table "+cfg.Name, "", ErrNoPrimaryKey)
		case 1:
			pk.expression = d.GeneratedKeyExpression(pk.Columns[0])
		default:
			return nil, opError("table "+cfg.Name, cfg.PrimaryKey, ErrCompoundGeneratedKey)
		}
	}
	return pk, nil
}

// Arity is the number of key columns.
func (pk *PrimaryKey) Arity() int { return len(pk.Columns) }

// GeneratedKeyExpression is the dialect's retrieval expression for a generated
// key, or "" when the key is not generated.
func (pk *PrimaryKey) GeneratedKeyExpression() string { return pk.expression }

// index returns the position of column in the key.
func (pk *PrimaryKey) index(column string, caseSensitive bool) (int, bool) {
	for i, c := range pk.Columns {
		if c == column || (!caseSensitive && strings.EqualFold(c, column)) {
			return i, true
		}
	}
	return -1, false
}
