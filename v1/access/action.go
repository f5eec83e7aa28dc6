package access

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/Aleph-Alpha/dbaccess/v1/dialect"
	"github.com/Aleph-Alpha/dbaccess/v1/schema"
)

// Action is a CRUD action on one item.
type Action int

const (
	// Save resolves to Update when the item carries non-default key values and
	// to Insert otherwise.
	Save Action = iota
	Insert
	Update
	Delete
)

func (a Action) String() string {
	switch a {
	case Save:
		return "save"
	case Insert:
		return "insert"
	case Update:
		return "update"
	case Delete:
		return "delete"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// actionPlan is the per-item plan a command is built from.
type actionPlan struct {
	fields      []schema.Field
	keys        []schema.Field
	nonKeys     []schema.Field
	nDefaults   int
	valueOnly   bool
	contract    schema.Contract
	retrieveKey bool

	// noop marks an update with nothing to set; it is not executed.
	noop bool
}

func (p *actionPlan) caseSensitive() bool {
	return p.contract != nil && p.contract.CaseSensitive()
}

// planItem enumerates and classifies the fields of item.
func (t *Table[T]) planItem(cfg Config, item any, requested Action) (*actionPlan, error) {
	p := &actionPlan{}
	if values, ok := schema.ValueOnly(item); ok {
		if t.pk.Arity() == 0 {
			return nil, opError(requested.String(), "", ErrNoPrimaryKey)
		}
		if len(values) != t.pk.Arity() {
			return nil, opError(requested.String(), "", fmt.Errorf("%w: %d key value(s) for %d key column(s)", ErrPartialKey, len(values), t.pk.Arity()))
		}
		p.valueOnly = true
		for i, v := range values {
			v = schema.Normalize(v)
			f := schema.Field{Name: t.pk.Columns[i], Column: t.pk.Columns[i], Value: v, Zero: schema.IsZero(v), PrimaryKey: true}
			if v != nil {
				f.Type = reflect.TypeOf(v)
			}
			p.fields = append(p.fields, f)
		}
	} else {
		if isConnection(item) {
			return nil, opError(requested.String(), "", ErrConnectionAsParameter)
		}
		contract, err := t.contractOf(cfg, item)
		if err != nil {
			return nil, opError(requested.String(), "", err)
		}
		p.contract = contract
		if p.fields, err = contract.Fields(item); err != nil {
			return nil, opError(requested.String(), "", err)
		}
	}

	caseSensitive := p.caseSensitive()
	for _, f := range p.fields {
		if _, isKey := t.pk.index(f.Column, caseSensitive); isKey {
			p.keys = append(p.keys, f)
			if f.Zero {
				p.nDefaults++
			}
		} else {
			p.nonKeys = append(p.nonKeys, f)
		}
	}
	return p, nil
}

// validate enforces the all-or-no key rule and the default-value rule.
func (p *actionPlan) validate(requested Action, arity int) error {
	nKeys := len(p.keys)
	if nKeys != 0 && nKeys != arity {
		return opError(requested.String(), p.keys[0].Column, fmt.Errorf("%w: %d of %d present", ErrPartialKey, nKeys, arity))
	}
	if p.nDefaults != 0 && p.nDefaults != nKeys {
		return opError(requested.String(), "", ErrMixedDefaultKeys)
	}
	return nil
}

// resolveAction turns Save into Insert or Update.
func (p *actionPlan) resolveAction(requested Action) (Action, error) {
	switch requested {
	case Save:
		if len(p.keys) > 0 && p.nDefaults == 0 {
			return Update, nil
		}
		return Insert, nil
	case Insert, Update, Delete:
		return requested, nil
	default:
		return requested, opError(requested.String(), "", ErrUnknownAction)
	}
}

// Resolve builds the command for item and reports the resolved action. No SQL
// is executed. An update of an item carrying only its key has nothing to set
// and resolves to Update with empty command text; Save skips it.
func (t *Table[T]) Resolve(item any, requested Action) (*Command, Action, error) {
	cmd, action, _, err := t.resolve(t.db.config(), item, requested)
	return cmd, action, err
}

func (t *Table[T]) resolve(cfg Config, item any, requested Action) (*Command, Action, *actionPlan, error) {
	if t.name == "" {
		return nil, requested, nil, opError(requested.String(), "", ErrNoTable)
	}
	p, err := t.planItem(cfg, item, requested)
	if err != nil {
		return nil, requested, nil, err
	}
	if err := p.validate(requested, t.pk.Arity()); err != nil {
		return nil, requested, nil, err
	}
	action, err := p.resolveAction(requested)
	if err != nil {
		return nil, requested, nil, err
	}

	b := newBinder(t.db.dialect, cfg.Contracts)
	var text string
	switch action {
	case Insert:
		text, err = t.buildInsert(cfg, b, p)
	case Update:
		text, err = t.buildUpdate(b, p)
	case Delete:
		text, err = t.buildDelete(b, p)
	}
	if err != nil {
		return nil, action, nil, opError(action.String(), "", err)
	}
	return b.command(text), action, p, nil
}

func (t *Table[T]) buildInsert(cfg Config, b *binder, p *actionPlan) (string, error) {
	var columns, values []string
	generated := t.pk.Generated && t.pk.Arity() == 1
	for _, f := range p.fields {
		_, isKey := t.pk.index(f.Column, p.caseSensitive())
		if isKey && generated {
			continue
		}
		token, err := b.value(f.Column, f.Value)
		if err != nil {
			return "", err
		}
		columns = append(columns, f.Column)
		values = append(values, token)
	}
	if generated && t.pk.Sequence != "" {
		next, err := t.db.dialect.BuildNextval(t.pk.Sequence)
		if err != nil {
			return "", err
		}
		columns = append(columns, t.pk.Columns[0])
		values = append(values, next)
	}
	text, err := t.db.dialect.BuildInsert(t.name, columns, values)
	if err != nil {
		return "", err
	}
	if generated && !cfg.SkipKeyRetrieval && t.db.dialect.KeyRetrieval() != dialect.KeyRetrievalNone {
		p.retrieveKey = true
		text = t.db.dialect.AppendKeyRetrieval(text, t.pk.Columns[0])
	}
	return text, nil
}

// buildUpdate binds the SET list from the non-key fields and the WHERE list
// from the key fields. An item carrying only its key has nothing to set and
// becomes a no-op.
func (t *Table[T]) buildUpdate(b *binder, p *actionPlan) (string, error) {
	if len(p.keys) == 0 {
		return "", ErrNoPrimaryKey
	}
	if len(p.nonKeys) == 0 {
		p.noop = true
		return "", nil
	}
	values, err := b.fields(nil, p.fields, In, KeysExcluded, t.pk, p.caseSensitive())
	if err != nil {
		return "", err
	}
	set := make([]dialect.Assignment, len(values))
	for i, v := range values {
		set[i] = dialect.Assignment{Column: v.Name, Value: v.Token}
	}
	where, err := keyPredicate(b, p.fields, t.pk, p.caseSensitive())
	if err != nil {
		return "", err
	}
	return t.db.dialect.BuildUpdate(t.name, set, where)
}

func (t *Table[T]) buildDelete(b *binder, p *actionPlan) (string, error) {
	if len(p.keys) == 0 {
		return "", ErrNoPrimaryKey
	}
	where, err := keyPredicate(b, p.fields, t.pk, p.caseSensitive())
	if err != nil {
		return "", err
	}
	return t.db.dialect.BuildDelete(t.name, where)
}

// keyPredicate renders "a = $1 AND b = $2" from the key columns of fields;
// nil keys compare with IS NULL and bind nothing. A nil pk treats every field
// as a key.
func keyPredicate(b *binder, fields []schema.Field, pk *PrimaryKey, caseSensitive bool) (string, error) {
	var nulls map[string]bool
	bound := make([]schema.Field, 0, len(fields))
	for _, f := range fields {
		if f.Value != nil {
			bound = append(bound, f)
			continue
		}
		if pk != nil {
			if _, isKey := pk.index(f.Column, caseSensitive); !isKey {
				continue
			}
		}
		if nulls == nil {
			nulls = make(map[string]bool)
		}
		nulls[f.Column] = true
	}
	params, err := b.fields(nil, bound, In, KeysOnly, pk, caseSensitive)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(params)+len(nulls))
	for _, f := range fields {
		if nulls[f.Column] {
			parts = append(parts, f.Column+" IS NULL")
			continue
		}
		if len(params) > 0 && params[0].Name == f.Column {
			parts = append(parts, f.Column+" = "+params[0].Token)
			params = params[1:]
		}
	}
	return strings.Join(parts, " AND "), nil
}
