package access

import (
	"database/sql"
	"fmt"
	"reflect"
	"strconv"

	"github.com/Aleph-Alpha/dbaccess/v1/dialect"
	"github.com/Aleph-Alpha/dbaccess/v1/schema"
)

var errCursorDirection = fmt.Errorf("%w: Cursor requires an output parameter", ErrUnsupported)

// binder builds the parameter list of one command.
type binder struct {
	dialect   dialect.Dialect
	caps      dialect.Capabilities
	contracts schema.Provider
	cmd       *Command
	nsent     int

	// sendNulls binds nil inputs as arguments instead of rendering NULL; used
	// when the caller wrote the SQL text and references every token.
	sendNulls bool
}

func newBinder(d dialect.Dialect, contracts schema.Provider) *binder {
	caps := d.Capabilities()
	return &binder{
		dialect:   d,
		caps:      caps,
		contracts: contracts,
		cmd:       &Command{caps: caps},
	}
}

func (b *binder) command(text string) *Command {
	b.cmd.Text = text
	return b.cmd
}

// bind adds positional arguments and then the In, Out, InOut and Return bags.
// filter applies to named entries; pk classifies them.
func (b *binder) bind(positional []any, bags Bags, filter KeyFilter, pk *PrimaryKey) error {
	if err := b.positional(positional); err != nil {
		return err
	}
	for _, e := range []struct {
		bag any
		dir Direction
	}{
		{bags.In, In},
		{bags.Out, Out},
		{bags.InOut, InOut},
		{bags.Return, ReturnValue},
	} {
		if e.bag == nil {
			continue
		}
		if err := b.bag(e.bag, e.dir, filter, pk); err != nil {
			return err
		}
	}
	return nil
}

// positional binds caller arguments in order. They are referenced by the
// caller's SQL text, so nil is sent as a NULL argument rather than rendered.
func (b *binder) positional(args []any) error {
	for i, a := range args {
		if isConnection(a) {
			return opError("bind", "arg "+strconv.Itoa(i+1), ErrConnectionAsParameter)
		}
		name := ""
		if !b.caps.AnonymousParameters {
			name = "p" + strconv.Itoa(i+1)
		}
		if na, ok := a.(sql.NamedArg); ok {
			name, a = na.Name, na.Value
		}
		switch a.(type) {
		case rowCount:
			return opError("bind", "arg "+strconv.Itoa(i+1), ErrRowCountDirection)
		case cursor:
			return opError("bind", "arg "+strconv.Itoa(i+1), errCursorDirection)
		}
		p := &Parameter{Name: name, Direction: In}
		if err := b.setValue(p, a); err != nil {
			return err
		}
		b.send(p)
		b.cmd.Parameters = append(b.cmd.Parameters, p)
	}
	return nil
}

func (b *binder) bag(bag any, dir Direction, filter KeyFilter, pk *PrimaryKey) error {
	if isConnection(bag) {
		return opError("bind", dir.String(), ErrConnectionAsParameter)
	}
	if _, ok := schema.ValueOnly(bag); ok {
		return opError("bind", dir.String(), fmt.Errorf("%w: %T", schema.ErrUnsupportedItem, bag))
	}
	contract, err := b.contracts.For(reflect.TypeOf(bag))
	if err != nil {
		return opError("bind", dir.String(), err)
	}
	fields, err := contract.Fields(bag)
	if err != nil {
		return opError("bind", dir.String(), err)
	}
	_, err = b.fields(bag, fields, dir, filter, pk, contract.CaseSensitive())
	return err
}

// fields binds already enumerated fields as dir parameters and returns them in
// binding order. filter applies when pk is set. Output parameters remember
// bag so their values can be written back.
func (b *binder) fields(bag any, fields []schema.Field, dir Direction, filter KeyFilter, pk *PrimaryKey, caseSensitive bool) ([]*Parameter, error) {
	var bound []*Parameter
	for _, f := range fields {
		if filter != KeysAll && pk != nil {
			_, isKey := pk.index(f.Column, caseSensitive)
			if (filter == KeysOnly) != isKey {
				continue
			}
		}
		p := &Parameter{Name: f.Column, Direction: dir, Type: f.Type}
		if err := b.setValue(p, f.Value); err != nil {
			return nil, err
		}
		if err := b.place(p); err != nil {
			return nil, err
		}
		if dir != In && bag != nil {
			b.cmd.sources = append(b.cmd.sources, bagSource{param: p, bag: bag, field: f.Name})
		}
		bound = append(bound, p)
	}
	return bound, nil
}

// setValue unwraps Typed and rejects connections.
func (b *binder) setValue(p *Parameter, v any) error {
	if t, ok := v.(Typed); ok {
		v = t.Value
		p.Type = t.Type
	}
	if isConnection(v) {
		return opError("bind", p.Name, ErrConnectionAsParameter)
	}
	p.Value = schema.Normalize(v)
	if p.Value != nil && p.Type == nil {
		p.Type = reflect.TypeOf(p.Value)
	}
	if p.Type != nil && p.Type.Kind() == reflect.Pointer {
		p.Type = p.Type.Elem()
	}
	return nil
}

// place decides how a named parameter is rendered and whether it is sent.
func (b *binder) place(p *Parameter) error {
	switch p.Value.(type) {
	case rowCount:
		if p.Direction != Out {
			return opError("bind", p.Name, ErrRowCountDirection)
		}
		p.rowCount, p.Value, p.Type = true, nil, reflect.TypeFor[int64]()
		b.cmd.Parameters = append(b.cmd.Parameters, p)
		return nil
	case cursor:
		if p.Direction != Out {
			return opError("bind", p.Name, errCursorDirection)
		}
		if !b.caps.Cursors {
			return opError("bind", p.Name, fmt.Errorf("%w: cursors", ErrUnsupported))
		}
		p.Cursor, p.Value, p.Type = true, nil, reflect.TypeFor[string]()
	}

	switch p.Direction {
	case In:
		b.placeInput(p)
	default:
		if p.Value == nil && p.Type == nil && !b.caps.IgnoresOutputTypes {
			return opError("bind", p.Name, ErrUntypedOutputParameter)
		}
		switch {
		case b.caps.OutputParameters:
			b.send(p)
		case p.Direction == InOut:
			b.placeInput(p)
		}
	}
	b.cmd.Parameters = append(b.cmd.Parameters, p)
	return nil
}

// placeInput renders nil as a literal NULL and everything else as a placeholder.
func (b *binder) placeInput(p *Parameter) {
	if p.Value == nil && !b.sendNulls {
		p.Token = "NULL"
		return
	}
	b.send(p)
}

func (b *binder) send(p *Parameter) {
	b.nsent++
	p.sent = true
	p.ordinal = b.nsent
	name := p.Name
	if name == "" {
		name = "p" + strconv.Itoa(p.ordinal)
	}
	p.Token = b.dialect.ParameterToken(p.ordinal, name)
}

// value binds a single In value for generated SQL and returns its token.
func (b *binder) value(name string, v any) (string, error) {
	p := &Parameter{Name: name, Direction: In}
	if err := b.setValue(p, v); err != nil {
		return "", err
	}
	if err := b.place(p); err != nil {
		return "", err
	}
	return p.Token, nil
}

// procedureArgs renders the call arguments of a procedure command.
func (b *binder) procedureArgs() []dialect.ProcedureArg {
	args := make([]dialect.ProcedureArg, 0, len(b.cmd.Parameters))
	for _, p := range b.cmd.Parameters {
		if p.rowCount {
			continue
		}
		args = append(args, dialect.ProcedureArg{
			Token:  p.Token,
			Input:  p.Direction == In || p.Direction == InOut,
			Output: p.Direction == Out || p.Direction == InOut,
			Return: p.Direction == ReturnValue,
		})
	}
	return args
}

func isConnection(v any) bool {
	switch v.(type) {
	case *sql.DB, *sql.Conn, *sql.Tx, *DB:
		return true
	}
	return false
}
