package access

import (
	"reflect"
	"strings"

	"github.com/Aleph-Alpha/dbaccess/v1/dialect"
	"github.com/Aleph-Alpha/dbaccess/v1/schema"
)

// Command is SQL text with its bound parameters, in binding order.
type Command struct {
	Text          string
	Parameters    []*Parameter
	ProcedureCall bool

	caps    dialect.Capabilities
	sources []bagSource
}

// bagSource remembers where an output parameter came from so its value can be
// written back after execution.
type bagSource struct {
	param *Parameter
	bag   any
	field string
}

// Args returns the database/sql arguments of the command.
func (c *Command) Args() []any {
	args := make([]any, 0, len(c.Parameters))
	for _, p := range c.Parameters {
		if p.sent {
			args = append(args, p.driverArg(c.caps.NamedParameters, c.caps.OutputParameters))
		}
	}
	return args
}

// Parameter returns the parameter called name.
func (c *Command) Parameter(name string) (*Parameter, bool) {
	for _, p := range c.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	for _, p := range c.Parameters {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return nil, false
}

// Outputs returns the values of all Out, InOut and ReturnValue parameters.
func (c *Command) Outputs() *Record {
	r := &Record{}
	for _, p := range c.Parameters {
		if p.output() {
			r.Set(p.Name, p.Value)
		}
	}
	return r
}

func (c *Command) traits() dialect.CommandTraits {
	t := dialect.CommandTraits{ProcedureCall: c.ProcedureCall}
	for _, p := range c.Parameters {
		if p.Cursor {
			t.CursorParameters = true
		}
	}
	return t
}

// hasRowOutputs reports whether outputs are read from the result row.
func (c *Command) hasRowOutputs() bool {
	for _, p := range c.Parameters {
		if p.output() && !p.rowCount && !(p.sent && c.caps.OutputParameters) {
			return true
		}
	}
	return false
}

// collectOutputs fills output parameters after execution. row holds the first
// result row, if any; affected is the row count for RowCount parameters.
func (c *Command) collectOutputs(row *Record, affected int64) {
	for _, p := range c.Parameters {
		if !p.output() {
			continue
		}
		switch {
		case p.rowCount:
			p.Value = affected
		case p.sent && c.caps.OutputParameters && p.dest.IsValid():
			p.Value = p.dest.Elem().Interface()
		case row != nil:
			if v, ok := row.Get(p.Name); ok {
				p.Value = v
			}
		}
	}
}

// writeBack stores output values in the bags they came from.
func (c *Command) writeBack() error {
	for _, s := range c.sources {
		if err := writeBag(s.bag, s.field, s.param.Value); err != nil {
			return opError("bind", s.param.Name, err)
		}
	}
	return nil
}

// writeBag stores an output value in a mutable bag; immutable bags are left alone.
func writeBag(bag any, field string, value any) error {
	switch b := bag.(type) {
	case *Record:
		b.Set(field, value)
		return nil
	case map[string]any:
		b[field] = value
		return nil
	}
	rv := reflect.ValueOf(bag)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil
	}
	f := rv.Elem().FieldByName(field)
	if !f.IsValid() || !f.CanSet() {
		return nil
	}
	return schema.Assign(f, value)
}
