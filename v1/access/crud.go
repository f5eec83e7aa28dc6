package access

import (
	"context"
	"database/sql"
	"reflect"

	"go.uber.org/multierr"

	"github.com/Aleph-Alpha/dbaccess/v1/dialect"
	"github.com/Aleph-Alpha/dbaccess/v1/schema"
)

// Result reports what happened to one item of a write.
type Result[T any] struct {
	// Item is the written item. After an insert with a generated key it is
	// the original item updated in place, or a copy carrying the key when the
	// item could not be modified.
	Item T

	// Action is the resolved action; Save never appears here.
	Action Action

	// Key is the generated key, valid when HasKey is set.
	Key    int64
	HasKey bool

	// InPlace reports that the key was written into the caller's item.
	InPlace bool

	RowsAffected int64

	// Skipped is set when the filter opted the item out.
	Skipped bool
}

// Save inserts items without key values and updates the others.
func (t *Table[T]) Save(ctx context.Context, items ...T) ([]Result[T], error) {
	return t.write(ctx, Save, items)
}

// Insert inserts items. A single generated key is read back in the same round
// trip and written into each item.
func (t *Table[T]) Insert(ctx context.Context, items ...T) ([]Result[T], error) {
	return t.write(ctx, Insert, items)
}

// Update updates items by their key values.
func (t *Table[T]) Update(ctx context.Context, items ...T) ([]Result[T], error) {
	return t.write(ctx, Update, items)
}

// Delete deletes items by their key values.
func (t *Table[T]) Delete(ctx context.Context, items ...T) ([]Result[T], error) {
	return t.write(ctx, Delete, items)
}

// DeleteByKey deletes the row with the given key values, in key column order.
func (t *Table[T]) DeleteByKey(ctx context.Context, key ...any) (int64, error) {
	out, err := t.perform(ctx, Delete, []any{key})
	if err != nil {
		return 0, err
	}
	return out[0].affected, nil
}

func (t *Table[T]) write(ctx context.Context, requested Action, items []T) ([]Result[T], error) {
	in := make([]any, len(items))
	for i, it := range items {
		in[i] = it
	}
	out, err := t.perform(ctx, requested, in)
	if err != nil {
		return nil, err
	}
	results := make([]Result[T], len(items))
	for i, o := range out {
		item, ok := o.item.(T)
		if !ok {
			item = items[i]
		}
		results[i] = Result[T]{
			Item:         item,
			Action:       o.action,
			Key:          o.key,
			HasKey:       o.hasKey,
			InPlace:      o.inPlace,
			RowsAffected: o.affected,
			Skipped:      o.skipped,
		}
	}
	return results, nil
}

// outcome is the untyped result of one item.
type outcome struct {
	item     any
	action   Action
	cmd      *Command
	plan     *actionPlan
	key      int64
	hasKey   bool
	inPlace  bool
	affected int64
	skipped  bool
}

// perform filters, resolves and validates every item before executing any
// command, then runs all commands on one connection.
func (t *Table[T]) perform(ctx context.Context, requested Action, items []any) (out []outcome, err error) {
	cfg := t.db.config()
	ctx, op := t.db.startOperation(ctx, cfg, requested.String(), t.name)
	var total int64
	defer func() { op.end(total, err) }()

	out = make([]outcome, len(items))
	pending := 0
	for i, item := range items {
		out[i].item = item
		if cfg.Filter != nil && !cfg.Filter(ctx, requested, item) {
			out[i].skipped = true
			continue
		}
		if item == nil {
			return nil, opError(requested.String(), "", schema.ErrNilItem)
		}
		cmd, action, plan, err := t.resolve(cfg, item, requested)
		if err != nil {
			return nil, err
		}
		out[i].cmd, out[i].action, out[i].plan = cmd, action, plan
		if !plan.noop {
			pending++
		}
	}
	if err := t.validate(ctx, cfg, requested, out); err != nil {
		return nil, err
	}
	if pending == 0 {
		return out, nil
	}

	sess, err := t.db.acquire(ctx, cfg, dialect.CommandTraits{})
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, sess.release(err == nil, err))
	}()

	for i := range out {
		o := &out[i]
		if o.skipped || o.plan.noop {
			continue
		}
		op.debug(o.cmd.Text, len(o.cmd.Parameters))
		if err := t.execute(ctx, sess.conn, o); err != nil {
			return nil, opError(o.action.String(), "", err)
		}
		total += o.affected
		if o.hasKey {
			if err := t.writeKey(o); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// validate runs the validator over the resolved items. Eager mode collects
// every failing item, lazy mode stops at the first.
func (t *Table[T]) validate(ctx context.Context, cfg Config, requested Action, out []outcome) error {
	if cfg.Validation == ValidationOff || cfg.Validator == nil {
		return nil
	}
	var failed []ItemErrors
	for i, o := range out {
		if o.skipped {
			continue
		}
		var errs error
		cfg.Validator.ValidateForAction(ctx, o.action, o.item, func(err error) {
			errs = multierr.Append(errs, err)
		})
		if errs == nil {
			continue
		}
		failed = append(failed, ItemErrors{Index: i, Item: o.item, Err: errs})
		if cfg.Validation == ValidationLazy {
			break
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return &ValidationError{Action: requested, Items: failed}
}

// execute runs one command. Generated keys come back in the same round trip:
// as a result row, or through the driver's last insert id.
func (t *Table[T]) execute(ctx context.Context, conn Conn, o *outcome) error {
	args := o.cmd.Args()
	if !o.plan.retrieveKey {
		res, err := conn.ExecContext(ctx, o.cmd.Text, args...)
		if err != nil {
			return err
		}
		o.affected, err = res.RowsAffected()
		return err
	}

	if t.db.dialect.KeyRetrieval() == dialect.KeyRetrievalLastInsertID {
		res, err := conn.ExecContext(ctx, o.cmd.Text, args...)
		if err != nil {
			return err
		}
		if o.affected, err = res.RowsAffected(); err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		o.key, o.hasKey = id, true
		return nil
	}

	rows, err := conn.QueryContext(ctx, o.cmd.Text, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	v, found, err := firstValue(rows)
	if err != nil || !found {
		return err
	}
	if o.key, err = schema.ToInt64(v); err != nil {
		return opError(o.action.String(), t.pk.Columns[0], err)
	}
	o.hasKey, o.affected = true, 1
	return nil
}

// firstValue returns the first column of the first row of the first result
// set that has rows.
func firstValue(rows *sql.Rows) (any, bool, error) {
	for {
		if rows.Next() {
			var v any
			if err := rows.Scan(&v); err != nil {
				return nil, false, err
			}
			return v, true, rows.Close()
		}
		if err := rows.Err(); err != nil {
			return nil, false, err
		}
		if !rows.NextResultSet() {
			return nil, false, rows.Err()
		}
	}
}

// writeKey stores the generated key in the item. Mutable items are updated in
// place; anything else is replaced by a copy carrying the key.
func (t *Table[T]) writeKey(o *outcome) error {
	column := t.pk.Columns[0]
	if o.plan.valueOnly {
		o.item = NewRecord([]string{column}, []any{o.key})
		return nil
	}
	switch item := o.item.(type) {
	case KeyUpdater:
		o.inPlace = true
		return item.UpdateKey(column, o.key)
	case map[string]any:
		item[column] = o.key
		o.inPlace = true
		return nil
	}

	info, ok := o.plan.contract.FieldFor(column)
	if !ok {
		o.item = t.shadow(o)
		return nil
	}
	v := reflect.ValueOf(o.item)
	if v.Kind() == reflect.Pointer && !v.IsNil() && v.Elem().Kind() == reflect.Struct {
		if err := schema.Assign(schema.FieldByIndex(v.Elem(), info.Index), o.key); err != nil {
			return opError(o.action.String(), info.Name, err)
		}
		o.inPlace = true
		return nil
	}
	if v.Kind() == reflect.Struct {
		cp := reflect.New(v.Type()).Elem()
		cp.Set(v)
		if err := schema.Assign(schema.FieldByIndex(cp, info.Index), o.key); err != nil {
			return opError(o.action.String(), info.Name, err)
		}
		o.item = cp.Interface()
		return nil
	}
	o.item = t.shadow(o)
	return nil
}

// shadow builds a fresh Record from the item's fields plus the key.
func (t *Table[T]) shadow(o *outcome) *Record {
	r := &Record{}
	for _, f := range o.plan.fields {
		r.Set(f.Column, f.Value)
	}
	r.Set(t.pk.Columns[0], o.key)
	return r
}
