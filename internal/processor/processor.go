// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package processor validates form submissions and persists them to the
// bound table: single-record insert and update, delete, batch edit of row
// keyed submissions, and many-to-many link table reconciliation.
package processor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/fields"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/messages"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/model"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/store"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/validate"
)

// Sentinel errors
var (
	ErrNoPrimaryField  = errors.New("no primary field declared")
	ErrMultiplePrimary = errors.New("linked fields require a single primary field")
	ErrEmptyPrimary    = errors.New("primary field value is empty")
	ErrIncompleteLink  = errors.New("link table metadata is incomplete")
)

// Type selects what Process does with a submission.
type Type string

// Processor types
const (
	TypeInsert Type = "insert"
	TypeUpdate Type = "update"
	TypeEdit   Type = "edit"
)

// ParseType converts a configured type name.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeInsert, TypeUpdate, TypeEdit:
		return t, nil
	}
	return "", fmt.Errorf("unknown processor type %q", s)
}

// Options configures a Processor.
type Options struct {
	// Validators resolves field validation rules. Nil uses the built-in rules.
	Validators *validate.Registry
	// Messages receives form messages and diagnostic events.
	Messages *messages.Sink
}

// Processor handles submissions for one table and field collection. It is
// request scoped and not safe for concurrent use.
type Processor struct {
	db         *store.DB
	table      string
	fields     *fields.Collection
	validators *validate.Registry
	sink       *messages.Sink

	typ       Type
	callbacks map[Trigger]Callback
	insertID  int64
}

// New creates a processor writing to table.
func New(db *store.DB, table string, fc *fields.Collection, opts Options) *Processor {
	if opts.Validators == nil {
		opts.Validators = validate.NewRegistry()
	}
	if opts.Messages == nil {
		opts.Messages = messages.New(nil)
	}
	return &Processor{
		db:         db,
		table:      table,
		fields:     fc,
		validators: opts.Validators,
		sink:       opts.Messages,
		callbacks:  make(map[Trigger]Callback),
	}
}

// SetType selects the operation Process performs.
func (p *Processor) SetType(t Type) error {
	parsed, err := ParseType(string(t))
	if err != nil {
		return err
	}
	p.typ = parsed
	return nil
}

// Type returns the configured type, or "" when none is set.
func (p *Processor) Type() Type {
	return p.typ
}

// Messages returns the processor's message sink.
func (p *Processor) Messages() *messages.Sink {
	return p.sink
}

// Fields returns the field collection.
func (p *Processor) Fields() *fields.Collection {
	return p.fields
}

// InsertID returns the key generated by the last successful Insert.
func (p *Processor) InsertID() int64 {
	return p.insertID
}

// column is a column name and its value.
type column struct {
	name  string
	value string
}

// submitted returns the values posted for name, accepting the "name[]"
// spelling used by multi-value controls.
func submitted(data url.Values, name string) ([]string, bool) {
	if v, ok := data[name]; ok {
		return v, true
	}
	v, ok := data[name+"[]"]
	return v, ok
}

// fieldValues normalizes submitted values: multi-value fields keep the
// list, scalar fields keep the last value posted.
func fieldValues(f *model.Field, raw []string) []string {
	if f.MultiValue() {
		return model.Value(raw).List()
	}
	if len(raw) == 0 {
		return nil
	}
	return []string{raw[len(raw)-1]}
}

// columnValue is the value stored for a non-linked field.
func columnValue(f *model.Field, raw []string) string {
	return strings.Join(fieldValues(f, raw), ",")
}

// prepare copies data and replaces the submitted value of disabled and
// readonly fields that declare a value.
func (p *Processor) prepare(data url.Values) url.Values {
	out := make(url.Values, len(data))
	for k, v := range data {
		out[k] = append([]string(nil), v...)
	}
	for _, f := range p.fields.Fields() {
		if !f.Persistable() || !(f.Disabled || f.Readonly) || f.Value.IsEmpty() {
			continue
		}
		delete(out, f.Name+"[]")
		out[f.Name] = append([]string(nil), f.Value...)
	}
	return out
}

// primaryKey returns the submitted primary values. It reports false when no
// primary field is declared or any primary value is missing.
func (p *Processor) primaryKey(data url.Values) ([]column, bool) {
	prim := p.fields.PrimaryFields()
	if len(prim) == 0 {
		return nil, false
	}
	key := make([]column, 0, len(prim))
	for _, f := range prim {
		raw, _ := submitted(data, f.Name)
		v := ""
		if len(raw) > 0 {
			v = strings.TrimSpace(raw[len(raw)-1])
		}
		if v == "" {
			return nil, false
		}
		key = append(key, column{name: f.Name, value: v})
	}
	return key, true
}

func (p *Processor) keyClause(key []column) (string, []any) {
	conds := make([]string, len(key))
	args := make([]any, len(key))
	for i, c := range key {
		conds[i] = p.db.Quote(c.name) + " = ?"
		args[i] = c.value
	}
	return strings.Join(conds, " AND "), args
}

// Validate checks every persistable field of data and records one error
// message per invalid field. It never stops at the first failure.
func (p *Processor) Validate(ctx context.Context, data url.Values) bool {
	return p.validate(ctx, data, false, nil)
}

// validate runs the field checks. partial skips fields absent from data;
// self excludes the record being updated from duplicate checks.
func (p *Processor) validate(ctx context.Context, data url.Values, partial bool, self []column) bool {
	valid := true
	for _, f := range p.fields.Sorted(fields.EditStripAny) {
		if !f.Persistable() {
			continue
		}
		raw, present := submitted(data, f.Name)
		if partial && !present {
			continue
		}
		if msg := p.checkField(ctx, f, fieldValues(f, raw), self); msg != "" {
			p.sink.AddError(msg)
			valid = false
		}
	}
	return valid
}

func (p *Processor) checkField(ctx context.Context, f *model.Field, values []string, self []column) string {
	label := f.DisplayLabel()
	if model.Value(values).IsEmpty() {
		if f.Required {
			return label + " is required"
		}
		return ""
	}

	if f.Unique && !f.LinkedTo.ManyToMany() {
		taken, err := p.exists(ctx, f.Name, strings.Join(values, ","), self)
		if err != nil {
			p.sink.Event(ctx, messages.High, "duplicate check failed", "field", f.Name, "error", err)
			return label + " could not be validated"
		}
		if taken {
			return label + " must be unique, the value is already in use"
		}
	}

	if f.Validate != "" {
		for _, v := range values {
			ok, err := p.validators.Validate(f.Validate, v)
			if err != nil {
				p.sink.Event(ctx, messages.Debug, "invalid validation rule",
					"field", f.Name, "rule", f.Validate, "error", err)
				return label + " could not be validated"
			}
			if !ok {
				return label + " is not valid"
			}
		}
	}
	return ""
}

// exists reports whether value is already stored in column name.
func (p *Processor) exists(ctx context.Context, name, value string, self []column) (bool, error) {
	if p.table == "" || p.db == nil {
		return false, nil
	}
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ?", p.db.Quote(p.table), p.db.Quote(name))
	args := []any{value}
	if len(self) > 0 {
		where, keyArgs := p.keyClause(self)
		query += " AND NOT (" + where + ")"
		args = append(args, keyArgs...)
	}
	var n int
	if err := p.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (p *Processor) ready(ctx context.Context, op string) bool {
	if p.db == nil || p.table == "" {
		p.sink.Event(ctx, messages.High, "form processor has no table", "operation", op)
		return false
	}
	return true
}

// Insert validates data and inserts one record. Many-to-many fields are
// reconciled after the INSERT, in the same transaction, so they can use
// the generated key.
func (p *Processor) Insert(ctx context.Context, data url.Values) Code {
	if !p.ready(ctx, "insert") {
		return CodeSystem
	}
	data = p.prepare(data)
	if !p.validate(ctx, data, false, nil) {
		return CodeValidation
	}

	var cols []string
	var args []any
	var links []*model.Field
	for _, f := range p.fields.Sorted(fields.EditStripAny) {
		if !f.Persistable() {
			continue
		}
		raw, present := submitted(data, f.Name)
		if !present {
			continue
		}
		if f.LinkedTo.ManyToMany() {
			links = append(links, f)
			continue
		}
		// An empty primary value leaves key generation to the database.
		if p.fields.IsPrimary(f.Name) && model.Value(fieldValues(f, raw)).IsEmpty() {
			continue
		}
		cols = append(cols, f.Name)
		args = append(args, columnValue(f, raw))
	}
	if len(cols) == 0 {
		p.sink.Event(ctx, messages.Low, "insert without column data", "table", p.table)
		return CodeIncompleteData
	}

	d := p.db.Dialect
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.Quote(p.table), d.QuoteList(cols), store.Placeholders(len(cols)))

	var id int64
	err := p.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("inserting into %s: %w", p.table, err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("reading insert id: %w", err)
		}

		local := strconv.FormatInt(id, 10)
		if key, ok := p.primaryKey(data); ok && len(key) == 1 {
			local = key[0].value
		}
		for _, f := range links {
			raw, _ := submitted(data, f.Name)
			if _, err := p.ProcessLinkedField(ctx, tx, f, local, raw); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		p.sink.Event(ctx, messages.High, "insert failed", "table", p.table, "error", err)
		return CodeSystem
	}

	p.insertID = id
	p.sink.Event(ctx, messages.Debug, "record inserted", "table", p.table, "id", id)
	return CodeOK
}

// Update validates data and updates the record named by its primary
// values. It returns CodeIncompleteData before touching the database when
// any primary value is missing.
func (p *Processor) Update(ctx context.Context, data url.Values) Code {
	if !p.ready(ctx, "update") {
		return CodeSystem
	}
	return p.update(ctx, p.prepare(data), false)
}

func (p *Processor) update(ctx context.Context, data url.Values, partial bool) Code {
	key, ok := p.primaryKey(data)
	if !ok {
		p.sink.Event(ctx, messages.Low, "update without complete primary key", "table", p.table)
		return CodeIncompleteData
	}
	if !p.validate(ctx, data, partial, key) {
		return CodeValidation
	}

	d := p.db.Dialect
	var sets []string
	var args []any
	var links []*model.Field
	for _, f := range p.fields.Sorted(fields.EditStripAny) {
		if !f.Persistable() || p.fields.IsPrimary(f.Name) {
			continue
		}
		raw, present := submitted(data, f.Name)
		if !present {
			continue
		}
		if f.LinkedTo.ManyToMany() {
			links = append(links, f)
			continue
		}
		sets = append(sets, d.Quote(f.Name)+" = ?")
		args = append(args, columnValue(f, raw))
	}

	where, keyArgs := p.keyClause(key)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s", d.Quote(p.table), strings.Join(sets, ", "), where)
	if d.UpdateLimit {
		query += " LIMIT 1"
	}
	args = append(args, keyArgs...)

	err := p.db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, f := range links {
			raw, _ := submitted(data, f.Name)
			if _, err := p.ProcessLinkedField(ctx, tx, f, key[0].value, raw); err != nil {
				return err
			}
		}
		if len(sets) == 0 {
			return nil
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("updating %s: %w", p.table, err)
		}
		return nil
	})
	if err != nil {
		p.sink.Event(ctx, messages.High, "update failed", "table", p.table, "error", err)
		return CodeSystem
	}
	return CodeOK
}

// Delete removes the record named by the primary values in data together
// with its many-to-many link rows.
func (p *Processor) Delete(ctx context.Context, data url.Values) Code {
	if !p.ready(ctx, "delete") {
		return CodeSystem
	}
	key, ok := p.primaryKey(data)
	if !ok {
		p.sink.Event(ctx, messages.Low, "delete without complete primary key", "table", p.table)
		return CodeIncompleteData
	}

	var links []*model.LinkedTo
	for _, f := range p.fields.Fields() {
		if f.Persistable() && f.LinkedTo.LinkComplete() {
			links = append(links, f.LinkedTo)
		}
	}
	if len(links) > 0 && len(key) > 1 {
		p.sink.Event(ctx, messages.High, "delete failed", "table", p.table, "error", ErrMultiplePrimary)
		return CodeSystem
	}

	d := p.db.Dialect
	where, args := p.keyClause(key)
	query := fmt.Sprintf("DELETE FROM %s WHERE %s", d.Quote(p.table), where)
	if d.UpdateLimit {
		query += " LIMIT 1"
	}

	err := p.db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, l := range links {
			q := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", d.Quote(l.LinkTable), d.Quote(l.LinkLocalField))
			if _, err := tx.ExecContext(ctx, q, key[0].value); err != nil {
				return fmt.Errorf("deleting links from %s: %w", l.LinkTable, err)
			}
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("deleting from %s: %w", p.table, err)
		}
		return nil
	})
	if err != nil {
		p.sink.Event(ctx, messages.High, "delete failed", "table", p.table, "error", err)
		return CodeSystem
	}
	return CodeOK
}

// Process runs the configured operation on data through the callback
// lifecycle and records the outcome as a form message.
func (p *Processor) Process(ctx context.Context, data url.Values) Code {
	ev := &Event{Type: p.typ, Data: data}

	var code Code
	switch p.typ {
	case TypeInsert:
		code = p.runInsert(ctx, ev)
	case TypeUpdate:
		code = p.runUpdate(ctx, ev)
	case TypeEdit:
		ev.Rows, ev.Deleted = ParseRows(data)
		code = p.runEdit(ctx, ev)
	default:
		p.sink.Event(ctx, messages.High, "form processor has no type", "table", p.table)
		code = CodeType
	}
	return p.finish(ctx, ev, code)
}

func (p *Processor) runInsert(ctx context.Context, ev *Event) Code {
	if code := p.dispatch(ctx, BeforeInsert, ev, nil); !code.OK() {
		return code
	}
	ev.Code = p.dispatch(ctx, DoInsert, ev, func() Code { return p.Insert(ctx, ev.Data) })
	p.dispatch(ctx, AfterInsert, ev, nil)
	return ev.Code
}

func (p *Processor) runUpdate(ctx context.Context, ev *Event) Code {
	if code := p.dispatch(ctx, BeforeUpdate, ev, nil); !code.OK() {
		return code
	}
	ev.Code = p.dispatch(ctx, DoUpdate, ev, func() Code { return p.Update(ctx, ev.Data) })
	p.dispatch(ctx, AfterUpdate, ev, nil)
	return ev.Code
}

func (p *Processor) finish(ctx context.Context, ev *Event, code Code) Code {
	ev.Code = code
	if code.OK() {
		p.dispatch(ctx, OnSuccess, ev, nil)
		p.sink.AddSuccess(successMessage(ev.Type))
		return CodeOK
	}

	if p.HasCallback(OnFailure) {
		code = p.dispatch(ctx, OnFailure, ev, nil)
		if code.OK() {
			p.sink.Event(ctx, messages.Low, "form failure vetoed by callback", "code", ev.Code.String())
			return CodeOK
		}
	}
	p.sink.AddError(code.Message())
	return code
}

func successMessage(t Type) string {
	switch t {
	case TypeInsert:
		return "Record added"
	case TypeEdit:
		return "Records updated"
	}
	return "Record updated"
}
