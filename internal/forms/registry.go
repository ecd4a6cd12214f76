// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package forms holds the caller-owned registry of named forms. It renders
// a form by name and routes posted submissions to the form they came from.
package forms

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/fields"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/formtmpl"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/lookup"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/messages"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/model"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/processor"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/store"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/validate"
)

// Registry errors
var (
	ErrDuplicateForm  = errors.New("form already registered")
	ErrUnknownForm    = errors.New("unknown form")
	ErrRecordNotFound = errors.New("record not found")
)

// DefaultTemplate lays out insert and update forms without a template.
const DefaultTemplate = `{formErrors}{form}{fields}` +
	`<input type="submit" name="` + model.SystemPrefix + `submit" value="Save">{/form}`

// Options configures a Registry.
type Options struct {
	// Lookup is invalidated after every successful write.
	Lookup     *lookup.Source
	Validators *validate.Registry
	// Templates loads TemplateFile templates.
	Templates *formtmpl.Loader
	Logger    *slog.Logger
}

// Registry maps form names to definitions. It is safe for concurrent use.
type Registry struct {
	engine     *formtmpl.Engine
	db         *store.DB
	lookup     *lookup.Source
	validators *validate.Registry
	templates  *formtmpl.Loader
	logger     *slog.Logger

	mu    sync.RWMutex
	forms map[string]*Definition
}

// NewRegistry creates an empty registry.
func NewRegistry(engine *formtmpl.Engine, db *store.DB, opts Options) *Registry {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Validators == nil {
		opts.Validators = validate.NewRegistry()
	}
	return &Registry{
		engine:     engine,
		db:         db,
		lookup:     opts.Lookup,
		validators: opts.Validators,
		templates:  opts.Templates,
		logger:     opts.Logger,
		forms:      make(map[string]*Definition),
	}
}

// Register adds a validated definition.
func (r *Registry) Register(d *Definition) error {
	if err := d.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.forms[d.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateForm, d.Name)
	}
	r.forms[d.Name] = d
	r.logger.Debug("form registered", "form", d.Name, "type", string(d.Type), "fields", len(d.Fields))
	return nil
}

// Get returns the named definition.
func (r *Registry) Get(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.forms[name]
	return d, ok
}

// Names returns the registered form names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.forms))
	for name := range r.forms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RenderRequest carries the per-request inputs of Render.
type RenderRequest struct {
	// Messages supplies {formErrors}. Nil renders without messages.
	Messages *messages.Sink
	// RecordID loads a record into the field values of an update form.
	RecordID string
	// Values redisplays submitted values, e.g. after a failed submission.
	Values url.Values
}

// Render renders the named form.
func (r *Registry) Render(ctx context.Context, name string, req RenderRequest) (string, error) {
	d, ok := r.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownForm, name)
	}
	coll, err := d.Collection()
	if err != nil {
		return "", err
	}
	if req.Messages == nil {
		req.Messages = messages.New(r.logger)
	}

	if req.RecordID != "" {
		if err := r.loadRecord(ctx, d, coll, req.RecordID); err != nil {
			return "", err
		}
	}
	if req.Values != nil && d.Type != processor.TypeEdit {
		applyValues(coll, req.Values)
	}

	b := &formtmpl.Binding{
		Name:     d.Name,
		Title:    d.Title,
		Fields:   coll,
		Table:    d.Table,
		Messages: req.Messages,
	}

	switch {
	case d.Template != "":
		return r.engine.Render(ctx, b, d.Template), nil
	case d.TemplateFile != "":
		if r.templates == nil {
			return "", fmt.Errorf("form %q: no template loader configured", d.Name)
		}
		tmpl, err := r.templates.Load(d.TemplateFile)
		if err != nil {
			return "", fmt.Errorf("form %q: %w", d.Name, err)
		}
		return r.engine.Render(ctx, b, tmpl), nil
	case d.Type == processor.TypeEdit:
		return r.engine.EditTable(ctx, b), nil
	}
	return r.engine.Render(ctx, b, DefaultTemplate), nil
}

// applyValues copies submitted values onto the fields. Password values are
// never redisplayed, and locked fields keep a declared value.
func applyValues(coll *fields.Collection, values url.Values) {
	for _, f := range coll.Fields() {
		if !f.Persistable() || f.Type == model.FieldTypePassword {
			continue
		}
		if (f.Disabled || f.Readonly) && !f.Value.IsEmpty() {
			continue
		}
		v, ok := values[f.Name]
		if !ok {
			v, ok = values[f.Name+"[]"]
		}
		if !ok {
			continue
		}
		if f.MultiValue() {
			f.Value = model.List(v...)
		} else if len(v) > 0 {
			f.Value = model.Scalar(v[len(v)-1])
		}
	}
}

// loadRecord fills field values from the record whose single primary
// value is id.
func (r *Registry) loadRecord(ctx context.Context, d *Definition, coll *fields.Collection, id string) error {
	if r.db == nil || d.Table == nil || d.Table.Name == "" {
		return fmt.Errorf("form %q: loading a record requires a table", d.Name)
	}
	prim := coll.PrimaryFields()
	switch {
	case len(prim) == 0:
		return fmt.Errorf("form %q: %w", d.Name, processor.ErrNoPrimaryField)
	case len(prim) > 1:
		return fmt.Errorf("form %q: %w", d.Name, processor.ErrMultiplePrimary)
	}

	var cols []*model.Field
	var links []*model.Field
	for _, f := range coll.Fields() {
		switch {
		case !f.Persistable() || f.Type == model.FieldTypePassword:
		case f.LinkedTo.ManyToMany():
			if f.LinkedTo.LinkComplete() {
				links = append(links, f)
			}
		default:
			cols = append(cols, f)
		}
	}

	dialect := r.db.Dialect
	if len(cols) == 0 {
		return fmt.Errorf("form %q: no columns to load", d.Name)
	}
	names := make([]string, len(cols))
	for i, f := range cols {
		names[i] = f.Name
	}
	query := dialect.Build(store.Select{
		Table:   d.Table.Name,
		Columns: names,
		Where:   dialect.Quote(prim[0].Name) + " = ?",
		Limit:   1,
	})

	dest := make([]sql.NullString, len(cols))
	ptrs := make([]any, len(cols))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	if err := r.db.QueryRowContext(ctx, query, id).Scan(ptrs...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("form %q record %q: %w", d.Name, id, ErrRecordNotFound)
		}
		return fmt.Errorf("loading form %q record %q: %w", d.Name, id, err)
	}
	for i, f := range cols {
		f.Value = model.Scalar(dest[i].String)
	}

	for _, f := range links {
		l := f.LinkedTo
		q := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
			dialect.Quote(l.LinkForeignField), dialect.Quote(l.LinkTable), dialect.Quote(l.LinkLocalField))
		values, err := queryStrings(ctx, r.db, q, id)
		if err != nil {
			return fmt.Errorf("loading form %q links %q: %w", d.Name, f.Name, err)
		}
		f.Value = model.List(values...)
	}
	return nil
}

func queryStrings(ctx context.Context, db *store.DB, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var v sql.NullString
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v.String)
	}
	return out, rows.Err()
}

// Submission is the outcome of ProcessPost.
type Submission struct {
	// Form is the submitted form name, empty when it could not be resolved.
	Form     string
	Code     processor.Code
	InsertID int64
}

// ProcessPost routes posted values to the form named by their __formID
// field and processes them. Messages are recorded on sink.
func (r *Registry) ProcessPost(ctx context.Context, values url.Values, sink *messages.Sink) Submission {
	if sink == nil {
		sink = messages.New(r.logger)
	}
	fail := func(form string, code processor.Code) Submission {
		sink.AddError(code.Message())
		return Submission{Form: form, Code: code}
	}

	if len(values) == 0 {
		return fail("", processor.CodeNoPost)
	}
	name := strings.TrimSpace(values.Get(model.FormIDField))
	if name == "" {
		sink.Event(ctx, messages.Low, "submission without form id")
		return fail("", processor.CodeNoID)
	}
	d, ok := r.Get(name)
	if !ok {
		sink.Event(ctx, messages.Low, "submission for unknown form", "form", name)
		return fail("", processor.CodeInvalidID)
	}

	coll, err := d.Collection()
	if err != nil {
		sink.Event(ctx, messages.High, "building form fields", "form", name, "error", err)
		return fail(name, processor.CodeSystem)
	}
	table := ""
	if d.Table != nil {
		table = d.Table.Name
	}
	p := processor.New(r.db, table, coll, processor.Options{
		Validators: r.validators,
		Messages:   sink,
	})
	if d.Type != "" {
		if err := p.SetType(d.Type); err != nil {
			sink.Event(ctx, messages.High, "invalid form type", "form", name, "error", err)
		}
	}
	for t, cb := range d.Callbacks {
		p.On(t, cb)
	}

	code := p.Process(ctx, values)
	if code.OK() && r.lookup != nil {
		r.lookup.Invalidate(ctx)
	}
	r.logger.Info("form processed", "form", name, "code", code.String())
	return Submission{Form: name, Code: code, InsertID: p.InsertID()}
}
