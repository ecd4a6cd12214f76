// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package formtmpl implements the form template language: literal HTML with
// {tag} placeholders, {fieldsLoop} and {rowLoop} blocks, evaluated against a
// field collection and an optional database table.
package formtmpl

import (
	"context"
	"database/sql"
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/fieldrender"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/fields"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/messages"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/model"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/store"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/util"
)

// Display modes
const (
	displayFull   = "full"
	displayField  = "field"
	displayFields = "fields"
	displayLabel  = "label"
	displayLabels = "labels"
	displayHidden = "hidden"
	displayValue  = "value"
)

// Table describes the database table bound to a form.
type Table struct {
	Name  string
	Where string
	Order string
	Limit int
}

// Binding pairs a field collection with an optional table. Messages, when
// set, supplies {formErrors} and receives template diagnostics.
type Binding struct {
	Name     string
	Title    string
	Fields   *fields.Collection
	Table    *Table
	Messages *messages.Sink
}

// Engine renders templates. It is safe for concurrent use; each Render call
// keeps its own pass state.
type Engine struct {
	renderer *fieldrender.Renderer
	db       *store.DB
	logger   *slog.Logger

	mu      sync.RWMutex
	layouts map[string]string
}

// New creates an engine. db may be nil when no template uses {rowLoop}.
func New(renderer *fieldrender.Renderer, db *store.DB, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		renderer: renderer,
		db:       db,
		logger:   logger,
		layouts:  make(map[string]string),
	}
}

// SetFieldTemplate registers a named field layout for {field template=...}.
// The layout may use {label}, {input} and {help}.
func (e *Engine) SetFieldTemplate(name, layout string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.layouts[strings.ToLower(name)] = layout
}

func (e *Engine) fieldTemplate(name string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	layout, ok := e.layouts[strings.ToLower(name)]
	return layout, ok
}

// pass is the state of one Render call.
type pass struct {
	e        *Engine
	ctx      context.Context
	b        *Binding
	rendered map[string]bool

	rowCount   int
	fieldCount int
}

// Render evaluates tmpl against b. Phases run in a fixed order: form errors,
// field loops, row loops, then the remaining tags in document order. Output
// produced by one phase is never parsed again.
func (e *Engine) Render(ctx context.Context, b *Binding, tmpl string) string {
	p := &pass{e: e, ctx: ctx, b: b, rendered: make(map[string]bool)}
	p.assignIDs()

	nodes := parse(tmpl)
	nodes = p.transform(nodes, p.errorsPhase)
	nodes = p.transform(nodes, p.fieldsLoopPhase)
	nodes = p.transform(nodes, p.rowLoopPhase)

	var sb strings.Builder
	p.write(&sb, nodes)
	return sb.String()
}

// assignIDs gives every field an id before rendering so labels and inputs
// agree and the collection's id index stays current.
func (p *pass) assignIDs() {
	for _, f := range p.b.Fields.Fields() {
		if f.FieldID == "" {
			p.b.Fields.SetFieldID(f.Name, util.FieldID(f.Name))
		}
	}
}

func (p *pass) event(sev messages.Severity, msg string, args ...any) {
	args = append([]any{"form", p.b.Name}, args...)
	if p.b.Messages != nil {
		p.b.Messages.Event(p.ctx, sev, msg, args...)
		return
	}
	p.e.logger.Log(p.ctx, sev.Level(), msg, args...)
}

// transform replaces nodes for which fn reports true and descends into the
// bodies of the other blocks.
func (p *pass) transform(nodes []*node, fn func(*node) ([]*node, bool)) []*node {
	out := make([]*node, 0, len(nodes))
	for _, n := range nodes {
		if repl, ok := fn(n); ok {
			out = append(out, repl...)
			continue
		}
		if n.kind == nodeBlock {
			n.body = p.transform(n.body, fn)
		}
		out = append(out, n)
	}
	return out
}

func (p *pass) errorsPhase(n *node) ([]*node, bool) {
	switch {
	case n.kind == nodeTag && !n.closed && n.name == tagFormErrors:
		if p.b.Messages == nil {
			return []*node{output("")}, true
		}
		return []*node{output(p.b.Messages.HTML())}, true
	case n.kind == nodeBlock && n.name == tagIfFormErrors:
		if p.b.Messages == nil || !p.b.Messages.Pending() {
			return nil, true
		}
		return p.transform(n.body, p.errorsPhase), true
	}
	return nil, false
}

func (p *pass) fieldsLoopPhase(n *node) ([]*node, bool) {
	if n.kind != nodeBlock || n.name != tagFieldsLoop {
		return nil, false
	}
	return p.transform(p.fieldsLoop(n), p.fieldsLoopPhase), true
}

// fieldsLoop expands one {fieldsLoop} block: hidden fields first as plain
// output, then one copy of the body per remaining field.
func (p *pass) fieldsLoop(n *node) []*node {
	list, hasList := n.attrs.list("list")
	allowed := make(map[string]bool, len(list))
	for _, name := range list {
		allowed[name] = true
	}
	match := func(f *model.Field) bool {
		return !p.rendered[f.Name] && (!hasList || allowed[f.Name])
	}

	var out []*node
	if n.attrs.bool("showHidden", true) {
		for _, f := range p.b.Fields.Sorted(fields.EditStripAny) {
			if f.IsHidden() && match(f) {
				out = append(out, output(p.e.renderer.Render(p.ctx, f, nil)))
				p.rendered[f.Name] = true
			}
		}
	}

	strip, present := n.attrs.get("editStrip")
	for _, f := range p.b.Fields.Sorted(fields.EditStripOf(strip, present)) {
		if f.IsHidden() || !match(f) {
			continue
		}
		p.rendered[f.Name] = true
		out = append(out, bindField(clone(n.body), f.Name)...)
	}
	return out
}

// bindField names the unnamed {field} tags of a loop body.
func bindField(nodes []*node, name string) []*node {
	for _, n := range nodes {
		switch n.kind {
		case nodeTag:
			if n.name != tagField || n.closed {
				continue
			}
			if _, named := n.attrs.get("name"); !named {
				n.attrs.set("name", name)
				n.bound = true
			}
		case nodeBlock:
			if n.name != tagFieldsLoop {
				bindField(n.body, name)
			}
		}
	}
	return nodes
}

func (p *pass) rowLoopPhase(n *node) ([]*node, bool) {
	if n.kind != nodeBlock || n.name != tagRowLoop {
		return nil, false
	}
	return p.transform(p.rowLoop(n), p.rowLoopPhase), true
}

// rowLoop expands one {rowLoop} block per row of the bound table.
func (p *pass) rowLoop(n *node) []*node {
	t := p.b.Table
	if t == nil || t.Name == "" {
		p.event(messages.High, "rowLoop requires a bound table")
		return nil
	}
	if p.e.db == nil {
		p.event(messages.High, "rowLoop requires a database")
		return nil
	}

	rows, err := p.loadRows(t)
	if err != nil {
		p.event(messages.High, "rowLoop query failed", "table", t.Name, "error", err)
		return nil
	}

	var out []*node
	for _, r := range rows {
		out = append(out, p.bindRow(clone(n.body), r)...)
	}
	return out
}

// row is one record selected by a rowLoop.
type row struct {
	id     string
	values map[string]model.Value
}

func (p *pass) loadRows(t *Table) ([]row, error) {
	var columns []string
	var links []*model.Field
	for _, f := range p.b.Fields.Sorted(fields.EditStripAny) {
		switch {
		case !f.Persistable():
		case f.LinkedTo.ManyToMany():
			if f.LinkedTo.LinkComplete() {
				links = append(links, f)
			}
		default:
			columns = append(columns, f.Name)
		}
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("no persistable columns")
	}

	query := p.e.db.Dialect.Build(store.Select{
		Table:   t.Name,
		Columns: columns,
		Where:   t.Where,
		Order:   t.Order,
		Limit:   t.Limit,
	})
	rs, err := p.e.db.QueryContext(p.ctx, query)
	if err != nil {
		return nil, err
	}

	var out []row
	dest := make([]any, len(columns))
	for i := range dest {
		dest[i] = new(sql.NullString)
	}
	for rs.Next() {
		if err := rs.Scan(dest...); err != nil {
			_ = rs.Close()
			return nil, err
		}
		r := row{values: make(map[string]model.Value, len(columns)+len(links))}
		for i, col := range columns {
			r.values[col] = model.Scalar(dest[i].(*sql.NullString).String)
		}
		out = append(out, r)
	}
	if err := rs.Err(); err != nil {
		_ = rs.Close()
		return nil, err
	}
	_ = rs.Close()

	var key string
	if prim := p.b.Fields.PrimaryFields(); len(prim) == 1 && !prim[0].LinkedTo.ManyToMany() {
		key = prim[0].Name
	}
	for i := range out {
		if key != "" {
			out[i].id = out[i].values[key].String()
		} else {
			out[i].id = strconv.Itoa(i + 1)
		}
	}

	loaded := 0
	if key != "" {
		for _, f := range links {
			for i := range out {
				values, err := p.linkedValues(f.LinkedTo, out[i].id)
				if err != nil {
					return nil, err
				}
				out[i].values[f.Name] = values
			}
			loaded++
		}
	}

	p.rowCount = len(out)
	p.fieldCount = len(columns) + loaded
	return out, nil
}

func (p *pass) linkedValues(l *model.LinkedTo, local string) (model.Value, error) {
	d := p.e.db.Dialect
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		d.Quote(l.LinkForeignField), d.Quote(l.LinkTable), d.Quote(l.LinkLocalField))
	rs, err := p.e.db.QueryContext(p.ctx, query, local)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rs.Close() }()

	values := model.Value{}
	for rs.Next() {
		var v sql.NullString
		if err := rs.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v.String)
	}
	return values, rs.Err()
}

// bindRow attaches a row to the field tags of a body copy. Tags naming a
// column get the row value; display="value" tags become the escaped value.
func (p *pass) bindRow(nodes []*node, r row) []*node {
	out := make([]*node, 0, len(nodes))
	for _, n := range nodes {
		switch {
		case n.kind == nodeTag && !n.closed && n.name == tagRowID:
			out = append(out, output(html.EscapeString(r.id)))
			continue
		case n.kind == nodeTag && !n.closed && n.name == tagField:
			name, _ := n.attrs.get("name")
			if _, known := p.b.Fields.Get(name); !known {
				break
			}
			value, isColumn := r.values[name]
			display, _ := n.attrs.get("display")
			if isColumn && strings.EqualFold(display, displayValue) {
				out = append(out, output(html.EscapeString(value.String())))
				continue
			}
			if n.overrides == nil {
				n.overrides = fieldrender.Overrides{}
			}
			n.overrides[fieldrender.KeyRowID] = r.id
			if isColumn {
				n.overrides[model.OptValue] = value
			}
			n.bound = true
		case n.kind == nodeBlock:
			n.body = p.bindRow(n.body, r)
		}
		out = append(out, n)
	}
	return out
}

// write runs the general phase, resolving the remaining tags in order.
func (p *pass) write(sb *strings.Builder, nodes []*node) {
	for _, n := range nodes {
		switch n.kind {
		case nodeText, nodeOutput:
			sb.WriteString(n.raw)
		case nodeBlock:
			sb.WriteString(n.raw)
			p.write(sb, n.body)
			sb.WriteString(n.end)
		case nodeTag:
			if s, ok := p.resolve(n); ok {
				sb.WriteString(s)
			} else {
				sb.WriteString(n.raw)
			}
		}
	}
}

// resolve returns the output of a known tag. Unknown tags report false and
// are written back verbatim.
func (p *pass) resolve(n *node) (string, bool) {
	if n.closed {
		switch n.name {
		case tagForm:
			return "</form>", true
		case tagFieldset:
			return "</fieldset>", true
		}
		return "", false
	}

	switch n.name {
	case tagFormTitle:
		title := p.b.Title
		if title == "" {
			title = p.b.Name
		}
		return html.EscapeString(title), true
	case tagForm:
		return p.formTag(n), true
	case tagFields:
		return p.fieldsTag(n), true
	case tagField:
		return p.fieldTag(n), true
	case tagFieldset:
		if legend, ok := n.attrs.get("legend"); ok && legend != "" {
			return "<fieldset><legend>" + html.EscapeString(legend) + "</legend>", true
		}
		return "<fieldset>", true
	case tagRowCount:
		return strconv.Itoa(p.rowCount), true
	case tagFieldCount:
		return strconv.Itoa(p.fieldCount), true
	}
	return "", false
}

func (p *pass) formTag(n *node) string {
	var sb strings.Builder
	sb.WriteString(`<form method="post"`)
	sb.WriteString(fieldrender.Attributes(model.Attrs(n.attrs.without("hidden", "method"))))
	sb.WriteString(">")
	fmt.Fprintf(&sb, `<input type="hidden" name="%s" value="%s">`, model.FormIDField, html.EscapeString(p.b.Name))

	if n.attrs.bool("hidden", true) {
		for _, f := range p.b.Fields.Sorted(fields.EditStripAny) {
			if f.IsHidden() && !p.rendered[f.Name] {
				sb.WriteString(p.e.renderer.RenderField(p.ctx, f, nil))
				p.rendered[f.Name] = true
			}
		}
	}
	return sb.String()
}

func (p *pass) fieldsTag(n *node) string {
	display := displayFull
	if d, ok := n.attrs.get("display"); ok && d != "" {
		display = strings.ToLower(d)
	}
	switch display {
	case displayFull, displayFields, displayLabels, displayHidden:
	default:
		p.event(messages.Debug, "invalid fields display mode", "display", display)
		return ""
	}

	var sb strings.Builder
	for _, f := range p.b.Fields.Sorted(fields.EditStripAny) {
		if p.rendered[f.Name] {
			continue
		}
		switch display {
		case displayFull:
			sb.WriteString(p.e.renderer.Render(p.ctx, f, nil))
		case displayFields:
			sb.WriteString(p.e.renderer.RenderField(p.ctx, f, nil))
		case displayLabels:
			sb.WriteString(p.e.renderer.RenderLabel(p.ctx, f, nil))
			continue
		case displayHidden:
			if !f.IsHidden() {
				continue
			}
			sb.WriteString(p.e.renderer.RenderField(p.ctx, f, nil))
		}
		p.rendered[f.Name] = true
	}
	return sb.String()
}

func (p *pass) fieldTag(n *node) string {
	name, _ := n.attrs.get("name")
	if name == "" {
		p.event(messages.Debug, "field tag without name")
		return ""
	}
	f, ok := p.b.Fields.Get(name)
	if !ok {
		p.event(messages.Debug, "field tag names an unknown field", "field", name)
		return ""
	}

	display := displayFull
	if d, ok := n.attrs.get("display"); ok && d != "" {
		display = strings.ToLower(d)
	}
	if p.rendered[name] && !n.bound && display != displayLabel {
		p.event(messages.Debug, "field already rendered", "field", name)
		return ""
	}

	ov := fieldrender.Overrides{}
	for _, a := range n.attrs.without("name", "display", "template") {
		ov[a.Key] = a.Value
	}
	for k, v := range n.overrides {
		ov[k] = v
	}

	r := p.e.renderer
	switch display {
	case displayFull:
		p.rendered[name] = true
		if tmplName, ok := n.attrs.get("template"); ok && tmplName != "" {
			if layout, ok := p.e.fieldTemplate(tmplName); ok {
				return strings.NewReplacer(
					"{label}", r.RenderLabel(p.ctx, f, ov),
					"{input}", r.RenderField(p.ctx, f, ov),
					"{help}", r.RenderHelp(p.ctx, f, ov),
				).Replace(layout)
			}
			p.event(messages.Debug, "unknown field template", "field", name, "template", tmplName)
		}
		return r.Render(p.ctx, f, ov)
	case displayField:
		p.rendered[name] = true
		return r.RenderField(p.ctx, f, ov)
	case displayLabel:
		return r.RenderLabel(p.ctx, f, ov)
	case displayValue:
		p.rendered[name] = true
		if v, ok := ov[model.OptValue]; ok {
			return html.EscapeString(model.ValueOf(v).String())
		}
		return html.EscapeString(f.Value.String())
	}
	p.event(messages.Debug, "invalid field display mode", "field", name, "display", display)
	return ""
}

// EditTable renders a batch edit form for b: one table row per record with
// the edit-strip fields (all visible data fields when none is flagged) and
// a delete checkbox per row.
func (e *Engine) EditTable(ctx context.Context, b *Binding) string {
	var cols []*model.Field
	for _, f := range b.Fields.Sorted(fields.EditStripOnly) {
		if f.Persistable() {
			cols = append(cols, f)
		}
	}
	if len(cols) == 0 {
		for _, f := range b.Fields.Sorted(fields.EditStripAny) {
			if f.Persistable() && !f.IsHidden() {
				cols = append(cols, f)
			}
		}
	}

	var sb strings.Builder
	sb.WriteString(`{formErrors}{form class="editTable"}<table class="editTable"><thead><tr>`)
	for _, f := range cols {
		sb.WriteString("<th>")
		sb.WriteString(html.EscapeString(f.DisplayLabel()))
		sb.WriteString("</th>")
	}
	sb.WriteString("<th>Delete</th></tr></thead><tbody>{rowLoop}<tr>")
	for _, f := range cols {
		fmt.Fprintf(&sb, `<td>{field name="%s" display="field"}</td>`, f.Name)
	}
	fmt.Fprintf(&sb, `<td><input type="checkbox" name="%s[]" value="{rowID}"></td></tr>{/rowLoop}</tbody></table>`, model.DeletedField)
	sb.WriteString(`<input type="submit" name="__submit" value="Update">{/form}`)

	return e.Render(ctx, b, sb.String())
}
