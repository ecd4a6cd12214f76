// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package formtmpl

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/fieldrender"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/fields"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/messages"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/model"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/store"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/testutil"
)

func textField(name string) *model.Field {
	return &model.Field{Name: name, FieldID: name, Type: model.FieldTypeText}
}

func hiddenField(name, value string) *model.Field {
	return &model.Field{Name: name, FieldID: name, Type: model.FieldTypeHidden, Value: model.Scalar(value)}
}

func newBinding(t *testing.T, list ...*model.Field) *Binding {
	t.Helper()
	c := fields.New()
	for _, f := range list {
		require.True(t, c.Add(f), "add %s", f.Name)
	}
	return &Binding{
		Name:     "contact",
		Title:    "Contact <Form>",
		Fields:   c,
		Messages: messages.New(testutil.TestLogger()),
	}
}

func newEngine(db *store.DB) (*Engine, *fieldrender.Renderer) {
	r := fieldrender.New(nil, nil, testutil.TestLogger())
	return New(r, db, testutil.TestLogger()), r
}

func TestRender_FieldTag(t *testing.T) {
	e, _ := newEngine(nil)
	foo := textField("foo")
	foo.Value = model.Scalar("bar")
	b := newBinding(t, foo)

	got := e.Render(context.Background(), b, `{field name="foo" display="field"}`)

	assert.Contains(t, got, `type="text"`)
	assert.Contains(t, got, `value="bar"`)
	assert.Contains(t, got, `name="foo"`)
}

func TestRender_FieldsLoop(t *testing.T) {
	e, r := newEngine(nil)
	foo, bar := textField("foo"), textField("bar")
	b := newBinding(t, foo, bar)
	ctx := context.Background()

	got := e.Render(ctx, b, `{fieldsLoop}<li>{field}</li>{/fieldsLoop}`)

	want := "<li>" + r.Render(ctx, foo, nil) + "</li><li>" + r.Render(ctx, bar, nil) + "</li>"
	assert.Equal(t, want, got)
}

func TestRender_FieldsLoopOptions(t *testing.T) {
	e, _ := newEngine(nil)
	a, bb, c := textField("a"), textField("b"), textField("c")
	a.Order = model.OrderOf(2)
	bb.Order = model.OrderOf(1)
	c.ShowInEditStrip = true
	h := hiddenField("h", "1")
	b := newBinding(t, a, bb, c, h)
	ctx := context.Background()

	got := e.Render(ctx, b, `{fieldsLoop list="a, b, h"}[{field display="label"}]{/fieldsLoop}`)
	assert.Equal(t, `<input type="hidden" name="h" value="1" id="h">[<label for="b">b</label>][<label for="a">a</label>]`, got)

	b = newBinding(t, textField("a"), textField("c2"), hiddenField("h", "1"))
	c2, _ := b.Fields.Get("c2")
	c2.ShowInEditStrip = true
	got = e.Render(ctx, b, `{fieldsLoop editStrip="true" showHidden="false"}[{field display="label"}]{/fieldsLoop}`)
	assert.Equal(t, `[<label for="c2">c2</label>]`, got)
}

func TestRender_NoDuplicateEmission(t *testing.T) {
	e, _ := newEngine(nil)
	ctx := context.Background()

	tests := []struct {
		name string
		tmpl string
	}{
		{"field then fields", `{field name="foo"}{fields}`},
		{"fields then field", `{fields}{field name="foo"}`},
		{"loop then fields", `{fieldsLoop}{field}{/fieldsLoop}{fields display="fields"}{field name="bar"}`},
		{"two loops", `{fieldsLoop}{field}{/fieldsLoop}{fieldsLoop}{field}{/fieldsLoop}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBinding(t, textField("foo"), textField("bar"))
			got := e.Render(ctx, b, tt.tmpl)
			assert.Equal(t, 1, strings.Count(got, `name="foo"`), got)
			assert.Equal(t, 1, strings.Count(got, `name="bar"`), got)
		})
	}
}

func TestRender_FieldErrors(t *testing.T) {
	e, _ := newEngine(nil)
	b := newBinding(t, textField("foo"))
	ctx := context.Background()

	assert.Equal(t, "[]", e.Render(ctx, b, `[{field}]`))
	assert.Equal(t, "[]", e.Render(ctx, b, `[{field name="nope"}]`))
	assert.Equal(t, "[]", e.Render(ctx, b, `[{field name="foo" display="bogus"}]`))
	assert.Equal(t, "[]", e.Render(ctx, b, `[{fields display="bogus"}]`))
}

func TestRender_PassThroughAndTitle(t *testing.T) {
	e, _ := newEngine(nil)
	b := newBinding(t)
	in := `<h1>{FormTitle}</h1>{unknown x="1"}{/unknown}{ literal }<style>p{margin:0}</style>`

	got := e.Render(context.Background(), b, in)

	assert.Equal(t, `<h1>Contact &lt;Form&gt;</h1>{unknown x="1"}{/unknown}{ literal }<style>p{margin:0}</style>`, got)
}

func TestRender_FormTag(t *testing.T) {
	e, _ := newEngine(nil)
	ctx := context.Background()

	b := newBinding(t, hiddenField("h", "1"), textField("foo"))
	got := e.Render(ctx, b, `{form action="/save" method="get"}{/form}`)
	assert.Equal(t, `<form method="post" action="/save">`+
		`<input type="hidden" name="__formID" value="contact">`+
		`<input type="hidden" name="h" value="1" id="h"></form>`, got)

	b = newBinding(t, hiddenField("h", "1"))
	got = e.Render(ctx, b, `{form hidden="false"}{/form}{fields display="hidden"}`)
	assert.Equal(t, `<form method="post"><input type="hidden" name="__formID" value="contact"></form>`+
		`<input type="hidden" name="h" value="1" id="h">`, got)
}

func TestRender_Fieldset(t *testing.T) {
	e, _ := newEngine(nil)
	b := newBinding(t)
	got := e.Render(context.Background(), b, `{fieldset legend="A & B"}x{/fieldset}{fieldset}{/fieldset}`)
	assert.Equal(t, `<fieldset><legend>A &amp; B</legend>x</fieldset><fieldset></fieldset>`, got)
}

func TestRender_FormErrors(t *testing.T) {
	e, _ := newEngine(nil)
	ctx := context.Background()
	tmpl := `{ifFormErrors}<div>{formErrors}</div>{/ifFormErrors}|{formErrors}`

	b := newBinding(t)
	assert.Equal(t, "|", e.Render(ctx, b, tmpl))

	b.Messages.AddError("Bad <input>")
	msg := `<ul class="formMessages"><li class="formMessage error">Bad &lt;input&gt;</li></ul>`
	assert.Equal(t, "<div>"+msg+"</div>|"+msg, e.Render(ctx, b, tmpl))
}

func TestRender_FieldTemplateLayout(t *testing.T) {
	e, r := newEngine(nil)
	foo := textField("foo")
	b := newBinding(t, foo)
	ctx := context.Background()
	e.SetFieldTemplate("Row", `<div class="row">{label}<span>{input}</span>{help}</div>`)

	got := e.Render(ctx, b, `{field name="foo" template="row"}`)
	want := `<div class="row">` + r.RenderLabel(ctx, foo, nil) + "<span>" + r.RenderField(ctx, foo, nil) + "</span></div>"
	assert.Equal(t, want, got)

	b = newBinding(t, textField("foo"))
	got = e.Render(ctx, b, `{field name="foo" template="missing"}`)
	assert.Contains(t, got, `<label for="foo">`)
}

func TestRender_AssignsFieldIDs(t *testing.T) {
	e, _ := newEngine(nil)
	f := &model.Field{Name: "email", Type: model.FieldTypeText}
	b := newBinding(t, f)

	got := e.Render(context.Background(), b, `{field name="email"}`)

	require.NotEmpty(t, f.FieldID)
	byID, ok := b.Fields.ByFieldID(f.FieldID)
	require.True(t, ok)
	assert.Same(t, f, byID)
	assert.Contains(t, got, `<label for="`+f.FieldID+`">`)
	assert.Contains(t, got, `id="`+f.FieldID+`"`)
}

func seedContacts(t *testing.T, db *store.DB) {
	t.Helper()
	stmts := []string{
		`INSERT INTO contacts (id, name, email) VALUES (1, 'Ann', 'ann@example.com')`,
		`INSERT INTO contacts (id, name, email) VALUES (2, 'Bob <b>', 'bob@example.com')`,
		`INSERT INTO contact_tags (contact_id, tag_id) VALUES (1, 2), (1, 3)`,
	}
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err)
	}
}

func contactBinding(t *testing.T) *Binding {
	id := textField("id")
	id.Primary = true
	tags := &model.Field{
		Name:     "tags",
		FieldID:  "tags",
		Type:     model.FieldTypeMultiselect,
		Options:  model.Options{{Value: "1", Label: "customer"}, {Value: "2", Label: "supplier"}, {Value: "3", Label: "press"}},
		LinkedTo: &model.LinkedTo{LinkTable: "contact_tags", LinkLocalField: "contact_id", LinkForeignField: "tag_id"},
	}
	b := newBinding(t, id, textField("name"), textField("email"), tags)
	b.Table = &Table{Name: "contacts", Order: "id"}
	return b
}

func TestRender_RowLoop(t *testing.T) {
	db := testutil.TestDB(t)
	seedContacts(t, db)
	e, _ := newEngine(db)
	b := contactBinding(t)

	got := e.Render(context.Background(), b,
		`{rowLoop}<tr>{field name="name" display="value"}|{rowID}|{field name="email" display="field"}</tr>{/rowLoop}{rowCount}/{fieldCount}`)

	assert.Contains(t, got, `<tr>Ann|1|<input type="text" name="email[1]" value="ann@example.com" id="email_1"></tr>`)
	assert.Contains(t, got, `<tr>Bob &lt;b&gt;|2|<input type="text" name="email[2]" value="bob@example.com" id="email_2"></tr>`)
	assert.True(t, strings.HasSuffix(got, "2/4"), got)
}

func TestRender_RowLoopLinkedValues(t *testing.T) {
	db := testutil.TestDB(t)
	seedContacts(t, db)
	e, _ := newEngine(db)
	b := contactBinding(t)

	got := e.Render(context.Background(), b, `{rowLoop}{field name="tags" display="field"}<hr>{/rowLoop}`)

	rows := strings.Split(strings.TrimSuffix(got, "<hr>"), "<hr>")
	require.Len(t, rows, 2)
	assert.Contains(t, rows[0], `name="tags[1][]"`)
	assert.Contains(t, rows[0], `<option value="2" selected>supplier</option>`)
	assert.Contains(t, rows[0], `<option value="3" selected>press</option>`)
	assert.NotContains(t, rows[1], "selected")
}

func TestRender_RowLoopWithFieldsLoop(t *testing.T) {
	db := testutil.TestDB(t)
	seedContacts(t, db)
	e, _ := newEngine(db)
	b := contactBinding(t)
	for _, name := range []string{"name", "email"} {
		f, _ := b.Fields.Get(name)
		f.ShowInEditStrip = true
	}

	got := e.Render(context.Background(), b,
		`{rowLoop}<tr>{fieldsLoop editStrip="true"}<td>{field display="field"}</td>{/fieldsLoop}</tr>{/rowLoop}`)

	assert.Equal(t, 2, strings.Count(got, "<tr>"))
	assert.Contains(t, got, `name="name[2]" value="Bob &lt;b&gt;"`)
	assert.Contains(t, got, `name="email[1]" value="ann@example.com"`)
}

func TestRender_RowLoopWithoutTable(t *testing.T) {
	e, _ := newEngine(nil)
	b := newBinding(t, textField("foo"))
	assert.Equal(t, "[]0", e.Render(context.Background(), b, `[{rowLoop}x{/rowLoop}]{rowCount}`))
}

func TestEditTable(t *testing.T) {
	db := testutil.TestDB(t)
	seedContacts(t, db)
	e, _ := newEngine(db)
	b := contactBinding(t)
	name, _ := b.Fields.Get("name")
	name.Label = "Name"
	name.ShowInEditStrip = true

	got := e.EditTable(context.Background(), b)

	assert.Contains(t, got, `<input type="hidden" name="__formID" value="contact">`)
	assert.Contains(t, got, `<th>Name</th><th>Delete</th>`)
	assert.Contains(t, got, `name="name[1]" value="Ann"`)
	assert.Contains(t, got, `<input type="checkbox" name="__deleted[]" value="2">`)
	assert.Equal(t, 3, strings.Count(got, "<tr>"))
}
