// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package fieldrender turns field declarations into label, input and help
// HTML. Rendering never fails: configuration problems are logged and the
// affected piece renders as an empty string.
package fieldrender

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"sort"
	"strings"

	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/help"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/model"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/util"
)

// Overrides holds render-time options. Keys naming field options take
// priority over the declaration; other keys become HTML attributes.
type Overrides map[string]any

// Override keys that are not field options.
const (
	// KeyRowID renders the field row keyed: name[rowID] with a suffixed id.
	KeyRowID = "rowID"
	// KeyData holds a map expanded into data-* attributes.
	KeyData = "data"
)

// Internal render types
const (
	kindInput       = "input"
	kindSelect      = "select"
	kindMultiselect = "multiselect"
	kindRadio       = "radio"
	kindCheckbox    = "checkbox"
	kindBoolean     = "boolean"
	kindTextarea    = "textarea"
	kindWysiwyg     = "wysiwyg"
	kindPlaintext   = "plaintext"
	kindPassword    = "password"
	kindFile        = "file"
)

var kinds = map[string]string{
	"select":      kindSelect,
	"dropdown":    kindSelect,
	"multiselect": kindMultiselect,
	"radio":       kindRadio,
	"checkbox":    kindCheckbox,
	"bool":        kindBoolean,
	"boolean":     kindBoolean,
	"textarea":    kindTextarea,
	"wysiwyg":     kindWysiwyg,
	"plaintext":   kindPlaintext,
	"password":    kindPassword,
	"file":        kindFile,
}

// Kind returns the render strategy for a declared type. Unmapped types use
// the base <input> strategy.
func Kind(fieldType string) string {
	if k, ok := kinds[model.NormalizeType(fieldType)]; ok {
		return k
	}
	return kindInput
}

// inputType returns the type attribute used by the base strategy.
func inputType(fieldType string) string {
	switch t := model.NormalizeType(fieldType); t {
	case "string":
		return model.FieldTypeText
	default:
		return t
	}
}

// OptionSource resolves linked-table options.
type OptionSource interface {
	Options(ctx context.Context, l *model.LinkedTo) (model.Options, error)
}

// Renderer renders fields. It holds no per-form state and is safe for
// concurrent use, apart from the lazy field ID assignment documented on
// EnsureID.
type Renderer struct {
	options OptionSource
	help    *help.Renderer
	logger  *slog.Logger
}

// New creates a renderer. options may be nil when no field is linked; a nil
// help renderer gets a default one.
func New(options OptionSource, helps *help.Renderer, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	if helps == nil {
		helps = help.New(help.Options{}, logger)
	}
	return &Renderer{options: options, help: helps, logger: logger}
}

// EnsureID assigns a generated HTML id to f when it has none and returns
// the id. The id is stored on the declaration so labels and inputs rendered
// later agree. Fields held in a fields.Collection should get their ids
// through Collection.SetFieldID before rendering, as the template engine
// does; Collection.ByFieldID also finds ids assigned here.
func EnsureID(f *model.Field) string {
	if f.FieldID == "" {
		f.FieldID = util.FieldID(f.Name)
	}
	return f.FieldID
}

// Render returns label, input and help markup for f. Hidden fields render
// the input only.
func (r *Renderer) Render(ctx context.Context, f *model.Field, ov Overrides) string {
	field := r.RenderField(ctx, f, ov)
	if Kind(f.Type) == kindInput && inputType(f.Type) == model.FieldTypeHidden {
		return field
	}
	return r.RenderLabel(ctx, f, ov) + field + r.RenderHelp(ctx, f, ov)
}

// RenderLabel returns the <label> for f, or "" for hidden and button types.
func (r *Renderer) RenderLabel(_ context.Context, f *model.Field, ov Overrides) string {
	res := r.resolve(f, ov)
	if !res.labelled() {
		return ""
	}
	t := newTag("label")
	t.attr("for", res.htmlID())
	if !res.DisableStyling {
		t.attr("class", res.LabelClass)
		t.attr("style", res.LabelStyle)
	}
	t.attrs(res.LabelMetadata)
	return t.open() + html.EscapeString(res.DisplayLabel()) + "</label>"
}

// RenderHelp returns the help markup for f, or "".
func (r *Renderer) RenderHelp(ctx context.Context, f *model.Field, ov Overrides) string {
	res := r.resolve(f, ov)
	if res.Help == nil {
		return ""
	}
	return r.help.Render(ctx, res.htmlID(), res.Help)
}

// RenderField returns the input markup for f.
func (r *Renderer) RenderField(ctx context.Context, f *model.Field, ov Overrides) string {
	res := r.resolve(f, ov)

	var out string
	switch res.kind {
	case kindSelect:
		out = r.renderSelect(ctx, res, res.multi)
	case kindMultiselect:
		out = r.renderSelect(ctx, res, true)
	case kindRadio:
		out = r.renderGroup(ctx, res, "radio")
	case kindCheckbox:
		out = r.renderGroup(ctx, res, "checkbox")
	case kindBoolean:
		out = r.renderBoolean(res)
	case kindTextarea:
		out = r.renderTextarea(res, html.EscapeString(res.Value.String()), "")
	case kindWysiwyg:
		clean := r.help.Sanitize(res.Value.String())
		out = r.renderTextarea(res, html.EscapeString(clean), "wysiwyg")
	case kindPlaintext:
		t := newTag("span")
		r.common(t, res)
		return t.open() + html.EscapeString(res.Value.String()) + "</span>"
	case kindPassword:
		t := newTag("input")
		t.attr("type", "password")
		t.attr("name", res.inputName())
		r.common(t, res)
		return t.open()
	case kindFile:
		t := newTag("input")
		t.attr("type", "file")
		t.attr("name", res.inputName())
		r.common(t, res)
		return t.open()
	default:
		out = r.renderInput(res)
	}
	if out == "" {
		return ""
	}
	return out + res.carryDisabled()
}

func (r *Renderer) renderInput(res *resolved) string {
	t := newTag("input")
	typ := inputType(res.Type)
	t.attr("type", typ)
	t.attr("name", res.inputName())
	t.always("value", res.Value.String())
	if typ != model.FieldTypeHidden {
		t.attr("placeholder", res.Placeholder)
	}
	r.common(t, res)
	return t.open()
}

func (r *Renderer) renderTextarea(res *resolved, body, class string) string {
	t := newTag("textarea")
	t.attr("name", res.inputName())
	t.attr("placeholder", res.Placeholder)
	if class != "" {
		t.attr("class", strings.TrimSpace(class+" "+res.styleClass()))
	}
	r.common(t, res)
	return t.open() + body + "</textarea>"
}

func (r *Renderer) renderSelect(ctx context.Context, res *resolved, multiple bool) string {
	opts, ok := r.choices(ctx, res)
	if !ok {
		return ""
	}
	res.multi = multiple
	t := newTag("select")
	t.attr("name", res.inputName())
	t.flag("multiple", multiple)
	r.common(t, res)

	var sb strings.Builder
	sb.WriteString(t.open())
	for _, opt := range opts {
		writeOption(&sb, opt, res.selected(opt.Value))
	}
	sb.WriteString("</select>")
	return sb.String()
}

// renderGroup renders radio buttons or a checkbox group, one input per
// option, inside a wrapper carrying the field id.
func (r *Renderer) renderGroup(ctx context.Context, res *resolved, control string) string {
	opts, ok := r.choices(ctx, res)
	if !ok {
		return ""
	}
	res.multi = control == "checkbox"
	return r.group(res, control, opts)
}

func (r *Renderer) group(res *resolved, control string, opts model.Options) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<div class="%sGroup" id="%s">`, control, html.EscapeString(res.htmlID()))
	for i, opt := range opts {
		id := fmt.Sprintf("%s_%d", res.htmlID(), i)
		t := newTag("input")
		t.attr("type", control)
		t.attr("name", res.inputName())
		t.attr("id", id)
		t.always("value", opt.Value)
		t.flag("checked", res.selected(opt.Value))
		r.flags(t, res)
		r.extras(t, res)
		sb.WriteString(t.open())
		fmt.Fprintf(&sb, `<label for="%s">%s</label>`, html.EscapeString(id), html.EscapeString(opt.Label))
	}
	sb.WriteString("</div>")
	return sb.String()
}

func (r *Renderer) renderBoolean(res *resolved) string {
	labels := []string{"No", "Yes"}
	for i, l := range res.Boolean.Labels {
		if i < len(labels) && l != "" {
			labels[i] = l
		}
	}
	opts := model.Options{{Value: "0", Label: labels[0]}, {Value: "1", Label: labels[1]}}

	current := ""
	if !res.Value.IsEmpty() {
		current = "0"
		if model.ParseBool(res.Value.String()) {
			current = "1"
		}
	}
	res.Value = model.Scalar(current)

	switch strings.ToLower(res.Boolean.Type) {
	case model.BooleanRadio:
		return r.group(res, "radio", opts)
	case model.BooleanCheckbox:
		// The hidden input submits 0 when the box is unchecked.
		hidden := newTag("input")
		hidden.attr("type", "hidden")
		hidden.attr("name", res.inputName())
		hidden.always("value", "0")

		t := newTag("input")
		t.attr("type", "checkbox")
		t.attr("name", res.inputName())
		t.always("value", "1")
		t.flag("checked", current == "1")
		r.common(t, res)
		return hidden.open() + t.open()
	default:
		t := newTag("select")
		t.attr("name", res.inputName())
		r.common(t, res)

		var sb strings.Builder
		sb.WriteString(t.open())
		if res.Boolean.Blank {
			writeOption(&sb, model.Option{}, current == "")
		}
		for _, opt := range opts {
			writeOption(&sb, opt, current == opt.Value)
		}
		sb.WriteString("</select>")
		return sb.String()
	}
}

// choices returns the options for a choice field: explicit options first,
// then a linked-table lookup. The second result is false when the field
// cannot be rendered.
func (r *Renderer) choices(ctx context.Context, res *resolved) (model.Options, bool) {
	if len(res.Options) > 0 {
		return res.Options, true
	}
	if res.LinkedTo == nil {
		r.logger.Debug("choice field has no options", "field", res.Name, "type", res.Type)
		return nil, false
	}
	if !res.LinkedTo.Complete() {
		r.logger.Warn("incomplete linkedTo metadata", "field", res.Name)
		return nil, false
	}
	if r.options == nil {
		r.logger.Warn("linked field rendered without an option source", "field", res.Name)
		return nil, false
	}
	opts, err := r.options.Options(ctx, res.LinkedTo)
	if err != nil {
		r.logger.Error("looking up linked options", "field", res.Name, "error", err)
		return nil, false
	}
	return opts, true
}

// common writes the id, boolean flags, styling and pass-through attributes.
func (r *Renderer) common(t *tag, res *resolved) {
	t.attr("id", res.htmlID())
	r.flags(t, res)
	r.extras(t, res)
}

// flags writes disabled, readonly and required. Hidden inputs never carry
// disabled or readonly: a disabled hidden input is not submitted, and the
// processor restores locked values that are declared.
func (r *Renderer) flags(t *tag, res *resolved) {
	t.flag("disabled", res.Disabled && !res.hiddenInput())
	t.flag("readonly", res.Readonly && !res.hiddenInput())
	t.flag("required", res.Required)
}

// extras writes render-time pass-through attributes ahead of the declared
// ones, so overrides win.
func (r *Renderer) extras(t *tag, res *resolved) {
	t.attrs(res.passThrough)
	if !res.DisableStyling {
		t.attr("class", res.FieldClass)
		t.attr("style", res.FieldStyle)
	}
	t.attrs(res.FieldMetadata)
	t.attrs(res.Extra)
}

func writeOption(sb *strings.Builder, opt model.Option, selected bool) {
	sb.WriteString(`<option value="`)
	sb.WriteString(html.EscapeString(opt.Value))
	sb.WriteString(`"`)
	if selected {
		sb.WriteString(" selected")
	}
	sb.WriteString(">")
	sb.WriteString(html.EscapeString(opt.Label))
	sb.WriteString("</option>")
}

// resolved is a field declaration with render-time overrides applied.
type resolved struct {
	*model.Field
	kind        string
	rowID       string
	multi       bool
	passThrough model.Attrs
}

func (r *Renderer) resolve(f *model.Field, ov Overrides) *resolved {
	EnsureID(f)
	res := &resolved{Field: f.Clone()}

	keys := make([]string, 0, len(ov))
	for k := range ov {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := ov[k]
		switch {
		case strings.EqualFold(k, KeyRowID):
			res.rowID = attrString(v)
		case strings.EqualFold(k, KeyData):
			res.addData(v)
		default:
			canon, known := model.CanonicalOption(k)
			if !known {
				res.passThrough.Set(k, attrString(v))
				continue
			}
			if canon == model.OptName {
				continue
			}
			if err := res.Set(canon, v); err != nil {
				r.logger.Debug("ignoring render override", "field", f.Name, "option", k, "error", err)
			}
		}
	}
	res.kind = Kind(res.Type)
	res.multi = res.MultiValue()
	return res
}

func (res *resolved) addData(v any) {
	switch m := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			res.passThrough.Set("data-"+k, attrString(m[k]))
		}
	case map[string]string:
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			res.passThrough.Set("data-"+k, m[k])
		}
	default:
		res.passThrough.Set(KeyData, attrString(v))
	}
}

func (res *resolved) htmlID() string {
	if res.rowID == "" {
		return res.FieldID
	}
	return res.FieldID + "_" + res.rowID
}

func (res *resolved) inputName() string {
	name := res.Name
	if res.rowID != "" {
		name += "[" + res.rowID + "]"
	}
	if res.multi {
		name += "[]"
	}
	return name
}

func (res *resolved) selected(value string) bool {
	if res.multi {
		return res.Value.Contains(value)
	}
	return res.Value.String() == value
}

func (res *resolved) styleClass() string {
	if res.DisableStyling {
		return ""
	}
	return res.FieldClass
}

// hiddenInput reports whether the field renders as <input type="hidden">.
func (res *resolved) hiddenInput() bool {
	return res.kind == kindInput && inputType(res.Type) == model.FieldTypeHidden
}

func (res *resolved) labelled() bool {
	if res.kind != kindInput {
		return true
	}
	switch inputType(res.Type) {
	case model.FieldTypeHidden, model.FieldTypeButton, model.FieldTypeSubmit, model.FieldTypeReset:
		return false
	}
	return true
}

// carryDisabled returns hidden inputs repeating a disabled field's value,
// since browsers do not submit disabled controls.
func (res *resolved) carryDisabled() string {
	if !res.Disabled || res.Value.IsEmpty() || !res.Persistable() {
		return ""
	}
	if res.hiddenInput() {
		return ""
	}
	values := []string{res.Value.String()}
	if res.multi {
		values = res.Value.List()
	}
	var sb strings.Builder
	for _, v := range values {
		t := newTag("input")
		t.attr("type", "hidden")
		t.attr("name", res.inputName())
		t.always("value", v)
		sb.WriteString(t.open())
	}
	return sb.String()
}

func attrString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "1"
		}
		return "0"
	case model.Value:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
