// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package processor

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/messages"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/model"
)

// Row is one record of a batch edit submission.
type Row struct {
	ID   string
	Data url.Values
}

// ParseRows reassembles row keyed form data. Keys of the form "name[id]"
// and "name[id][]" are grouped by id; "__deleted[]" lists the rows to
// delete. Keys without a row id are ignored. Rows are ordered by id,
// numerically when the ids are numbers.
func ParseRows(data url.Values) ([]Row, []string) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var deleted []string
	byID := make(map[string]*Row)
	for _, key := range keys {
		if key == model.DeletedField || key == model.DeletedField+"[]" {
			deleted = append(deleted, model.Value(data[key]).List()...)
			continue
		}
		name, rest, ok := strings.Cut(key, "[")
		if !ok || name == "" {
			continue
		}
		id, tail, ok := strings.Cut(rest, "]")
		if !ok || id == "" || (tail != "" && tail != "[]") {
			continue
		}
		r, ok := byID[id]
		if !ok {
			r = &Row{ID: id, Data: url.Values{}}
			byID[id] = r
		}
		r.Data[name] = append(r.Data[name], data[key]...)
	}

	rows := make([]Row, 0, len(byID))
	for _, r := range byID {
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool { return lessID(rows[i].ID, rows[j].ID) })
	return rows, deleted
}

func lessID(a, b string) bool {
	ai, errA := strconv.Atoi(a)
	bi, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return ai < bi
	}
	return a < b
}

// ProcessEdit applies a batch edit: rows listed in deleted are removed,
// then every other row is updated. Validation and incomplete data errors
// do not stop the batch; the worst code seen is returned. A system error
// stops the batch immediately.
func (p *Processor) ProcessEdit(ctx context.Context, rows []Row, deleted []string) Code {
	return p.runEdit(ctx, &Event{Type: TypeEdit, Rows: rows, Deleted: deleted})
}

func (p *Processor) runEdit(ctx context.Context, ev *Event) Code {
	if code := p.dispatch(ctx, BeforeDelete, ev, nil); !code.OK() {
		return code
	}
	ev.Code = p.dispatch(ctx, DoDelete, ev, func() Code { return p.deleteRows(ctx, ev.Deleted) })
	p.dispatch(ctx, AfterDelete, ev, nil)
	outcome := ev.Code
	if outcome == CodeSystem {
		return outcome
	}

	if code := p.dispatch(ctx, BeforeEdit, ev, nil); !code.OK() {
		return Worse(outcome, code)
	}
	ev.Code = p.dispatch(ctx, DoEdit, ev, func() Code { return p.editRows(ctx, ev) })
	ev.Code = Worse(outcome, ev.Code)
	p.dispatch(ctx, AfterEdit, ev, nil)
	return ev.Code
}

func (p *Processor) deleteRows(ctx context.Context, ids []string) Code {
	code := CodeOK
	for _, id := range ids {
		c := p.Delete(ctx, p.rowData(Row{ID: id}))
		code = Worse(code, c)
		if c == CodeSystem {
			return c
		}
	}
	return code
}

func (p *Processor) editRows(ctx context.Context, ev *Event) Code {
	if !p.ready(ctx, "edit") {
		return CodeSystem
	}
	skip := make(map[string]bool, len(ev.Deleted))
	for _, id := range ev.Deleted {
		skip[id] = true
	}

	code := CodeOK
	for _, r := range ev.Rows {
		if skip[r.ID] {
			continue
		}
		rowEv := &Event{Type: TypeEdit, Data: p.rowData(r)}
		c := p.dispatch(ctx, DoUpdate, rowEv, func() Code {
			return p.update(ctx, p.prepare(rowEv.Data), true)
		})
		if !c.OK() {
			p.sink.Event(ctx, messages.Low, "edit row failed", "row", r.ID, "code", c.String())
		}
		code = Worse(code, c)
		if c == CodeSystem {
			return c
		}
	}
	return code
}

// rowData copies a row's data, filling a single primary field from the
// row id when the row does not carry it.
func (p *Processor) rowData(r Row) url.Values {
	data := make(url.Values, len(r.Data)+1)
	for k, v := range r.Data {
		data[k] = append([]string(nil), v...)
	}
	if prim := p.fields.PrimaryFields(); len(prim) == 1 {
		if _, ok := submitted(data, prim[0].Name); !ok {
			data.Set(prim[0].Name, r.ID)
		}
	}
	return data
}
