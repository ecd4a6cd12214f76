// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"errors"
	"testing"
)

func TestNewField(t *testing.T) {
	f, err := NewField("  email ")
	if err != nil {
		t.Fatalf("NewField() error: %v", err)
	}
	if f.Name != "email" {
		t.Errorf("Name = %q, want %q", f.Name, "email")
	}
	if f.Type != FieldTypeText {
		t.Errorf("Type = %q, want %q", f.Type, FieldTypeText)
	}

	if _, err := NewField(""); !errors.Is(err, ErrEmptyName) {
		t.Errorf("NewField(\"\") error = %v, want ErrEmptyName", err)
	}
}

func TestFieldFromMap(t *testing.T) {
	f, err := FieldFromMap(map[string]any{
		"name":       "colour",
		"type":       "DropDown",
		"label":      "Colour",
		"required":   true,
		"duplicates": false,
		"order":      3,
		"options": []any{
			map[string]any{"value": "r", "label": "Red"},
			"green",
		},
		"linkedTo": map[string]any{
			"table":      "colours",
			"keyField":   "id",
			"labelField": "name",
			"limit":      "10",
		},
		"help":        "Pick one",
		"data-widget": "picker",
	})
	if err != nil {
		t.Fatalf("FieldFromMap() error: %v", err)
	}

	if f.Type != "dropdown" {
		t.Errorf("Type = %q, want lowercased %q", f.Type, "dropdown")
	}
	if !f.Required {
		t.Error("Required = false, want true")
	}
	if !f.Unique {
		t.Error("Unique = false, want true when duplicates is false")
	}
	if f.Order == nil || *f.Order != 3 {
		t.Errorf("Order = %v, want 3", f.Order)
	}
	if len(f.Options) != 2 || f.Options[0] != (Option{Value: "r", Label: "Red"}) || f.Options[1].Label != "green" {
		t.Errorf("Options = %+v", f.Options)
	}
	if f.LinkedTo == nil || f.LinkedTo.Limit != 10 || !f.LinkedTo.Complete() {
		t.Errorf("LinkedTo = %+v", f.LinkedTo)
	}
	if f.Help == nil || f.Help.Type != HelpTooltip || f.Help.Text != "Pick one" {
		t.Errorf("Help = %+v", f.Help)
	}
	if v, ok := f.Extra.Get("data-widget"); !ok || v != "picker" {
		t.Errorf("Extra[data-widget] = %q, %v", v, ok)
	}
}

func TestFieldFromMap_MissingName(t *testing.T) {
	if _, err := FieldFromMap(map[string]any{"type": "text"}); !errors.Is(err, ErrEmptyName) {
		t.Errorf("error = %v, want ErrEmptyName", err)
	}
}

func TestFieldGetSet(t *testing.T) {
	f, _ := NewField("title")

	if err := f.Set("ShowInEditStrip", "yes"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	v, ok := f.Get("showineditstrip")
	if !ok || v != true {
		t.Errorf("Get(showInEditStrip) = %v, %v", v, ok)
	}

	if err := f.Set("order", ""); err != nil || f.Order != nil {
		t.Errorf("Set(order, \"\") = %v, Order = %v", err, f.Order)
	}
	if err := f.Set("order", "abc"); err == nil {
		t.Error("Set(order, abc) error = nil, want error")
	}
	if err := f.Set("bogus", 1); err == nil {
		t.Error("Set(bogus) error = nil, want error")
	}
	if _, ok := f.Get("bogus"); ok {
		t.Error("Get(bogus) ok = true, want false")
	}
}

func TestFieldPersistable(t *testing.T) {
	tests := []struct {
		name  string
		ftype string
		want  bool
	}{
		{"title", FieldTypeText, true},
		{"__formID", FieldTypeHidden, false},
		{"save", FieldTypeSubmit, false},
		{"note", FieldTypePlaintext, false},
		{"tags", FieldTypeMultiselect, true},
	}
	for _, tt := range tests {
		f := &Field{Name: tt.name, Type: tt.ftype}
		if got := f.Persistable(); got != tt.want {
			t.Errorf("Persistable(%s/%s) = %v, want %v", tt.name, tt.ftype, got, tt.want)
		}
	}
}

func TestValueList(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want []string
	}{
		{"nil", nil, []string{}},
		{"scalar", Scalar("a"), []string{"a"}},
		{"csv", Scalar("a, b,,c"), []string{"a", "b", "c"}},
		{"list", List("x", "", "y"), []string{"x", "y"}},
	}
	for _, tt := range tests {
		got := tt.v.List()
		if len(got) != len(tt.want) {
			t.Errorf("%s: List() = %v, want %v", tt.name, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%s: List()[%d] = %q, want %q", tt.name, i, got[i], tt.want[i])
			}
		}
	}

	if !List("", " ").IsEmpty() {
		t.Error("IsEmpty() = false for blank list")
	}
	if !Scalar("1,2").Contains("2") {
		t.Error("Contains(2) = false for CSV value")
	}
}

func TestFieldClone(t *testing.T) {
	f := &Field{Name: "a", Order: OrderOf(1), Value: Scalar("x"), LinkedTo: &LinkedTo{Table: "t"}}
	c := f.Clone()
	*c.Order = 5
	c.Value[0] = "y"
	c.LinkedTo.Table = "u"
	if *f.Order != 1 || f.Value[0] != "x" || f.LinkedTo.Table != "t" {
		t.Errorf("Clone shares state with original: %+v", f)
	}
}
