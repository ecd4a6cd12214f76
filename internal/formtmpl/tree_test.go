// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package formtmpl

import (
	"testing"
)

func TestLex(t *testing.T) {
	toks := lex(`a {Field name="x}y" display=full}b{/FORM}{ not a tag }c{1x}{x`)

	want := []struct {
		typ  tokenType
		name string
		raw  string
	}{
		{tokenText, "", "a "},
		{tokenOpen, "field", `{Field name="x}y" display=full}`},
		{tokenText, "", "b"},
		{tokenClose, "form", "{/FORM}"},
		{tokenText, "", "{ not a tag }c{1x}{x"},
	}
	if len(toks) != len(want) {
		t.Fatalf("lex returned %d tokens: %+v", len(toks), toks)
	}
	for i, w := range want {
		if toks[i].typ != w.typ || toks[i].name != w.name || toks[i].raw != w.raw {
			t.Errorf("token %d = %+v, want %+v", i, toks[i], w)
		}
	}
	if toks[1].attrs != ` name="x}y" display=full` {
		t.Errorf("attrs = %q", toks[1].attrs)
	}
}

func TestLexTextAroundTag(t *testing.T) {
	toks := lex("a{x}b")
	if len(toks) != 3 {
		t.Fatalf("lex returned %d tokens: %+v", len(toks), toks)
	}
	if toks[0].typ != tokenText || toks[0].raw != "a" {
		t.Errorf("token 0 = %+v, want text %q", toks[0], "a")
	}
	if toks[1].typ != tokenOpen || toks[1].raw != "{x}" {
		t.Errorf("token 1 = %+v, want tag {x}", toks[1])
	}
	if toks[2].typ != tokenText || toks[2].raw != "b" {
		t.Errorf("token 2 = %+v, want text %q", toks[2], "b")
	}
}

func TestLexUnquotedApostrophe(t *testing.T) {
	toks := lex(`{field name=o'neil}<p>it's</p>`)
	if len(toks) != 2 {
		t.Fatalf("lex returned %d tokens: %+v", len(toks), toks)
	}
	if toks[0].typ != tokenOpen || toks[0].raw != `{field name=o'neil}` {
		t.Errorf("token 0 = %+v", toks[0])
	}
	if got, _ := parseAttrs(toks[0].attrs).get("name"); got != "o'neil" {
		t.Errorf("name = %q, want %q", got, "o'neil")
	}
	if toks[1].raw != "<p>it's</p>" {
		t.Errorf("token 1 = %+v", toks[1])
	}
}

func TestLexCSSAndScript(t *testing.T) {
	in := `<style>a{color:red}</style><script>if (x) { y(); }</script>`
	toks := lex(in)
	if len(toks) != 1 || toks[0].typ != tokenText || toks[0].raw != in {
		t.Errorf("lex = %+v, want a single text token", toks)
	}
}

func TestParseAttrs(t *testing.T) {
	a := parseAttrs(` name="a b" Display='field' list=x,y  bare  empty= "stray `)

	tests := []struct {
		key, want string
		ok        bool
	}{
		{"name", "a b", true},
		{"display", "field", true},
		{"LIST", "x,y", true},
		{"bare", "true", true},
		{"empty", "", true},
		{"missing", "", false},
	}
	for _, tt := range tests {
		got, ok := a.get(tt.key)
		if got != tt.want || ok != tt.ok {
			t.Errorf("get(%q) = %q, %v; want %q, %v", tt.key, got, ok, tt.want, tt.ok)
		}
	}

	if !a.bool("bare", false) || a.bool("missing", false) || !a.bool("missing", true) {
		t.Error("bool() defaults are wrong")
	}
	if list, _ := a.list("list"); len(list) != 2 || list[1] != "y" {
		t.Errorf("list(list) = %v", list)
	}
	if got := a.without("name", "display"); len(got) != len(a)-2 {
		t.Errorf("without() = %v", got)
	}
}

func TestParseTree(t *testing.T) {
	in := `<ul>{fieldsLoop list="a"}<li>{field}</li>{/fieldsLoop}</ul>{rowLoop}x{/rowLoop}`
	nodes := parse(in)

	if len(nodes) != 4 {
		t.Fatalf("parse returned %d nodes", len(nodes))
	}
	loop := nodes[1]
	if loop.kind != nodeBlock || loop.name != tagFieldsLoop || len(loop.body) != 3 {
		t.Errorf("fieldsLoop node = %+v", loop)
	}
	if v, _ := loop.attrs.get("list"); v != "a" {
		t.Errorf("fieldsLoop list = %q", v)
	}
	if nodes[3].kind != nodeBlock || nodes[3].name != tagRowLoop {
		t.Errorf("rowLoop node = %+v", nodes[3])
	}
	if got := source(nodes); got != in {
		t.Errorf("source() = %q, want %q", got, in)
	}
}

func TestParseUnbalanced(t *testing.T) {
	tests := []string{
		`{/fieldsLoop}text`,
		`{fieldsLoop}never closed {field}`,
		`{rowLoop}{fieldsLoop}inner{/rowLoop}`,
	}
	for _, in := range tests {
		nodes := parse(in)
		if got := source(nodes); got != in {
			t.Errorf("source(parse(%q)) = %q", in, got)
		}
	}

	nodes := parse(`{rowLoop}{fieldsLoop}inner{/rowLoop}`)
	if len(nodes) != 1 || nodes[0].name != tagRowLoop {
		t.Fatalf("parse = %+v, want one rowLoop block", nodes)
	}
	if nodes[0].body[0].kind != nodeText || nodes[0].body[0].raw != "{fieldsLoop}" {
		t.Errorf("unclosed inner block = %+v, want literal text", nodes[0].body[0])
	}
}
