// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package formtmpl

import (
	"strings"

	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/fieldrender"
)

// Tag names, lower-cased.
const (
	tagFieldsLoop   = "fieldsloop"
	tagRowLoop      = "rowloop"
	tagIfFormErrors = "ifformerrors"
	tagFormErrors   = "formerrors"
	tagFormTitle    = "formtitle"
	tagForm         = "form"
	tagFields       = "fields"
	tagField        = "field"
	tagFieldset     = "fieldset"
	tagRowCount     = "rowcount"
	tagFieldCount   = "fieldcount"
	tagRowID        = "rowid"
)

// blockTags have a body terminated by a matching close tag.
var blockTags = map[string]bool{
	tagFieldsLoop:   true,
	tagRowLoop:      true,
	tagIfFormErrors: true,
}

type nodeKind int

const (
	nodeText   nodeKind = iota // literal template text
	nodeOutput                 // resolved output, never re-examined
	nodeTag                    // inline tag, open or close
	nodeBlock                  // block tag with body
)

type node struct {
	kind   nodeKind
	name   string // lower-cased tag name
	closed bool   // close tag such as {/form}
	raw    string // source text, or output for nodeOutput
	attrs  attrs
	body   []*node
	end    string // raw close tag of a block

	// bound marks a field tag produced by a loop; it renders even when the
	// field was already emitted in this pass.
	bound     bool
	overrides fieldrender.Overrides
}

func text(s string) *node {
	return &node{kind: nodeText, raw: s}
}

func output(s string) *node {
	return &node{kind: nodeOutput, raw: s}
}

type frame struct {
	open  token
	nodes []*node
}

// parse builds a node tree. Unbalanced block tags degrade to literal text
// rather than failing.
func parse(input string) []*node {
	stack := []*frame{{}}
	top := func() *frame { return stack[len(stack)-1] }

	for _, tok := range lex(input) {
		switch tok.typ {
		case tokenText:
			top().nodes = append(top().nodes, text(tok.raw))
		case tokenOpen:
			if blockTags[tok.name] {
				stack = append(stack, &frame{open: tok})
				continue
			}
			top().nodes = append(top().nodes, &node{
				kind:  nodeTag,
				name:  tok.name,
				raw:   tok.raw,
				attrs: parseAttrs(tok.attrs),
			})
		case tokenClose:
			if !blockTags[tok.name] {
				top().nodes = append(top().nodes, &node{
					kind:   nodeTag,
					name:   tok.name,
					closed: true,
					raw:    tok.raw,
				})
				continue
			}
			depth := -1
			for i := len(stack) - 1; i > 0; i-- {
				if stack[i].open.name == tok.name {
					depth = i
					break
				}
			}
			if depth < 0 {
				top().nodes = append(top().nodes, text(tok.raw))
				continue
			}
			// Blocks opened after the match never closed: flatten them.
			for len(stack)-1 > depth {
				stack = unwind(stack)
			}
			f := top()
			stack = stack[:len(stack)-1]
			top().nodes = append(top().nodes, &node{
				kind:  nodeBlock,
				name:  f.open.name,
				raw:   f.open.raw,
				attrs: parseAttrs(f.open.attrs),
				body:  f.nodes,
				end:   tok.raw,
			})
		}
	}
	for len(stack) > 1 {
		stack = unwind(stack)
	}
	return stack[0].nodes
}

// unwind pops an unclosed block, turning its open tag back into text
// followed by its body.
func unwind(stack []*frame) []*frame {
	f := stack[len(stack)-1]
	stack = stack[:len(stack)-1]
	parent := stack[len(stack)-1]
	parent.nodes = append(parent.nodes, text(f.open.raw))
	parent.nodes = append(parent.nodes, f.nodes...)
	return stack
}

// clone deep-copies a node list.
func clone(nodes []*node) []*node {
	out := make([]*node, len(nodes))
	for i, n := range nodes {
		c := *n
		c.attrs = n.attrs.clone()
		c.body = clone(n.body)
		if n.overrides != nil {
			c.overrides = make(fieldrender.Overrides, len(n.overrides))
			for k, v := range n.overrides {
				c.overrides[k] = v
			}
		}
		out[i] = &c
	}
	return out
}

// source writes nodes back as template text.
func source(nodes []*node) string {
	var sb strings.Builder
	for _, n := range nodes {
		sb.WriteString(n.raw)
		if n.kind == nodeBlock {
			sb.WriteString(source(n.body))
			sb.WriteString(n.end)
		}
	}
	return sb.String()
}
