// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package formtmpl

import "strings"

// tokenType identifies a lexical token of a form template.
type tokenType int

const (
	tokenText  tokenType = iota
	tokenOpen            // {name attrs}
	tokenClose           // {/name}
)

// token is one lexical element. Raw always holds the exact source text so
// unrecognized tags can be written back verbatim.
type token struct {
	typ   tokenType
	name  string // lower-cased tag name
	attrs string // raw attribute text of an open tag
	raw   string
	pos   int
}

// lexer splits a template into text and tag tokens. A "{" that does not
// start a well-formed tag is plain text, so CSS and script bodies pass
// through untouched.
type lexer struct {
	input  string
	pos    int
	start  int
	tokens []token
}

func lex(input string) []token {
	l := &lexer{input: input}
	l.run()
	return l.tokens
}

func (l *lexer) run() {
	for l.pos < len(l.input) {
		i := strings.IndexByte(l.input[l.pos:], '{')
		if i < 0 {
			l.pos = len(l.input)
			break
		}
		l.pos += i
		at := l.pos
		if tok, ok := l.scanTag(); ok {
			l.emitText(at)
			l.tokens = append(l.tokens, tok)
			l.start = l.pos
			continue
		}
		l.pos++
	}
	l.emitText(l.pos)
}

// emitText emits the pending text that ends at end.
func (l *lexer) emitText(end int) {
	if end > l.start {
		l.tokens = append(l.tokens, token{
			typ: tokenText,
			raw: l.input[l.start:end],
			pos: l.start,
		})
	}
	l.start = end
}

// scanTag tries to read a tag starting at the current "{". On success the
// position moves past the closing "}".
func (l *lexer) scanTag() (token, bool) {
	start := l.pos
	p := start + 1

	typ := tokenOpen
	if p < len(l.input) && l.input[p] == '/' {
		typ = tokenClose
		p++
	}

	nameStart := p
	for p < len(l.input) && isNameByte(l.input[p], p == nameStart) {
		p++
	}
	if p == nameStart {
		return token{}, false
	}
	name := strings.ToLower(l.input[nameStart:p])

	if typ == tokenClose {
		if p < len(l.input) && l.input[p] == '}' {
			l.pos = p + 1
			return token{typ: tokenClose, name: name, raw: l.input[start:l.pos], pos: start}, true
		}
		return token{}, false
	}

	// After the name only "}" or whitespace followed by attributes may come.
	if p >= len(l.input) {
		return token{}, false
	}
	if l.input[p] != '}' && !isSpace(l.input[p]) {
		return token{}, false
	}

	// Quotes only delimit a value when they directly follow "=".
	attrStart := p
	var quote, prev byte
	for ; p < len(l.input); p++ {
		c := l.input[p]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case (c == '"' || c == '\'') && prev == '=':
			quote = c
		case c == '{':
			return token{}, false
		case c == '}':
			l.pos = p + 1
			return token{
				typ:   tokenOpen,
				name:  name,
				attrs: l.input[attrStart:p],
				raw:   l.input[start:l.pos],
				pos:   start,
			}, true
		}
		if quote == 0 {
			prev = c
		}
	}
	return token{}, false
}

func isNameByte(c byte, first bool) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	case c == '_':
		return true
	case c >= '0' && c <= '9':
		return !first
	}
	return false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
