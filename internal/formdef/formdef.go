// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package formdef loads form definitions from YAML files.
package formdef

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/forms"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/formtmpl"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/model"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/processor"
)

// File is the YAML layout of one form definition.
type File struct {
	Name         string           `yaml:"name"`
	Title        string           `yaml:"title"`
	Type         string           `yaml:"type"`
	Table        *Table           `yaml:"table"`
	Primary      []string         `yaml:"primary"`
	Template     string           `yaml:"template"`
	TemplateFile string           `yaml:"templateFile"`
	Fields       []map[string]any `yaml:"fields"`
}

// Table is the YAML layout of the table a form is bound to.
type Table struct {
	Name  string `yaml:"name"`
	Where string `yaml:"where"`
	Order string `yaml:"order"`
	Limit int    `yaml:"limit"`
}

// Parse decodes a single YAML definition. Errors wrap
// forms.ErrInvalidDefinition.
func Parse(data []byte) (*forms.Definition, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", forms.ErrInvalidDefinition, err)
	}
	return file.Definition()
}

// Definition converts the decoded file into a validated definition.
func (f *File) Definition() (*forms.Definition, error) {
	d := &forms.Definition{
		Name:         strings.TrimSpace(f.Name),
		Title:        f.Title,
		Primary:      f.Primary,
		Template:     f.Template,
		TemplateFile: f.TemplateFile,
	}
	if f.Type != "" {
		typ, err := processor.ParseType(f.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: form %q: %v", forms.ErrInvalidDefinition, d.Name, err)
		}
		d.Type = typ
	}
	if f.Table != nil {
		d.Table = &formtmpl.Table{
			Name:  f.Table.Name,
			Where: f.Table.Where,
			Order: f.Table.Order,
			Limit: f.Table.Limit,
		}
	}
	for i, m := range f.Fields {
		field, err := model.FieldFromMap(m)
		if err != nil {
			return nil, fmt.Errorf("%w: form %q field %d: %v", forms.ErrInvalidDefinition, d.Name, i+1, err)
		}
		d.Fields = append(d.Fields, field)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// LoadFile reads and parses one definition file.
func LoadFile(path string) (*forms.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading form definition: %w", err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return d, nil
}

// LoadDir loads every *.yaml and *.yml file in dir, sorted by file name.
// A missing directory yields no definitions. The first invalid file stops
// loading.
func LoadDir(dir string, logger *slog.Logger) ([]*forms.Definition, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		logger.Warn("form definitions directory does not exist", "path", dir)
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading form definitions directory: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml":
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	defs := make([]*forms.Definition, 0, len(names))
	for _, name := range names {
		d, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		logger.Info("loaded form definition", "form", d.Name, "file", name, "fields", len(d.Fields))
		defs = append(defs, d)
	}
	return defs, nil
}
