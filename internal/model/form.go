// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model contains the declarative form field model shared by the
// renderer, the template engine and the form processor.
package model

import "strings"

// Form field type constants
const (
	FieldTypeText        = "text"
	FieldTypeSelect      = "select"
	FieldTypeRadio       = "radio"
	FieldTypeCheckbox    = "checkbox"
	FieldTypeBoolean     = "boolean"
	FieldTypeTextarea    = "textarea"
	FieldTypePassword    = "password"
	FieldTypeFile        = "file"
	FieldTypeHidden      = "hidden"
	FieldTypeButton      = "button"
	FieldTypeSubmit      = "submit"
	FieldTypeReset       = "reset"
	FieldTypePlaintext   = "plaintext"
	FieldTypeWysiwyg     = "wysiwyg"
	FieldTypeMultiselect = "multiselect"
)

// SystemPrefix marks fields that carry form plumbing rather than record data.
const SystemPrefix = "__"

// Form plumbing fields
const (
	// FormIDField carries the form name in every rendered form.
	FormIDField = SystemPrefix + "formID"
	// DeletedField lists the row IDs checked for deletion in an edit table.
	DeletedField = SystemPrefix + "deleted"
)

// ValidFieldTypes returns all known form field types.
func ValidFieldTypes() []string {
	return []string{
		FieldTypeText,
		FieldTypeSelect,
		FieldTypeRadio,
		FieldTypeCheckbox,
		FieldTypeBoolean,
		FieldTypeTextarea,
		FieldTypePassword,
		FieldTypeFile,
		FieldTypeHidden,
		FieldTypeButton,
		FieldTypeSubmit,
		FieldTypeReset,
		FieldTypePlaintext,
		FieldTypeWysiwyg,
		FieldTypeMultiselect,
	}
}

// IsValidFieldType checks if a field type is one of the known types.
func IsValidFieldType(fieldType string) bool {
	fieldType = NormalizeType(fieldType)
	for _, t := range ValidFieldTypes() {
		if t == fieldType {
			return true
		}
	}
	return false
}

// NormalizeType lowercases a declared type. An empty type is "text".
func NormalizeType(fieldType string) string {
	fieldType = strings.ToLower(strings.TrimSpace(fieldType))
	if fieldType == "" {
		return FieldTypeText
	}
	return fieldType
}

// IsSystemName reports whether name is a form plumbing field such as __formID.
func IsSystemName(name string) bool {
	return strings.HasPrefix(name, SystemPrefix)
}

// isDataType reports whether values of this type are ever persisted.
func isDataType(fieldType string) bool {
	switch fieldType {
	case FieldTypeButton, FieldTypeSubmit, FieldTypeReset, FieldTypePlaintext:
		return false
	}
	return true
}
