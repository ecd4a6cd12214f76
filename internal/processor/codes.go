// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package processor

import "strconv"

// Code is the outcome of a processing operation. The integer values are
// stable and shared with calling code.
type Code int

// Result codes
const (
	CodeOK             Code = 0
	CodeNoPost         Code = 1
	CodeNoID           Code = 2
	CodeInvalidID      Code = 3
	CodeValidation     Code = 4
	CodeSystem         Code = 5
	CodeType           Code = 6
	CodeIncompleteData Code = 7
)

var codeNames = map[Code]string{
	CodeOK:             "ERR_OK",
	CodeNoPost:         "ERR_NO_POST",
	CodeNoID:           "ERR_NO_ID",
	CodeInvalidID:      "ERR_INVALID_ID",
	CodeValidation:     "ERR_VALIDATION",
	CodeSystem:         "ERR_SYSTEM",
	CodeType:           "ERR_TYPE",
	CodeIncompleteData: "ERR_INCOMPLETE_DATA",
}

var codeMessages = map[Code]string{
	CodeOK:             "Submission successful",
	CodeNoPost:         "No data was submitted",
	CodeNoID:           "No form ID was submitted",
	CodeInvalidID:      "The submitted form ID is invalid",
	CodeValidation:     "The submission contains invalid data",
	CodeSystem:         "A system error occurred, please try again",
	CodeType:           "The form processor is not configured for this operation",
	CodeIncompleteData: "The submission is missing required record data",
}

// String returns the constant name, e.g. "ERR_VALIDATION".
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "Code(" + strconv.Itoa(int(c)) + ")"
}

// Message returns the user-facing text for c.
func (c Code) Message() string {
	if msg, ok := codeMessages[c]; ok {
		return msg
	}
	return codeMessages[CodeSystem]
}

// OK reports whether c is CodeOK.
func (c Code) OK() bool {
	return c == CodeOK
}

// rank orders codes for batch processing, where the worst outcome wins.
func (c Code) rank() int {
	switch c {
	case CodeOK:
		return 0
	case CodeValidation:
		return 1
	case CodeIncompleteData:
		return 2
	case CodeSystem:
		return 4
	default:
		return 3
	}
}

// Worse returns the more severe of a and b.
func Worse(a, b Code) Code {
	if b.rank() > a.rank() {
		return b
	}
	return a
}
