package config

import (
	"fmt"
	"strings"
)

// Configuration error codes (E200-E299).
const (
	ErrReadFailed      = "E200" // config file unreadable
	ErrSyntax          = "E201" // CUE syntax error
	ErrInvalidValue    = "E202" // value violates the schema
	ErrUnknownField    = "E203" // field not in the schema
	ErrDuplicatePrim   = "E204" // two primitives share a name
	ErrIncompleteValue = "E205" // field left non-concrete
)

// ValidationError is one configuration problem.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	loc := ""
	if e.File != "" && e.Line > 0 {
		loc = fmt.Sprintf("%s:%d: ", e.File, e.Line)
	}
	if e.Field == "" {
		return fmt.Sprintf("[%s] %s%s", e.Code, loc, e.Message)
	}
	return fmt.Sprintf("[%s] %s%s: %s", e.Code, loc, e.Field, e.Message)
}

// Errors is the list of problems found in one configuration file.
type Errors []ValidationError

func (errs Errors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}
