package diagnostic

import (
	"errors"
	"fmt"
	"strings"

	"graph-mapper/internal/common"
)

// Diagnostic codes recorded while assembling mapping plans.
const (
	CodeUnmatchedMember    = "unmatched_member"
	CodeIgnoredMember      = "ignored_member"
	CodeUnsupportedKey     = "unsupported_dictionary_key"
	CodeUnsupportedShape   = "unsupported_shape"
	CodeNoDerivedType      = "no_derived_type"
	CodeAmbiguousFactory   = "ambiguous_construction"
	CodeInvalidDerivedRule = "invalid_derived_rule"
	CodePartialCatalog     = "partial_catalog"
	CodeInvalidConfig      = "invalid_config"
)

// Diagnostics holds all diagnostic information from plan assembly.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Infos    []Diagnostic
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	// Severity of the diagnostic.
	Severity DiagnosticSeverity
	// Code is a unique identifier for this type of diagnostic.
	Code string
	// Message is the human-readable description.
	Message string
	// Plan identifies the source/target shape pair (if any).
	Plan string
	// MemberPath identifies the target member (if any).
	MemberPath string
	// Suggestions are potential fixes or alternatives.
	Suggestions []string
}

// DiagnosticSeverity represents the severity level of a diagnostic.
type DiagnosticSeverity int

const (
	DiagnosticInfo DiagnosticSeverity = iota
	DiagnosticWarning
	DiagnosticError
)

// String returns a human-readable severity name.
func (s DiagnosticSeverity) String() string {
	switch s {
	case DiagnosticInfo:
		return "info"
	case DiagnosticWarning:
		return "warning"
	case DiagnosticError:
		return "error"
	default:
		return common.UnknownStr
	}
}

// AddError adds an error diagnostic.
func (d *Diagnostics) AddError(code, message, plan, memberPath string) {
	d.Errors = append(d.Errors, Diagnostic{
		Severity:   DiagnosticError,
		Code:       code,
		Message:    message,
		Plan:       plan,
		MemberPath: memberPath,
	})
}

// AddWarning adds a warning diagnostic, with optional suggestions.
func (d *Diagnostics) AddWarning(code, message, plan, memberPath string, suggestions ...string) {
	d.Warnings = append(d.Warnings, Diagnostic{
		Severity:    DiagnosticWarning,
		Code:        code,
		Message:     message,
		Plan:        plan,
		MemberPath:  memberPath,
		Suggestions: suggestions,
	})
}

// AddInfo adds an info diagnostic.
func (d *Diagnostics) AddInfo(code, message, plan, memberPath string) {
	d.Infos = append(d.Infos, Diagnostic{
		Severity:   DiagnosticInfo,
		Code:       code,
		Message:    message,
		Plan:       plan,
		MemberPath: memberPath,
	})
}

// HasErrors returns true if there are any error diagnostics.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// Merge merges another Diagnostics instance into this one.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.Infos = append(d.Infos, other.Infos...)
}

// IsValid returns true if there are no errors.
func (d *Diagnostics) IsValid() bool {
	return len(d.Errors) == 0
}

// All returns every diagnostic, errors first.
func (d *Diagnostics) All() []Diagnostic {
	all := make([]Diagnostic, 0, len(d.Errors)+len(d.Warnings)+len(d.Infos))
	all = append(all, d.Errors...)
	all = append(all, d.Warnings...)

	return append(all, d.Infos...)
}

// ByCode returns the diagnostics with the given code.
func (d *Diagnostics) ByCode(code string) []Diagnostic {
	var found []Diagnostic

	for _, diag := range d.All() {
		if diag.Code == code {
			found = append(found, diag)
		}
	}

	return found
}

// Error returns a combined error from all error diagnostics, or nil if valid.
func (d *Diagnostics) Error() error {
	if d.IsValid() {
		return nil
	}

	var parts []string
	for _, e := range d.Errors {
		parts = append(parts, e.String())
	}

	return errors.New(strings.Join(parts, "; "))
}

// String returns a formatted diagnostic string.
func (d Diagnostic) String() string {
	var prefix []string
	if d.Plan != "" {
		prefix = append(prefix, "["+d.Plan+"]")
	}

	if d.MemberPath != "" {
		prefix = append(prefix, d.MemberPath)
	}

	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}

	if len(d.Suggestions) > 0 {
		msg += " (did you mean " + strings.Join(d.Suggestions, ", ") + "?)"
	}

	if len(prefix) > 0 {
		return strings.Join(prefix, " ") + ": " + msg
	}

	return msg
}
