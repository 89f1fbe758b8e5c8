// Package diag defines the diagnostics produced while labeling a document.
// Structural problems found in the first phase are fatal and batched; problems
// found while resolving references degrade in place and are reported as
// warnings.
package diag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Code identifies a class of diagnostic.
type Code string

const (
	// CodeUnresolvedReference indicates a reference target with no anchor.
	CodeUnresolvedReference Code = "unresolved-reference"
	// CodeDuplicateAnchor indicates two or more nodes share an identifier.
	CodeDuplicateAnchor Code = "duplicate-anchor"
	// CodeMalformedLocality indicates reference qualifier text that does not parse.
	CodeMalformedLocality Code = "malformed-locality"
	// CodeNumericNormativeRef indicates a normative reference labeled only by a number.
	CodeNumericNormativeRef Code = "numeric-reference-in-normative"
)

// Severity distinguishes diagnostics that abort labeling from those that don't.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityFatal   Severity = "fatal"
)

// Severity returns the fixed severity of a code.
func (c Code) Severity() Severity {
	switch c {
	case CodeDuplicateAnchor, CodeNumericNormativeRef:
		return SeverityFatal
	default:
		return SeverityWarning
	}
}

// Diagnostic is one reported problem with its location context.
type Diagnostic struct {
	Code      Code     `json:"code" yaml:"code"`
	Severity  Severity `json:"severity" yaml:"severity"`
	Message   string   `json:"message" yaml:"message"`
	NodeID    string   `json:"node_id,omitempty" yaml:"node_id,omitempty"`
	Locations []string `json:"locations,omitempty" yaml:"locations,omitempty"`
}

// New builds a Diagnostic with the severity implied by code.
func New(code Code, nodeID string, locations []string, format string, args ...any) Diagnostic {
	return Diagnostic{
		Code:      code,
		Severity:  code.Severity(),
		Message:   fmt.Sprintf(format, args...),
		NodeID:    nodeID,
		Locations: locations,
	}
}

// Fatal reports whether the diagnostic aborts labeling.
func (d Diagnostic) Fatal() bool {
	return d.Severity == SeverityFatal
}

func (d Diagnostic) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", d.Code, d.Message)
	if len(d.Locations) > 0 {
		fmt.Fprintf(&b, " at %s", strings.Join(d.Locations, "; "))
	}
	return b.String()
}

// List is an error wrapping one or more diagnostics.
type List []Diagnostic

func (l List) Error() string {
	switch len(l) {
	case 0:
		return "no diagnostics"
	case 1:
		return l[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more)", l[0].Error(), len(l)-1)
	}
}

// HasFatal reports whether any diagnostic in the list is fatal.
func (l List) HasFatal() bool {
	for _, d := range l {
		if d.Fatal() {
			return true
		}
	}
	return false
}

// Filter returns the diagnostics with the given code.
func (l List) Filter(code Code) List {
	var out List
	for _, d := range l {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

// Log writes every diagnostic to logger, fatal ones at error level.
func (l List) Log(logger *slog.Logger) {
	for _, d := range l {
		level := slog.LevelWarn
		if d.Fatal() {
			level = slog.LevelError
		}
		logger.Log(context.Background(), level, "diagnostic",
			"code", d.Code,
			"node_id", d.NodeID,
			"message", d.Message,
			"locations", d.Locations,
		)
	}
}

// AsList extracts a diagnostic list from err.
func AsList(err error) (List, bool) {
	if err == nil {
		return nil, false
	}
	var list List
	if errors.As(err, &list) {
		return list, true
	}
	var d Diagnostic
	if errors.As(err, &d) {
		return List{d}, true
	}
	return nil, false
}

// Collector batches diagnostics during a pass.
type Collector struct {
	items List
}

// Add records a diagnostic.
func (c *Collector) Add(d Diagnostic) {
	c.items = append(c.items, d)
}

// Addf builds and records a diagnostic.
func (c *Collector) Addf(code Code, nodeID string, locations []string, format string, args ...any) {
	c.Add(New(code, nodeID, locations, format, args...))
}

// List returns everything collected so far.
func (c *Collector) List() List {
	return c.items
}

// Err returns the collected diagnostics as an error when any of them is
// fatal, and nil otherwise.
func (c *Collector) Err() error {
	if !c.items.HasFatal() {
		return nil
	}
	return c.items
}
