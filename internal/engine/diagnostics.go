package engine

import (
	"fmt"
)

// DiagnosticKind classifies a per-record problem found during a pass.
type DiagnosticKind int

// Diagnostic kinds.
const (
	// DiagnosticMalformedOperation marks an operation whose stored fields could not be decoded.
	DiagnosticMalformedOperation DiagnosticKind = iota + 1
	// DiagnosticInvalidPattern marks a tag rule whose regex does not compile.
	DiagnosticInvalidPattern
)

func (k DiagnosticKind) String() string {
	switch k {
	case DiagnosticMalformedOperation:
		return "malformed_operation"
	case DiagnosticInvalidPattern:
		return "invalid_pattern"
	default:
		return "unknown"
	}
}

// Diagnostic reports a record that was skipped. Skipping never aborts a pass.
type Diagnostic struct {
	Err         error
	Kind        DiagnosticKind
	OperationID int64
	RuleID      int64
}

func (d Diagnostic) String() string {
	switch d.Kind {
	case DiagnosticMalformedOperation:
		return fmt.Sprintf("operation %d skipped: %v", d.OperationID, d.Err)
	case DiagnosticInvalidPattern:
		return fmt.Sprintf("tag rule %d ignored: %v", d.RuleID, d.Err)
	default:
		return fmt.Sprintf("%s: %v", d.Kind, d.Err)
	}
}

// Report is the outcome of one pass of a single maintenance step.
type Report struct {
	Diagnostics []Diagnostic
	Count       int
}
