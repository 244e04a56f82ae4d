package reconcile

import "fmt"

// LossClass represents the fidelity level of a generation.
type LossClass string

// Loss class constants, from most to least fidelity.
const (
	// LossL0 indicates nothing was adjusted.
	LossL0 LossClass = "L0"

	// LossL1 indicates cosmetic adjustment only (clamped levels, padded cells).
	LossL1 LossClass = "L1"

	// LossL2 indicates constructs were degraded to a simpler variant.
	LossL2 LossClass = "L2"

	// LossL3 indicates content was dropped.
	LossL3 LossClass = "L3"
)

// Level returns the numeric level (0-3) of the loss class.
func (l LossClass) Level() int {
	switch l {
	case LossL0, "":
		return 0
	case LossL1:
		return 1
	case LossL2:
		return 2
	case LossL3:
		return 3
	default:
		return -1
	}
}

// DiagnosticKind classifies a reconciliation event.
type DiagnosticKind string

// Diagnostic kinds.
const (
	Clamped   DiagnosticKind = "clamped"
	Padded    DiagnosticKind = "padded"
	Degraded  DiagnosticKind = "degraded"
	Truncated DiagnosticKind = "truncated"
	Dropped   DiagnosticKind = "dropped"
)

func (k DiagnosticKind) class() LossClass {
	switch k {
	case Clamped, Padded:
		return LossL1
	case Degraded:
		return LossL2
	default:
		return LossL3
	}
}

// Diagnostic describes one adjustment made while generating.
type Diagnostic struct {
	Kind   DiagnosticKind `json:"kind"`
	Path   string         `json:"path"`
	Detail string         `json:"detail"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s: %s", d.Kind, d.Path, d.Detail)
}

// Report collects the diagnostics of a single generate call.
// A nil *Report discards everything added to it.
type Report struct {
	SourceFormat string       `json:"source_format,omitempty"`
	TargetFormat string       `json:"target_format"`
	Class        LossClass    `json:"loss_class"`
	Diagnostics  []Diagnostic `json:"diagnostics,omitempty"`
}

// NewReport starts an empty report for the target format.
func NewReport(target string) *Report {
	return &Report{TargetFormat: target, Class: LossL0}
}

// Add records a diagnostic and raises the loss class if needed.
func (r *Report) Add(kind DiagnosticKind, path, detail string) {
	if r == nil {
		return
	}
	r.Diagnostics = append(r.Diagnostics, Diagnostic{Kind: kind, Path: path, Detail: detail})
	if c := kind.class(); c.Level() > r.Class.Level() {
		r.Class = c
	}
}

// Addf records a diagnostic with a formatted detail.
func (r *Report) Addf(kind DiagnosticKind, path, format string, args ...interface{}) {
	if r == nil {
		return
	}
	r.Add(kind, path, fmt.Sprintf(format, args...))
}

// HasLoss returns true if anything was adjusted.
func (r *Report) HasLoss() bool {
	return r != nil && len(r.Diagnostics) > 0
}

// Count returns the number of diagnostics of the given kind.
func (r *Report) Count(kind DiagnosticKind) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, d := range r.Diagnostics {
		if d.Kind == kind {
			n++
		}
	}
	return n
}
