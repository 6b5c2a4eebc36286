package models

// ValidationOutcome carries the ordered error and warning lists produced by
// validating one snapshot. Errors block ingestion; warnings are informational
// and never escalate. Transient, not persisted.
type ValidationOutcome struct {
	Errors   []string
	Warnings []string
}

// AddError appends a hard failure.
func (v *ValidationOutcome) AddError(msg string) {
	v.Errors = append(v.Errors, msg)
}

// AddWarning appends a soft quality flag.
func (v *ValidationOutcome) AddWarning(msg string) {
	v.Warnings = append(v.Warnings, msg)
}

// Valid reports whether the snapshot passed: no errors, warnings allowed.
func (v *ValidationOutcome) Valid() bool {
	return len(v.Errors) == 0
}
