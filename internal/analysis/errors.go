package analysis

import (
	"errors"
	"fmt"
)

// ErrAnalysisNotFound reports an analysis name with no configuration entry.
// Check with errors.Is.
var ErrAnalysisNotFound = errors.New("analysis not found")

// ConfigurationError reports a disabled or structurally invalid analysis
// definition. It is surfaced before any fetch happens.
type ConfigurationError struct {
	Analysis string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("analysis %q: %s", e.Analysis, e.Reason)
}

// NoDataError reports a group whose every fund source failed to fetch. It
// is fatal for that group only; sibling groups in the same run continue.
type NoDataError struct {
	Group string
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("group %q produced no usable records", e.Group)
}
