package data

import "fmt"

// InsufficientDataError reports that a fetch produced fewer usable bars than
// the run requires. It is fatal to the run that requested the data and is
// never retried.
type InsufficientDataError struct {
	Symbol string
	Reason string
	Err    error
}

func (e *InsufficientDataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("insufficient data for %s: %s: %v", e.Symbol, e.Reason, e.Err)
	}
	return fmt.Sprintf("insufficient data for %s: %s", e.Symbol, e.Reason)
}

func (e *InsufficientDataError) Unwrap() error { return e.Err }

// DataQualityError describes a single malformed bar found during validation.
// Individual quality errors are downgraded to warnings and the offending bar
// is skipped; only when no valid bars remain does the fetch escalate to
// InsufficientDataError.
type DataQualityError struct {
	Symbol string
	Detail string
}

func (e *DataQualityError) Error() string {
	return fmt.Sprintf("data quality: %s: %s", e.Symbol, e.Detail)
}
