package service

import (
	"fmt"
	"strings"
)

// PartialError reports a fan-out operation that updated some but not all
// of its target documents. It is distinct from total success and total
// failure so callers can reconcile or retry the remainder; it must never
// be silently swallowed.
type PartialError struct {
	Op        string
	FailedIDs []string
	Errs      []error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("%s partially failed for %d document(s): %s",
		e.Op, len(e.FailedIDs), strings.Join(e.FailedIDs, ", "))
}

// record adds one failed document to the error
func (e *PartialError) record(id string, err error) {
	e.FailedIDs = append(e.FailedIDs, id)
	e.Errs = append(e.Errs, err)
}

// orNil returns the error when anything failed, nil otherwise
func (e *PartialError) orNil() error {
	if len(e.FailedIDs) == 0 {
		return nil
	}
	return e
}
