package report

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// MalformedRecordError describes a record whose contribution was degraded.
type MalformedRecordError struct {
	RecordID string
	Field    string
	Reason   string
	// Skipped is true when the record was left out of every aggregate.
	// False means it was kept and only bucketed differently (unparseable date).
	Skipped bool
}

func (e *MalformedRecordError) Error() string {
	action := "bucketed"
	if e.Skipped {
		action = "skipped"
	}
	return fmt.Sprintf("record %q %s: %s %s", e.RecordID, action, e.Field, e.Reason)
}

// InvalidBudgetError is returned when a budget limit is not positive.
type InvalidBudgetError struct {
	BudgetID string
	Amount   decimal.Decimal
}

func (e *InvalidBudgetError) Error() string {
	return fmt.Sprintf("budget %q has invalid limit %s: must be greater than zero", e.BudgetID, e.Amount.String())
}

// Issues collects the per-record problems met during one aggregation.
type Issues []*MalformedRecordError

// Err joins the issues into one error, or returns nil when there are none.
func (is Issues) Err() error {
	if len(is) == 0 {
		return nil
	}
	errs := make([]error, len(is))
	for i, e := range is {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// SkippedIDs returns the ids of records excluded from the aggregates.
func (is Issues) SkippedIDs() []string {
	var ids []string
	for _, e := range is {
		if e.Skipped {
			ids = append(ids, e.RecordID)
		}
	}
	return ids
}
