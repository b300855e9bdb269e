package maintenance

import (
	"fmt"
	"strings"

	"github.com/Rana718/dbkeeper/internal/apperrors"
)

// Kind is the mutation a runner applies to every target table.
type Kind int

const (
	Drop Kind = iota
	Truncate
)

func (k Kind) String() string {
	if k == Truncate {
		return "truncate"
	}
	return "drop"
}

// Past is the verb used in per-table status lines.
func (k Kind) Past() string {
	if k == Truncate {
		return "Truncated"
	}
	return "Dropped"
}

func (k Kind) Gerund() string {
	if k == Truncate {
		return "Truncating"
	}
	return "Dropping"
}

const maxReportedErrors = 5

type TableResult struct {
	Table string
	Err   error
}

// Outcome aggregates per-table results of one runner invocation.
type Outcome struct {
	Kind       Kind
	Connection string
	Planned    int
	Results    []TableResult
	// Bracketed is set once integrity checks were suspended for the batch.
	Bracketed bool
}

func (o *Outcome) record(table string, err error) {
	o.Results = append(o.Results, TableResult{Table: table, Err: err})
}

func (o *Outcome) Succeeded() int {
	n := 0
	for _, r := range o.Results {
		if r.Err == nil {
			n++
		}
	}
	return n
}

func (o *Outcome) Failed() int {
	return len(o.Results) - o.Succeeded()
}

// Skipped counts planned tables that were never attempted.
func (o *Outcome) Skipped() int {
	return o.Planned - len(o.Results)
}

// Failures returns up to n failed results in execution order.
func (o *Outcome) Failures(n int) []TableResult {
	var failures []TableResult
	for _, r := range o.Results {
		if r.Err != nil {
			failures = append(failures, r)
			if len(failures) == n {
				break
			}
		}
	}
	return failures
}

// Err folds per-table failures into a single MutationFailure, or nil.
func (o *Outcome) Err() error {
	failed := o.Failed()
	if failed == 0 {
		return nil
	}

	parts := make([]string, 0, maxReportedErrors)
	for _, f := range o.Failures(maxReportedErrors) {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Table, f.Err))
	}
	if failed > maxReportedErrors {
		parts = append(parts, fmt.Sprintf("and %d more", failed-maxReportedErrors))
	}

	return apperrors.New(apperrors.KindMutation, o.Kind.String(),
		fmt.Sprintf("%d of %d tables failed on %s (%s)", failed, len(o.Results), o.Connection, strings.Join(parts, "; "))).
		WithDetail("failed", failed).
		WithDetail("succeeded", o.Succeeded())
}
