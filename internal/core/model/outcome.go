package model

import (
	"github.com/hashicorp/go-multierror"
)

// Outcome collects everything one mention produced: an optional resolved
// region for the mention itself, the related districts, and the errors of
// the steps that failed.
type Outcome struct {
	Mention Mention
	Region  *RegionEntity
	Related []RelatedRegion
	Errors  []error
}

func (o *Outcome) Fail(err error) {
	if err != nil {
		o.Errors = append(o.Errors, err)
	}
}

// Report is the result of one question.
type Report struct {
	QuestionURI string
	Language    string
	Outcomes    []Outcome
	// Skipped holds errors for rows that never became a Mention.
	Skipped []error

	Written      int
	WriteErrors  []error
	MirrorErrors []error
}

// Records counts the annotations the report asks to be written.
func (r *Report) Records() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Region != nil {
			n++
		}
		n += len(o.Related)
	}
	return n
}

// Err aggregates every non-fatal failure of the run, nil if there was none.
func (r *Report) Err() error {
	var result *multierror.Error
	for _, err := range r.Skipped {
		result = multierror.Append(result, err)
	}
	for _, o := range r.Outcomes {
		for _, err := range o.Errors {
			result = multierror.Append(result, err)
		}
	}
	for _, err := range r.WriteErrors {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}
