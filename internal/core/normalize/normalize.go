package normalize

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"

	"github.com/agenthands/districtlinker/internal/core/model"
	"github.com/agenthands/districtlinker/internal/sparql"
)

// Normalize turns raw recognizer rows into Mentions. Offsets are code point
// offsets into question. Rows that cannot be normalized are reported as
// ErrMalformedAnnotation and left out; they never stop the other rows.
func Normalize(question string, rows []model.RawMention) ([]model.Mention, []error) {
	runes := []rune(question)
	mentions := make([]model.Mention, 0, len(rows))
	var errs []error

	for _, row := range rows {
		m, err := normalizeRow(runes, row)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		mentions = append(mentions, m)
	}
	return mentions, errs
}

func normalizeRow(question []rune, row model.RawMention) (model.Mention, error) {
	malformed := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: annotation %s: %s", model.ErrMalformedAnnotation, row.AnnotationID, fmt.Sprintf(format, args...))
	}

	id := strings.TrimSpace(row.ExternalID)
	if id == "" {
		return model.Mention{}, malformed("missing entity identifier")
	}

	start, err := sparql.ParseInteger(literal(row.Start))
	if err != nil {
		return model.Mention{}, malformed("start offset %q is not a number", row.Start)
	}
	end, err := sparql.ParseInteger(literal(row.End))
	if err != nil {
		return model.Mention{}, malformed("end offset %q is not a number", row.End)
	}
	if start < 0 || end > len(question) || start >= end {
		return model.Mention{}, malformed("offsets [%d,%d) out of range for question of length %d", start, end, len(question))
	}

	score, err := cast.ToFloat64E(literal(row.Score))
	if err != nil {
		return model.Mention{}, malformed("score %q is not a number", row.Score)
	}
	if math.IsNaN(score) || score < 0 || score > 1 {
		return model.Mention{}, malformed("score %v outside [0,1]", score)
	}

	return model.Mention{
		AnnotationID:    row.AnnotationID,
		ExternalID:      id,
		TargetSubstring: string(question[start:end]),
		Score:           score,
		Start:           start,
		End:             end,
	}, nil
}

// literal strips a "^^datatype" suffix some stores leave on typed values.
func literal(s string) string {
	if i := strings.Index(s, "^^"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(strings.Trim(s, `"`))
}
