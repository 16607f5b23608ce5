package writer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agenthands/districtlinker/internal/core/model"
	"github.com/agenthands/districtlinker/internal/logger"
)

// Writer turns a resolution report into annotations and persists them one
// by one. A failed record is logged and the next one is written anyway.
type Writer struct {
	component    string
	stateType    string
	districtType string
	mirrors      []Sink
	log          *logger.Logger

	UUIDGenerator func() string
	Clock         func() time.Time
}

// NewWriter builds a writer for the named component. Mirrors receive every
// record the primary sink accepted.
func NewWriter(componentName, stateType, districtType string, log *logger.Logger, mirrors ...Sink) *Writer {
	return &Writer{
		component:     ComponentIRI(componentName),
		stateType:     stateType,
		districtType:  districtType,
		mirrors:       mirrors,
		log:           logger.OrNop(log),
		UUIDGenerator: func() string { return uuid.New().String() },
		Clock:         func() time.Time { return time.Now().UTC() },
	}
}

// ComponentIRI is the identity annotations are attributed to.
func ComponentIRI(name string) string {
	return "urn:qanary:" + strings.ReplaceAll(strings.TrimSpace(name), " ", "-")
}

// Annotations builds the records for a report: one per resolved region
// entity, then one per related region, in outcome order.
func (w *Writer) Annotations(report *model.Report) []model.Annotation {
	var out []model.Annotation
	for _, o := range report.Outcomes {
		out = append(out, w.outcomeAnnotations(report.QuestionURI, o)...)
	}
	return out
}

func (w *Writer) outcomeAnnotations(questionURI string, o model.Outcome) []model.Annotation {
	var out []model.Annotation
	if o.Region != nil {
		r := o.Region
		m := r.Mention()
		out = append(out, w.annotation(questionURI, r.Kind(), m.ExternalID, r.SurfaceForm(), r.Key(), m.Score, m.TargetSubstring, r.Direction(), m.AnnotationID))
	}
	for _, rr := range o.Related {
		out = append(out, w.annotation(questionURI, rr.Kind(), rr.ExternalID(), rr.SurfaceForm(), rr.Key(), rr.Score(), rr.TargetSubstring(), rr.Direction(), rr.Source().AnnotationID))
	}
	return out
}

func (w *Writer) annotation(questionURI string, kind model.RegionKind, regionID, label, key string, score float64, target string, rel model.Direction, source string) model.Annotation {
	typeIRI := w.districtType
	if kind == model.State {
		typeIRI = w.stateType
	}
	return model.Annotation{
		ID:          "urn:qanary:annotation:" + w.UUIDGenerator(),
		QuestionURI: questionURI,
		Kind:        kind,
		TypeIRI:     typeIRI,
		RegionID:    regionID,
		Label:       label,
		Key:         key,
		Score:       score,
		Target:      target,
		Relation:    rel,
		Component:   w.component,
		SourceID:    source,
		CreatedAt:   w.Clock(),
	}
}

// Write persists the report's annotations to primary and the mirrors and
// records the results on the report. Cancellation is checked per entity:
// once ctx is done no further entity is started, while the entity being
// written gets all of its records.
func (w *Writer) Write(ctx context.Context, primary Sink, report *model.Report) {
	for _, o := range report.Outcomes {
		if ctx.Err() != nil {
			w.log.Warn("processing cancelled, remaining annotations not written", "question", report.QuestionURI)
			return
		}
		w.writeOutcome(context.WithoutCancel(ctx), primary, report, o)
	}
}

func (w *Writer) writeOutcome(ctx context.Context, primary Sink, report *model.Report, o model.Outcome) {
	for _, a := range w.outcomeAnnotations(report.QuestionURI, o) {
		if err := primary.Save(ctx, a); err != nil {
			err = fmt.Errorf("%w: %s (%s %s): %w", model.ErrWriteFailed, a.ID, a.Kind, a.Key, err)
			w.log.Error("failed to write annotation", "annotation", a.ID, "key", a.Key, "error", err)
			report.WriteErrors = append(report.WriteErrors, err)
			continue
		}
		report.Written++
		w.log.Info("wrote annotation", "annotation", a.ID, "kind", a.Kind.String(), "key", a.Key, "label", a.Label, "relation", string(a.Relation))

		for _, m := range w.mirrors {
			if err := m.Save(ctx, a); err != nil {
				w.log.Warn("failed to mirror annotation", "annotation", a.ID, "error", err)
				report.MirrorErrors = append(report.MirrorErrors, err)
			}
		}
	}
}
