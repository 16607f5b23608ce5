package writer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/districtlinker/internal/core/model"
	"github.com/agenthands/districtlinker/internal/driver"
	"github.com/agenthands/districtlinker/internal/qanary"
	"github.com/agenthands/districtlinker/internal/sparql"
)

// Sink persists one annotation.
type Sink interface {
	Save(ctx context.Context, a model.Annotation) error
}

// Updater is the write side of the annotation store.
type Updater interface {
	Update(ctx context.Context, update string) error
}

// TriplestoreSink writes annotations into a graph of the shared store.
type TriplestoreSink struct {
	store Updater
	graph string
}

func NewTriplestoreSink(store Updater, graph string) *TriplestoreSink {
	return &TriplestoreSink{store: store, graph: graph}
}

func (s *TriplestoreSink) Save(ctx context.Context, a model.Annotation) error {
	update, err := InsertQuery(s.graph, a)
	if err != nil {
		return err
	}
	return s.store.Update(ctx, update)
}

// InsertQuery renders a as a qa:AnnotationOfInstanceLocation in graph.
func InsertQuery(graph string, a model.Annotation) (string, error) {
	graphIRI, err := sparql.IRI(graph)
	if err != nil {
		return "", fmt.Errorf("graph: %w", err)
	}
	id, err := sparql.IRI(a.ID)
	if err != nil {
		return "", fmt.Errorf("annotation id: %w", err)
	}
	typeIRI, err := sparql.IRI(a.TypeIRI)
	if err != nil {
		return "", fmt.Errorf("region type: %w", err)
	}
	component, err := sparql.IRI(a.Component)
	if err != nil {
		return "", fmt.Errorf("component: %w", err)
	}

	var b strings.Builder
	b.WriteString(qanary.Prefixes)
	b.WriteString("PREFIX prov: <http://www.w3.org/ns/prov#>\n")
	fmt.Fprintf(&b, "INSERT DATA {\n  GRAPH %s {\n", graphIRI)
	fmt.Fprintf(&b, "    %s a qa:AnnotationOfInstanceLocation ;\n", id)
	b.WriteString("      oa:hasBody _:body ;\n")
	b.WriteString("      oa:hasTarget _:target ;\n")
	fmt.Fprintf(&b, "      qa:hasConfidence %s ;\n", sparql.TypedLiteral(strconv.FormatFloat(a.Score, 'f', -1, 64), sparql.XSDFloat))
	fmt.Fprintf(&b, "      oa:annotatedBy %s ;\n", component)
	fmt.Fprintf(&b, "      oa:annotatedAt %s .\n", sparql.TypedLiteral(a.CreatedAt.UTC().Format(time.RFC3339Nano), sparql.XSDDateTime))
	if source, err := sparql.IRI(a.SourceID); err == nil {
		fmt.Fprintf(&b, "    %s prov:wasDerivedFrom %s .\n", id, source)
	}
	fmt.Fprintf(&b, "    _:body dbo:type %s ;\n", typeIRI)
	fmt.Fprintf(&b, "      rdfs:label %s ;\n", sparql.TypedLiteral(a.Label, sparql.XSDString))
	fmt.Fprintf(&b, "      qa:hasID %s .\n", sparql.TypedLiteral(a.Key, sparql.XSDString))
	fmt.Fprintf(&b, "    _:target rdfs:label %s ;\n", sparql.TypedLiteral(a.Target, sparql.XSDString))
	if question, err := sparql.IRI(a.QuestionURI); err == nil {
		fmt.Fprintf(&b, "      oa:hasSource %s ;\n", question)
	}
	fmt.Fprintf(&b, "      qa:targetRelation %s .\n", sparql.TypedLiteral(string(a.Relation), sparql.XSDString))
	b.WriteString("  }\n}\n")
	return b.String(), nil
}

// MirrorSink copies annotations into a property graph.
type MirrorSink struct {
	driver driver.GraphDriver
}

func NewMirrorSink(d driver.GraphDriver) *MirrorSink {
	return &MirrorSink{driver: d}
}

func (s *MirrorSink) Save(ctx context.Context, a model.Annotation) error {
	params := map[string]interface{}{
		"uuid":              a.ID,
		"question_uri":      a.QuestionURI,
		"key":               a.Key,
		"kind":              a.Kind.String(),
		"label":             a.Label,
		"region_id":         a.RegionID,
		"type":              a.TypeIRI,
		"score":             a.Score,
		"target":            a.Target,
		"relation":          string(a.Relation),
		"component":         a.Component,
		"source_annotation": a.SourceID,
		"created_at":        a.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	_, err := s.driver.ExecuteQuery(ctx, driver.SaveRegionAnnotationQuery, params)
	return err
}

// MirroredRegion is one region the mirror holds for a question.
type MirroredRegion struct {
	Key      string `json:"key"`
	Kind     string `json:"kind"`
	Label    string `json:"label"`
	Relation string `json:"relation"`
	Target   string `json:"target"`
}

// QuestionRegions lists the regions mirrored for a question.
func (s *MirrorSink) QuestionRegions(ctx context.Context, questionURI string) ([]MirroredRegion, error) {
	res, err := s.driver.ExecuteQuery(ctx, driver.GetQuestionRegionsQuery, map[string]interface{}{"question_uri": questionURI})
	if err != nil {
		return nil, err
	}
	regions := make([]MirroredRegion, 0, len(res.Records))
	for _, rec := range res.Records {
		regions = append(regions, MirroredRegion{
			Key:      recordString(rec, "key"),
			Kind:     recordString(rec, "kind"),
			Label:    recordString(rec, "label"),
			Relation: recordString(rec, "relation"),
			Target:   recordString(rec, "target"),
		})
	}
	return regions, nil
}

func recordString(rec *neo4j.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
