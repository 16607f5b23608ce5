package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/districtlinker/internal/config"
	"github.com/agenthands/districtlinker/internal/core/model"
	"github.com/agenthands/districtlinker/internal/core/reader"
	"github.com/agenthands/districtlinker/internal/knowledge"
	"github.com/agenthands/districtlinker/internal/qanary"
	"github.com/agenthands/districtlinker/internal/sparql"
)

const (
	wd        = "http://www.wikidata.org/entity/"
	bw        = wd + "Q985"
	esslingen = wd + "Q3786"
	ulm       = wd + "Q3012"
	stuttgart = wd + "Q1022"
)

func lit(v string) sparql.Term { return sparql.Term{Type: "literal", Value: v} }
func uri(v string) sparql.Term { return sparql.Term{Type: "uri", Value: v} }

// entityRow locates target in question and returns the recognizer row for it.
func entityRow(t *testing.T, question, id, target, score string) sparql.Binding {
	t.Helper()
	byteIdx := strings.Index(question, target)
	require.GreaterOrEqual(t, byteIdx, 0, "target %q not in question", target)
	start := len([]rune(question[:byteIdx]))
	end := start + len([]rune(target))
	return sparql.Binding{
		"annotation": uri("urn:ner:" + target),
		"resource":   uri(id),
		"score":      lit(score),
		"start":      lit(fmt.Sprint(start)),
		"end":        lit(fmt.Sprint(end)),
	}
}

func newStore(question string, rows ...sparql.Binding) *qanary.MockStore {
	return &qanary.MockStore{
		Msg:        qanary.NewMessage("http://qanary/sparql", "urn:graph:in", "urn:graph:out"),
		Question:   "http://qanary/question/1",
		Text:       question,
		Language:   "de",
		EntityRows: rows,
	}
}

func newTestResolver(graph knowledge.Graph) *Resolver {
	r := NewResolver(graph, config.Default(), nil)
	n := 0
	r.Writer.UUIDGenerator = func() string {
		n++
		return fmt.Sprintf("uuid-%d", n)
	}
	r.Writer.Clock = func() time.Time { return time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC) }
	return r
}

func updatesContaining(updates []string, needle string) []string {
	var out []string
	for _, u := range updates {
		if strings.Contains(u, needle) {
			out = append(out, u)
		}
	}
	return out
}

// A: a federal state is written as STATE with its key and "containing".
func TestProcess_FederalState(t *testing.T) {
	q := "Wie viele Einwohner hat Baden-Württemberg?"
	store := newStore(q, entityRow(t, q, bw, "Baden-Württemberg", "0.9"))
	graph := knowledge.NewMockGraph(map[string]knowledge.MockRegion{
		bw: {State: true, Key: "08", Labels: map[string]string{"de": "Baden-Württemberg"}},
	})

	report, err := newTestResolver(graph).Process(context.Background(), store)
	require.NoError(t, err)
	require.NoError(t, report.Err())

	require.Len(t, report.Outcomes, 1)
	region := report.Outcomes[0].Region
	require.NotNil(t, region)
	assert.Equal(t, model.State, region.Kind())
	assert.Equal(t, "08", region.Key())

	written := store.Written()
	require.Len(t, written, 1)
	assert.Contains(t, written[0], "GRAPH <urn:graph:out>")
	assert.Contains(t, written[0], "<http://dbpedia.org/resource/States_of_Germany>")
	assert.Contains(t, written[0], `qa:hasID "08"`)
	assert.Contains(t, written[0], `rdfs:label "Baden-Württemberg"`)
	assert.Contains(t, written[0], `qa:targetRelation "containing"`)
	assert.Equal(t, 1, report.Written)
}

// B: a city in three districts yields three located_in records.
func TestProcess_ThreeAncestorsLocatedIn(t *testing.T) {
	q := "Wie groß ist Stuttgart?"
	store := newStore(q, entityRow(t, q, stuttgart, "Stuttgart", "0.7"))
	graph := knowledge.NewMockGraph(map[string]knowledge.MockRegion{
		stuttgart: {Ancestors: []model.Ancestor{
			{ExternalID: wd + "Q1", Label: "Kreis A", Key: "08101"},
			{ExternalID: wd + "Q2", Label: "Kreis B", Key: "08102"},
			{ExternalID: wd + "Q3", Label: "Kreis C", Key: "08103"},
		}},
	})

	report, err := newTestResolver(graph).Process(context.Background(), store)
	require.NoError(t, err)

	written := store.Written()
	require.Len(t, written, 3)
	for _, u := range written {
		assert.Contains(t, u, `qa:targetRelation "located_in"`)
		assert.Contains(t, u, `_:target rdfs:label "Stuttgart"`)
		assert.Contains(t, u, `"0.7"^^<http://www.w3.org/2001/XMLSchema#float>`)
	}
	assert.Equal(t, 3, report.Written)
}

// C: a city in exactly one district yields one containing record.
func TestProcess_SingleAncestorContains(t *testing.T) {
	q := "Wo liegt Esslingen?"
	store := newStore(q, entityRow(t, q, esslingen, "Esslingen", "0.8"))
	graph := knowledge.NewMockGraph(map[string]knowledge.MockRegion{
		esslingen: {Ancestors: []model.Ancestor{{ExternalID: wd + "Q8178", Label: "Landkreis Esslingen", Key: "08116"}}},
	})

	_, err := newTestResolver(graph).Process(context.Background(), store)
	require.NoError(t, err)

	written := store.Written()
	require.Len(t, written, 1)
	assert.Contains(t, written[0], `qa:targetRelation "containing"`)
	assert.Contains(t, written[0], `rdfs:label "Landkreis Esslingen"`)
	assert.Contains(t, written[0], "<http://dbpedia.org/resource/Districts_of_Germany>")
}

// D: an unclassifiable entity still gets its related districts.
func TestProcess_UnclassifiedStillResolvesContainment(t *testing.T) {
	q := "Wie alt ist das Ulmer Münster in Ulm?"
	store := newStore(q, entityRow(t, q, ulm, "Ulm", "0.5"))
	graph := knowledge.NewMockGraph(map[string]knowledge.MockRegion{
		ulm: {Ancestors: []model.Ancestor{{ExternalID: wd + "Q7974", Label: "Alb-Donau-Kreis", Key: "08425"}}},
	})

	report, err := newTestResolver(graph).Process(context.Background(), store)
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 1)
	assert.Nil(t, report.Outcomes[0].Region)
	assert.Len(t, report.Outcomes[0].Related, 1)
	assert.ElementsMatch(t, []string{"state", "district", "ancestors"}, graph.CallsFor(ulm))

	written := store.Written()
	require.Len(t, written, 1)
	assert.Contains(t, written[0], `qa:hasID "08425"`)
}

// E: a classified state without key is never written.
func TestProcess_MissingKeyDropsEntity(t *testing.T) {
	q := "Wie viele Einwohner hat Baden-Württemberg?"
	store := newStore(q, entityRow(t, q, bw, "Baden-Württemberg", "0.9"))
	graph := knowledge.NewMockGraph(map[string]knowledge.MockRegion{
		bw: {State: true, KeyErr: errors.New("no key")},
	})

	report, err := newTestResolver(graph).Process(context.Background(), store)
	require.NoError(t, err)

	assert.Empty(t, store.Written())
	require.Len(t, report.Outcomes, 1)
	assert.Nil(t, report.Outcomes[0].Region)
	assert.True(t, errors.Is(report.Err(), model.ErrKeyLookupFailed))
}

func TestProcess_PartialFailuresDoNotStopOthers(t *testing.T) {
	q := "Von Esslingen nach Ulm durch Baden-Württemberg"
	store := newStore(q,
		entityRow(t, q, esslingen, "Esslingen", "0.8"),
		entityRow(t, q, ulm, "Ulm", "0.6"),
		entityRow(t, q, bw, "Baden-Württemberg", "0.9"),
		sparql.Binding{"annotation": uri("urn:ner:bad"), "resource": uri(wd + "Q9"), "score": lit("0.1"), "start": lit("x"), "end": lit("2")},
	)
	graph := knowledge.NewMockGraph(map[string]knowledge.MockRegion{
		esslingen: {AncestorErr: errors.New("timeout"), StateErr: errors.New("timeout")},
		ulm:       {Ancestors: []model.Ancestor{{ExternalID: wd + "Q7974", Label: "Alb-Donau-Kreis", Key: "08425"}}},
		bw:        {State: true, Key: "08", Labels: map[string]string{"de": "Baden-Württemberg"}},
	})
	store.UpdateErrFor = func(update string) error {
		if strings.Contains(update, `"08425"`) {
			return errors.New("store rejected")
		}
		return nil
	}

	report, err := newTestResolver(graph).Process(context.Background(), store)
	require.NoError(t, err)

	assert.Len(t, report.Outcomes, 3)
	assert.Len(t, report.Skipped, 1)
	assert.Equal(t, 1, report.Written)
	require.Len(t, store.Written(), 1)
	assert.Len(t, updatesContaining(store.Written(), `qa:hasID "08"`), 1)

	agg := report.Err()
	assert.True(t, errors.Is(agg, model.ErrMalformedAnnotation))
	assert.True(t, errors.Is(agg, model.ErrClassificationQueryFailed))
	assert.True(t, errors.Is(agg, model.ErrContainmentQueryFailed))
	assert.True(t, errors.Is(agg, model.ErrWriteFailed))
}

func TestProcess_UnreadableQuestion(t *testing.T) {
	store := newStore("")
	store.QuestionErr = errors.New("no question in graph")

	_, err := newTestResolver(knowledge.NewMockGraph(nil)).Process(context.Background(), store)
	assert.Error(t, err)
	assert.Empty(t, store.Written())
}

func TestResolve_CancelledWritesNothing(t *testing.T) {
	q := "Wo liegt Esslingen?"
	graph := knowledge.NewMockGraph(map[string]knowledge.MockRegion{
		esslingen: {Ancestors: []model.Ancestor{{ExternalID: wd + "Q8178", Label: "Landkreis Esslingen", Key: "08116"}}},
	})
	r := newTestResolver(graph)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := newStore(q, entityRow(t, q, esslingen, "Esslingen", "0.8"))
	report := r.Resolve(ctx, reader.Input{
		QuestionURI: store.Question,
		Question:    q,
		Language:    "de",
		Rows: []model.RawMention{{
			AnnotationID: "urn:ner:1", ExternalID: esslingen, Score: "0.8", Start: "9", End: "18",
		}},
	})
	assert.Empty(t, report.Outcomes)

	r.Writer.Write(ctx, nil, report)
	assert.Equal(t, 0, report.Written)
}

// No entity ever carries a key without a classification, across the
// possible graph answers.
func TestResolve_KeyOnlyOnClassifiedEntities(t *testing.T) {
	q := "Esslingen"
	answers := []knowledge.MockRegion{
		{},
		{State: true, Key: "08"},
		{District: true, Key: "08116"},
		{State: true},
		{District: true, KeyErr: errors.New("x")},
		{StateErr: errors.New("x"), Key: "99"},
	}
	for i, answer := range answers {
		graph := knowledge.NewMockGraph(map[string]knowledge.MockRegion{esslingen: answer})
		report := newTestResolver(graph).Resolve(context.Background(), reader.Input{
			Question: q,
			Language: "de",
			Rows:     []model.RawMention{{AnnotationID: "a", ExternalID: esslingen, Score: "1", Start: "0", End: "9"}},
		})
		require.Len(t, report.Outcomes, 1, "case %d", i)
		if region := report.Outcomes[0].Region; region != nil {
			assert.NotEqual(t, model.Unclassified, region.Kind(), "case %d", i)
			assert.NotEmpty(t, region.Key(), "case %d", i)
		}
	}
}
