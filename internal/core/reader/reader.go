package reader

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthands/districtlinker/internal/core/model"
	"github.com/agenthands/districtlinker/internal/logger"
	"github.com/agenthands/districtlinker/internal/qanary"
	"github.com/agenthands/districtlinker/internal/sparql"
)

const (
	// args: in-graph IRI
	languageQuery = qanary.Prefixes + `
		SELECT ?language
		FROM %s
		WHERE {
			?annotation a qa:AnnotationOfQuestionLanguage .
			?annotation oa:hasBody ?language .
		}
		LIMIT 1
	`

	// args: in-graph IRI, question IRI
	namedEntitiesQuery = qanary.Prefixes + `
		SELECT ?annotation ?resource ?score ?start ?end
		FROM %s
		WHERE {
			?annotation oa:hasBody ?resource .
			?annotation qa:score ?score .
			?annotation oa:hasTarget ?target .
			?target oa:hasSource %s .
			?target oa:hasSelector ?selector .
			?selector rdf:type oa:TextPositionSelector .
			?selector oa:start ?start .
			?selector oa:end ?end .
			FILTER(isIRI(?resource))
		}
	`
)

// Store is the read side of the annotation store.
type Store interface {
	Message() qanary.Message
	Select(ctx context.Context, query string) (*sparql.Results, error)
	QuestionURI(ctx context.Context) (string, error)
	QuestionText(ctx context.Context, questionURI string) (string, error)
}

// Input is everything the resolver needs about one question.
type Input struct {
	QuestionURI string
	Question    string
	Language    string
	Rows        []model.RawMention
}

type Reader struct {
	defaultLanguage string
	log             *logger.Logger
}

func NewReader(defaultLanguage string, log *logger.Logger) *Reader {
	return &Reader{defaultLanguage: defaultLanguage, log: logger.OrNop(log)}
}

// Read loads the question, its detected language and the recognized
// entities. Only a missing question or a failed entity query is an error;
// an unknown language falls back to the default.
func (r *Reader) Read(ctx context.Context, store Store) (Input, error) {
	graph, err := sparql.IRI(store.Message().InGraph())
	if err != nil {
		return Input{}, err
	}

	questionURI, err := store.QuestionURI(ctx)
	if err != nil {
		return Input{}, err
	}
	question, err := store.QuestionText(ctx, questionURI)
	if err != nil {
		return Input{}, err
	}
	questionIRI, err := sparql.IRI(questionURI)
	if err != nil {
		return Input{}, err
	}

	in := Input{
		QuestionURI: questionURI,
		Question:    question,
		Language:    r.language(ctx, store, graph),
	}

	res, err := store.Select(ctx, fmt.Sprintf(namedEntitiesQuery, graph, questionIRI))
	if err != nil {
		return Input{}, fmt.Errorf("failed to read named entities: %w", err)
	}
	for _, row := range res.Bindings() {
		in.Rows = append(in.Rows, model.RawMention{
			AnnotationID: row.Value("annotation"),
			ExternalID:   row.Value("resource"),
			Score:        row.Value("score"),
			Start:        row.Value("start"),
			End:          row.Value("end"),
		})
	}
	r.log.Info("read question", "question", questionURI, "language", in.Language, "entities", len(in.Rows))
	return in, nil
}

func (r *Reader) language(ctx context.Context, store Store, graph string) string {
	res, err := store.Select(ctx, fmt.Sprintf(languageQuery, graph))
	if err != nil {
		r.log.Warn("could not read question language, using default", "default", r.defaultLanguage, "error", err)
		return r.defaultLanguage
	}
	for _, row := range res.Bindings() {
		if lang := strings.TrimSpace(row["language"].Lexical()); lang != "" {
			return strings.ToLower(lang)
		}
	}
	r.log.Info("no language annotated, using default", "default", r.defaultLanguage)
	return r.defaultLanguage
}
