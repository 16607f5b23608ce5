package qanary

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/agenthands/districtlinker/internal/sparql"
)

const (
	Prefixes = `
		PREFIX oa: <http://www.w3.org/ns/openannotation/core/>
		PREFIX qa: <http://www.wdaqua.eu/qa#>
		PREFIX rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#>
		PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>
		PREFIX dbo: <http://dbpedia.org/ontology/>
		PREFIX xsd: <http://www.w3.org/2001/XMLSchema#>
	`

	questionQuery = Prefixes + `
		SELECT DISTINCT ?question
		FROM %s
		WHERE {
			?question rdf:type qa:Question .
		}
	`

	maxQuestionBytes = 64 << 10
)

// Store is the shared annotation store of one pipeline run.
type Store struct {
	msg        Message
	client     *sparql.Client
	httpClient *http.Client
}

func NewStore(msg Message, httpClient *http.Client, opts ...sparql.Option) (*Store, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	opts = append([]sparql.Option{sparql.WithHTTPClient(httpClient)}, opts...)
	return &Store{
		msg:        msg,
		client:     sparql.New(msg.Endpoint(), opts...),
		httpClient: httpClient,
	}, nil
}

func (s *Store) Message() Message { return s.msg }

func (s *Store) Select(ctx context.Context, query string) (*sparql.Results, error) {
	return s.client.Select(ctx, query)
}

func (s *Store) Update(ctx context.Context, update string) error {
	return s.client.Update(ctx, update)
}

// QuestionURI finds the question resource in the in-graph.
func (s *Store) QuestionURI(ctx context.Context) (string, error) {
	graph, err := sparql.IRI(s.msg.InGraph())
	if err != nil {
		return "", err
	}
	res, err := s.Select(ctx, fmt.Sprintf(questionQuery, graph))
	if err != nil {
		return "", fmt.Errorf("failed to query question: %w", err)
	}
	for _, row := range res.Bindings() {
		if uri := row.Value("question"); uri != "" {
			return uri, nil
		}
	}
	return "", fmt.Errorf("no qa:Question in graph %s", s.msg.InGraph())
}

// QuestionText fetches the textual representation of the question, which
// the pipeline serves at <question>/raw. The fetch is bounded by the same
// timeout as the store's queries.
func (s *Store) QuestionText(ctx context.Context, questionURI string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.client.Timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(questionURI, "/")+"/raw", nil)
	if err != nil {
		return "", fmt.Errorf("failed to build question request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch question text: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("question text request returned %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxQuestionBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read question text: %w", err)
	}
	return string(body), nil
}
