package qanary

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/agenthands/districtlinker/internal/sparql"
)

// MockStore is an in-memory annotation store for tests. Select answers the
// language and named-entity queries by recognizing their shape.
type MockStore struct {
	Msg          Message
	Question     string
	Text         string
	Language     string
	LanguageErr  error
	EntityRows   []sparql.Binding
	EntityErr    error
	QuestionErr  error
	UpdateErrFor func(update string) error

	mu      sync.Mutex
	Updates []string
	Queries []string
}

func (m *MockStore) Message() Message { return m.Msg }

func (m *MockStore) Select(ctx context.Context, query string) (*sparql.Results, error) {
	m.mu.Lock()
	m.Queries = append(m.Queries, query)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := &sparql.Results{}
	switch {
	case strings.Contains(query, "AnnotationOfQuestionLanguage"):
		if m.LanguageErr != nil {
			return nil, m.LanguageErr
		}
		if m.Language != "" {
			res.Results.Bindings = []sparql.Binding{{"language": {Type: "literal", Value: m.Language}}}
		}
	case strings.Contains(query, "TextPositionSelector"):
		if m.EntityErr != nil {
			return nil, m.EntityErr
		}
		res.Results.Bindings = m.EntityRows
	default:
		return nil, errors.New("mock store: unexpected query")
	}
	return res, nil
}

func (m *MockStore) Update(ctx context.Context, update string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.UpdateErrFor != nil {
		if err := m.UpdateErrFor(update); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Updates = append(m.Updates, update)
	return nil
}

func (m *MockStore) QuestionURI(ctx context.Context) (string, error) {
	if m.QuestionErr != nil {
		return "", m.QuestionErr
	}
	return m.Question, nil
}

func (m *MockStore) QuestionText(ctx context.Context, questionURI string) (string, error) {
	if m.QuestionErr != nil {
		return "", m.QuestionErr
	}
	return m.Text, nil
}

// Written returns a copy of the updates received so far.
func (m *MockStore) Written() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Updates...)
}
