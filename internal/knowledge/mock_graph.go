package knowledge

import (
	"context"
	"sync"

	"github.com/agenthands/districtlinker/internal/core/model"
)

// MockRegion describes what MockGraph knows about one identifier.
type MockRegion struct {
	State     bool
	District  bool
	Key       string
	Labels    map[string]string
	Ancestors []model.Ancestor

	StateErr    error
	DistrictErr error
	KeyErr      error
	AncestorErr error
}

// MockGraph is an in-memory Graph for tests. It is safe for concurrent use
// and counts the calls made per identifier.
type MockGraph struct {
	Regions map[string]MockRegion

	mu    sync.Mutex
	Calls map[string][]string
}

func NewMockGraph(regions map[string]MockRegion) *MockGraph {
	return &MockGraph{Regions: regions, Calls: make(map[string][]string)}
}

func (m *MockGraph) record(id, call string) MockRegion {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Calls == nil {
		m.Calls = make(map[string][]string)
	}
	m.Calls[id] = append(m.Calls[id], call)
	return m.Regions[id]
}

// CallsFor returns a copy of the calls made for id, in order.
func (m *MockGraph) CallsFor(id string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Calls[id]...)
}

func (m *MockGraph) IsState(ctx context.Context, id string) (bool, error) {
	r := m.record(id, "state")
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return r.State, r.StateErr
}

func (m *MockGraph) IsDistrict(ctx context.Context, id string) (bool, error) {
	r := m.record(id, "district")
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return r.District, r.DistrictErr
}

func (m *MockGraph) RegionKey(ctx context.Context, id string, kind model.RegionKind, lang string) (KeyLookup, error) {
	r := m.record(id, "key")
	if err := ctx.Err(); err != nil {
		return KeyLookup{}, err
	}
	if r.KeyErr != nil {
		return KeyLookup{}, r.KeyErr
	}
	return KeyLookup{Key: r.Key, Label: r.Labels[lang]}, nil
}

func (m *MockGraph) DistrictAncestors(ctx context.Context, id string, lang string) ([]model.Ancestor, error) {
	r := m.record(id, "ancestors")
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.AncestorErr != nil {
		return nil, r.AncestorErr
	}
	return append([]model.Ancestor(nil), r.Ancestors...), nil
}
