package containment

import (
	"context"
	"fmt"

	"github.com/agenthands/districtlinker/internal/core/model"
	"github.com/agenthands/districtlinker/internal/knowledge"
	"github.com/agenthands/districtlinker/internal/logger"
)

// Resolver finds the districts a mention is located in.
type Resolver struct {
	graph knowledge.Graph
	log   *logger.Logger
}

func NewResolver(graph knowledge.Graph, log *logger.Logger) *Resolver {
	return &Resolver{graph: graph, log: logger.OrNop(log)}
}

// Resolve returns one RelatedRegion per distinct district ancestor of the
// mention. The ancestor list carries no nesting order, so the direction is
// chosen by count: a single district is reported as containing the mention,
// several are all reported as located_in.
func (r *Resolver) Resolve(ctx context.Context, m model.Mention, lang string) ([]model.RelatedRegion, error) {
	ancestors, err := r.graph.DistrictAncestors(ctx, m.ExternalID, lang)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", model.ErrContainmentQueryFailed, m.ExternalID, err)
	}

	ancestors = dedupe(ancestors)
	if len(ancestors) == 0 {
		return nil, nil
	}

	direction := model.LocatedIn
	if len(ancestors) == 1 {
		direction = model.Contains
	}

	related := make([]model.RelatedRegion, 0, len(ancestors))
	for _, a := range ancestors {
		rr, err := model.NewRelatedRegion(m, a, direction)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", model.ErrContainmentQueryFailed, err)
		}
		related = append(related, rr)
	}
	r.log.Info("found related districts", "entity", m.ExternalID, "count", len(related), "direction", string(direction))
	return related, nil
}

// dedupe keeps the first occurrence of every district and drops rows that
// came back without a key.
func dedupe(in []model.Ancestor) []model.Ancestor {
	seen := make(map[string]bool, len(in))
	out := make([]model.Ancestor, 0, len(in))
	for _, a := range in {
		if a.ExternalID == "" || a.Key == "" || seen[a.ExternalID] {
			continue
		}
		seen[a.ExternalID] = true
		out = append(out, a)
	}
	return out
}
