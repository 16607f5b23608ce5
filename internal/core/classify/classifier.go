package classify

import (
	"context"
	"fmt"

	"github.com/agenthands/districtlinker/internal/core/model"
	"github.com/agenthands/districtlinker/internal/knowledge"
	"github.com/agenthands/districtlinker/internal/logger"
)

// Classifier decides whether a mention itself denotes a federal state or a
// district and resolves its regional key.
type Classifier struct {
	graph knowledge.Graph
	log   *logger.Logger
}

func NewClassifier(graph knowledge.Graph, log *logger.Logger) *Classifier {
	return &Classifier{graph: graph, log: logger.OrNop(log)}
}

// Classify returns nil, nil when the mention is neither a state nor a
// district. The state check always runs first and a positive answer fixes
// the kind; the district check only runs after a negative state answer.
//
// Errors wrap ErrClassificationQueryFailed when a membership query failed
// (the mention stays unclassified) and ErrKeyLookupFailed when the mention
// was classified but has no usable key (the mention is dropped).
func (c *Classifier) Classify(ctx context.Context, m model.Mention, lang string) (*model.RegionEntity, error) {
	kind, err := c.kindOf(ctx, m.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", model.ErrClassificationQueryFailed, m.ExternalID, err)
	}
	if kind == model.Unclassified {
		c.log.Debug("entity is no administrative region", "entity", m.ExternalID, "target", m.TargetSubstring)
		return nil, nil
	}

	lookup, err := c.graph.RegionKey(ctx, m.ExternalID, kind, lang)
	if err != nil {
		return nil, fmt.Errorf("%w: %s (%s): %w", model.ErrKeyLookupFailed, m.ExternalID, kind, err)
	}

	region, err := model.NewRegionEntity(m, kind, lookup.Key, lookup.Label)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrKeyLookupFailed, err)
	}
	if lookup.Label == "" {
		c.log.Debug("no label in question language, using question text", "entity", m.ExternalID, "lang", lang)
	}
	c.log.Info("classified entity", "entity", m.ExternalID, "kind", kind.String(), "key", region.Key())
	return &region, nil
}

func (c *Classifier) kindOf(ctx context.Context, id string) (model.RegionKind, error) {
	isState, err := c.graph.IsState(ctx, id)
	if err != nil {
		return model.Unclassified, fmt.Errorf("state membership: %w", err)
	}
	if isState {
		return model.State, nil
	}

	isDistrict, err := c.graph.IsDistrict(ctx, id)
	if err != nil {
		return model.Unclassified, fmt.Errorf("district membership: %w", err)
	}
	if isDistrict {
		return model.District, nil
	}
	return model.Unclassified, nil
}
