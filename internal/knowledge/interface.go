package knowledge

import (
	"context"

	"github.com/agenthands/districtlinker/internal/core/model"
)

// KeyLookup is the answer of a key-by-identifier query. Label is empty when
// the graph has no label in the requested language.
type KeyLookup struct {
	Key   string
	Label string
}

// Graph is the read-only view of the external knowledge graph used to
// classify mentions and find the districts around them. Implementations
// must not cache; every call reflects the graph at call time.
type Graph interface {
	IsState(ctx context.Context, id string) (bool, error)
	IsDistrict(ctx context.Context, id string) (bool, error)
	RegionKey(ctx context.Context, id string, kind model.RegionKind, lang string) (KeyLookup, error)
	DistrictAncestors(ctx context.Context, id string, lang string) ([]model.Ancestor, error)
}
