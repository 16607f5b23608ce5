package model

import (
	"fmt"
	"strings"
)

type RegionKind int

const (
	Unclassified RegionKind = iota
	State
	District
)

func (k RegionKind) String() string {
	switch k {
	case State:
		return "STATE"
	case District:
		return "DISTRICT"
	default:
		return "UNCLASSIFIED"
	}
}

// Direction states how a reported region relates to the mention.
type Direction string

const (
	Contains  Direction = "containing"
	LocatedIn Direction = "located_in"
)

// RegionEntity is a mention that denotes an administrative region itself and
// whose regional key was resolved. It can only be built through
// NewRegionEntity, so a key never exists without a classification.
type RegionEntity struct {
	mention Mention
	kind    RegionKind
	key     string
	label   string
}

func NewRegionEntity(m Mention, kind RegionKind, key, label string) (RegionEntity, error) {
	if kind != State && kind != District {
		return RegionEntity{}, fmt.Errorf("region entity %s: kind %s cannot carry a key", m.ExternalID, kind)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return RegionEntity{}, fmt.Errorf("region entity %s: empty regional key", m.ExternalID)
	}
	return RegionEntity{mention: m, kind: kind, key: key, label: strings.TrimSpace(label)}, nil
}

func (r RegionEntity) Mention() Mention     { return r.mention }
func (r RegionEntity) Kind() RegionKind     { return r.kind }
func (r RegionEntity) Key() string          { return r.key }
func (r RegionEntity) Direction() Direction { return Contains }

// SurfaceForm is the label in the question language, or the question
// substring when the graph has no such label.
func (r RegionEntity) SurfaceForm() string {
	if r.label != "" {
		return r.label
	}
	return r.mention.TargetSubstring
}

// Ancestor is one district found above a mention in the located-in
// hierarchy.
type Ancestor struct {
	ExternalID string
	Label      string
	Key        string
}

// RelatedRegion is a district related to a mention through containment.
// Its score and target substring are those of the originating mention.
type RelatedRegion struct {
	source    Mention
	ancestor  Ancestor
	direction Direction
}

func NewRelatedRegion(source Mention, a Ancestor, d Direction) (RelatedRegion, error) {
	if d != Contains && d != LocatedIn {
		return RelatedRegion{}, fmt.Errorf("related region %s: unknown direction %q", a.ExternalID, d)
	}
	if strings.TrimSpace(a.Key) == "" {
		return RelatedRegion{}, fmt.Errorf("related region %s: empty district key", a.ExternalID)
	}
	a.Key = strings.TrimSpace(a.Key)
	a.Label = strings.TrimSpace(a.Label)
	return RelatedRegion{source: source, ancestor: a, direction: d}, nil
}

func (r RelatedRegion) Source() Mention      { return r.source }
func (r RelatedRegion) ExternalID() string   { return r.ancestor.ExternalID }
func (r RelatedRegion) Kind() RegionKind     { return District }
func (r RelatedRegion) Key() string          { return r.ancestor.Key }
func (r RelatedRegion) Direction() Direction { return r.direction }
func (r RelatedRegion) Score() float64       { return r.source.Score }

func (r RelatedRegion) TargetSubstring() string {
	return r.source.TargetSubstring
}

// SurfaceForm is the district label, or its identifier when unlabelled.
func (r RelatedRegion) SurfaceForm() string {
	if r.ancestor.Label != "" {
		return r.ancestor.Label
	}
	return r.ancestor.ExternalID
}
