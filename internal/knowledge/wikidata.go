package knowledge

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/agenthands/districtlinker/internal/config"
	"github.com/agenthands/districtlinker/internal/core/model"
	"github.com/agenthands/districtlinker/internal/sparql"
)

// Querier is the part of the SPARQL client Wikidata needs.
type Querier interface {
	Select(ctx context.Context, query string) (*sparql.Results, error)
	Ask(ctx context.Context, query string) (bool, error)
}

var (
	itemPattern     = regexp.MustCompile(`^Q[0-9]+$`)
	propertyPattern = regexp.MustCompile(`^P[0-9]+$`)
)

// Wikidata answers region questions against a Wikidata SPARQL endpoint.
type Wikidata struct {
	q                   Querier
	stateConcepts       string
	districtConcepts    string
	stateKeyProperty    string
	districtKeyProperty string
	locatedInProperty   string
}

func NewWikidata(q Querier, cfg config.RegionConfig) (*Wikidata, error) {
	states, err := conceptValues(cfg.StateConcepts)
	if err != nil {
		return nil, fmt.Errorf("state concepts: %w", err)
	}
	districts, err := conceptValues(cfg.DistrictConcepts)
	if err != nil {
		return nil, fmt.Errorf("district concepts: %w", err)
	}
	for _, p := range []string{cfg.StateKeyProperty, cfg.DistrictKeyProperty, cfg.LocatedInProperty} {
		if !propertyPattern.MatchString(p) {
			return nil, fmt.Errorf("invalid wikidata property %q", p)
		}
	}
	return &Wikidata{
		q:                   q,
		stateConcepts:       states,
		districtConcepts:    districts,
		stateKeyProperty:    cfg.StateKeyProperty,
		districtKeyProperty: cfg.DistrictKeyProperty,
		locatedInProperty:   cfg.LocatedInProperty,
	}, nil
}

func conceptValues(ids []string) (string, error) {
	if len(ids) == 0 {
		return "", fmt.Errorf("no concepts configured")
	}
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		if !itemPattern.MatchString(id) {
			return "", fmt.Errorf("invalid wikidata item %q", id)
		}
		parts = append(parts, "wd:"+id)
	}
	return strings.Join(parts, " "), nil
}

func (w *Wikidata) IsState(ctx context.Context, id string) (bool, error) {
	return w.isInstanceOf(ctx, id, w.stateConcepts)
}

func (w *Wikidata) IsDistrict(ctx context.Context, id string) (bool, error) {
	return w.isInstanceOf(ctx, id, w.districtConcepts)
}

func (w *Wikidata) isInstanceOf(ctx context.Context, id, concepts string) (bool, error) {
	iri, err := sparql.IRI(id)
	if err != nil {
		return false, err
	}
	return w.q.Ask(ctx, fmt.Sprintf(instanceOfQuery, iri, concepts))
}

// RegionKey fetches the regional key of id and, in the same query, its label
// in lang. A missing key is an error; a missing label is not.
func (w *Wikidata) RegionKey(ctx context.Context, id string, kind model.RegionKind, lang string) (KeyLookup, error) {
	iri, err := sparql.IRI(id)
	if err != nil {
		return KeyLookup{}, err
	}

	var property string
	switch kind {
	case model.State:
		property = w.stateKeyProperty
	case model.District:
		property = w.districtKeyProperty
	default:
		return KeyLookup{}, fmt.Errorf("no key property for kind %s", kind)
	}

	res, err := w.q.Select(ctx, fmt.Sprintf(regionKeyQuery, iri, property, sparql.Literal(lang)))
	if err != nil {
		return KeyLookup{}, err
	}
	for _, row := range res.Bindings() {
		key := strings.TrimSpace(row.Value("key"))
		if key == "" {
			continue
		}
		return KeyLookup{Key: key, Label: row.Value("label")}, nil
	}
	return KeyLookup{}, fmt.Errorf("no %s for %s", property, id)
}

// DistrictAncestors returns the districts id is transitively located in,
// each once, in the order the endpoint returned them.
func (w *Wikidata) DistrictAncestors(ctx context.Context, id string, lang string) ([]model.Ancestor, error) {
	iri, err := sparql.IRI(id)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(districtAncestorsQuery, iri, w.locatedInProperty, w.districtConcepts, w.districtKeyProperty, sparql.Literal(lang))

	res, err := w.q.Select(ctx, query)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var ancestors []model.Ancestor
	for _, row := range res.Bindings() {
		districtID := row.Value("district")
		if districtID == "" || seen[districtID] {
			continue
		}
		seen[districtID] = true
		ancestors = append(ancestors, model.Ancestor{
			ExternalID: districtID,
			Label:      row.Value("label"),
			Key:        strings.TrimSpace(row.Value("key")),
		})
	}
	return ancestors, nil
}
