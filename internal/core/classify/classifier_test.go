package classify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/districtlinker/internal/core/model"
	"github.com/agenthands/districtlinker/internal/knowledge"
)

const (
	bw        = "http://www.wikidata.org/entity/Q985"
	esslingen = "http://www.wikidata.org/entity/Q8178"
	ulm       = "http://www.wikidata.org/entity/Q3012"
)

func mention(id, target string) model.Mention {
	return model.Mention{AnnotationID: "urn:ner:" + target, ExternalID: id, TargetSubstring: target, Score: 0.9}
}

func TestClassify_State(t *testing.T) {
	graph := knowledge.NewMockGraph(map[string]knowledge.MockRegion{
		bw: {State: true, District: true, Key: "08", Labels: map[string]string{"de": "Baden-Württemberg"}},
	})
	c := NewClassifier(graph, nil)

	region, err := c.Classify(context.Background(), mention(bw, "BW"), "de")
	require.NoError(t, err)
	require.NotNil(t, region)
	assert.Equal(t, model.State, region.Kind())
	assert.Equal(t, "08", region.Key())
	assert.Equal(t, "Baden-Württemberg", region.SurfaceForm())
	// a positive state answer fixes the kind; the district check is skipped
	assert.Equal(t, []string{"state", "key"}, graph.CallsFor(bw))
}

func TestClassify_District(t *testing.T) {
	graph := knowledge.NewMockGraph(map[string]knowledge.MockRegion{
		esslingen: {District: true, Key: "08116"},
	})
	region, err := NewClassifier(graph, nil).Classify(context.Background(), mention(esslingen, "Esslingen"), "fr")
	require.NoError(t, err)
	require.NotNil(t, region)
	assert.Equal(t, model.District, region.Kind())
	assert.Equal(t, "Esslingen", region.SurfaceForm())
	assert.Equal(t, []string{"state", "district", "key"}, graph.CallsFor(esslingen))
}

func TestClassify_Unclassifiable(t *testing.T) {
	graph := knowledge.NewMockGraph(map[string]knowledge.MockRegion{ulm: {}})
	region, err := NewClassifier(graph, nil).Classify(context.Background(), mention(ulm, "Ulm"), "de")
	assert.NoError(t, err)
	assert.Nil(t, region)
	assert.Equal(t, []string{"state", "district"}, graph.CallsFor(ulm))
}

func TestClassify_MembershipFailure(t *testing.T) {
	graph := knowledge.NewMockGraph(map[string]knowledge.MockRegion{
		ulm: {DistrictErr: errors.New("timeout")},
	})
	region, err := NewClassifier(graph, nil).Classify(context.Background(), mention(ulm, "Ulm"), "de")
	assert.Nil(t, region)
	assert.True(t, errors.Is(err, model.ErrClassificationQueryFailed))
}

func TestClassify_KeyLookupFailure(t *testing.T) {
	graph := knowledge.NewMockGraph(map[string]knowledge.MockRegion{
		bw: {State: true, KeyErr: errors.New("no P1388")},
	})
	region, err := NewClassifier(graph, nil).Classify(context.Background(), mention(bw, "BW"), "de")
	assert.Nil(t, region)
	assert.True(t, errors.Is(err, model.ErrKeyLookupFailed))
}

func TestClassify_EmptyKeyIsFailure(t *testing.T) {
	graph := knowledge.NewMockGraph(map[string]knowledge.MockRegion{
		bw: {State: true, Key: ""},
	})
	region, err := NewClassifier(graph, nil).Classify(context.Background(), mention(bw, "BW"), "de")
	assert.Nil(t, region)
	assert.True(t, errors.Is(err, model.ErrKeyLookupFailed))
}

func TestClassify_Idempotent(t *testing.T) {
	graph := knowledge.NewMockGraph(map[string]knowledge.MockRegion{
		esslingen: {District: true, Key: "08116", Labels: map[string]string{"de": "Landkreis Esslingen"}},
	})
	c := NewClassifier(graph, nil)
	m := mention(esslingen, "Esslingen")

	first, err := c.Classify(context.Background(), m, "de")
	require.NoError(t, err)
	second, err := c.Classify(context.Background(), m, "de")
	require.NoError(t, err)
	assert.Equal(t, *first, *second)
}

func TestClassify_Cancelled(t *testing.T) {
	graph := knowledge.NewMockGraph(map[string]knowledge.MockRegion{bw: {State: true, Key: "08"}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClassifier(graph, nil).Classify(ctx, mention(bw, "BW"), "de")
	assert.True(t, errors.Is(err, context.Canceled))
}
