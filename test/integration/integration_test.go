//go:build integration

package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/districtlinker/internal/config"
	"github.com/agenthands/districtlinker/internal/core"
	"github.com/agenthands/districtlinker/internal/core/model"
	"github.com/agenthands/districtlinker/internal/core/reader"
	"github.com/agenthands/districtlinker/internal/core/writer"
	"github.com/agenthands/districtlinker/internal/driver"
	"github.com/agenthands/districtlinker/internal/knowledge"
	"github.com/agenthands/districtlinker/internal/sparql"
)

func liveGraph(t *testing.T) (*config.Config, knowledge.Graph) {
	t.Helper()
	_ = godotenv.Load("../../.env")
	if os.Getenv("WIKIDATA_INTEGRATION") == "" {
		t.Skip("Skipping integration test: WIKIDATA_INTEGRATION not set")
	}
	cfg := config.Default()
	require.NoError(t, cfg.ApplyEnv())

	client := sparql.New(cfg.KnowledgeGraph.Endpoint,
		sparql.WithTimeout(cfg.KnowledgeGraph.QueryTimeout.Duration),
		sparql.WithMaxRetries(cfg.KnowledgeGraph.MaxRetries),
		sparql.WithUserAgent(cfg.KnowledgeGraph.UserAgent),
	)
	graph, err := knowledge.NewWikidata(client, cfg.Region)
	require.NoError(t, err)
	return cfg, graph
}

func TestWikidata_FederalState(t *testing.T) {
	cfg, graph := liveGraph(t)
	r := core.NewResolver(graph, cfg, nil)

	q := "Wie viele Einwohner hat Baden-Württemberg?"
	report := r.Resolve(context.Background(), reader.Input{
		Question: q,
		Language: "de",
		Rows: []model.RawMention{{
			AnnotationID: "urn:test:1",
			ExternalID:   "http://www.wikidata.org/entity/Q985",
			Score:        "0.9",
			Start:        "24",
			End:          "41",
		}},
	})
	require.NoError(t, report.Err())
	require.Len(t, report.Outcomes, 1)
	region := report.Outcomes[0].Region
	require.NotNil(t, region)
	assert.Equal(t, model.State, region.Kind())
	assert.Equal(t, "08", region.Key())
}

func TestWikidata_CityDistricts(t *testing.T) {
	cfg, graph := liveGraph(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// Esslingen am Neckar
	ancestors, err := graph.DistrictAncestors(ctx, "http://www.wikidata.org/entity/Q3786", cfg.Component.Language)
	require.NoError(t, err)
	require.NotEmpty(t, ancestors)
	for _, a := range ancestors {
		assert.NotEmpty(t, a.Key)
		assert.NotEmpty(t, a.Label)
	}
}

func TestMemgraph_MirrorRoundTrip(t *testing.T) {
	_ = godotenv.Load("../../.env")
	uri := os.Getenv("MEMGRAPH_URI")
	if uri == "" {
		t.Skip("Skipping integration test: MEMGRAPH_URI not set")
	}
	ctx := context.Background()

	d, err := driver.NewMemgraphDriver(ctx, uri, os.Getenv("MEMGRAPH_USER"), os.Getenv("MEMGRAPH_PASSWORD"), nil)
	require.NoError(t, err)
	defer d.Close(ctx)
	require.NoError(t, d.BuildIndices(ctx))

	questionURI := "urn:test:question:" + uuid.New().String()
	mirror := writer.NewMirrorSink(d)
	err = mirror.Save(ctx, model.Annotation{
		ID:          "urn:qanary:annotation:" + uuid.New().String(),
		QuestionURI: questionURI,
		Kind:        model.District,
		TypeIRI:     config.Default().Region.DistrictType,
		RegionID:    "http://www.wikidata.org/entity/Q8178",
		Label:       "Landkreis Esslingen",
		Key:         "08116",
		Score:       0.8,
		Target:      "Esslingen",
		Relation:    model.Contains,
		Component:   writer.ComponentIRI("location-to-ger-district"),
		CreatedAt:   time.Now().UTC(),
	})
	require.NoError(t, err)

	regions, err := mirror.QuestionRegions(ctx, questionURI)
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Equal(t, "08116", regions[0].Key)
	assert.Equal(t, "containing", regions[0].Relation)
}
