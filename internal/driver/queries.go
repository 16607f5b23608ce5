package driver

var IndexQueries = []string{
	"CREATE INDEX ON :Region(key);",
	"CREATE INDEX ON :Region(external_id);",
	"CREATE INDEX ON :Question(uri);",
	"CREATE INDEX ON :RegionAnnotation(uuid);",
}

const (
	SaveRegionAnnotationQuery = `
		MERGE (q:Question {uri: $question_uri})
		MERGE (r:Region {key: $key, kind: $kind})
		SET r.label = $label,
			r.external_id = $region_id,
			r.type = $type
		MERGE (a:RegionAnnotation {uuid: $uuid})
		SET a.score = $score,
			a.target = $target,
			a.relation = $relation,
			a.component = $component,
			a.source_annotation = $source_annotation,
			a.created_at = $created_at
		MERGE (q)-[:HAS_ANNOTATION]->(a)
		MERGE (a)-[:REFERS_TO]->(r)
		RETURN a.uuid AS uuid
	`

	GetQuestionRegionsQuery = `
		MATCH (q:Question {uri: $question_uri})-[:HAS_ANNOTATION]->(a:RegionAnnotation)-[:REFERS_TO]->(r:Region)
		RETURN r.key AS key, r.kind AS kind, r.label AS label, a.relation AS relation, a.target AS target
		ORDER BY a.created_at
	`
)
