package knowledge

const (
	prefixes = `
		PREFIX wd: <http://www.wikidata.org/entity/>
		PREFIX wdt: <http://www.wikidata.org/prop/direct/>
		PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>
	`

	// args: entity IRI, concept VALUES list
	instanceOfQuery = prefixes + `
		ASK WHERE {
			VALUES ?concept { %[2]s }
			%[1]s wdt:P31/wdt:P279* ?concept .
		}
	`

	// args: entity IRI, key property, language literal
	regionKeyQuery = prefixes + `
		SELECT ?key ?label WHERE {
			%[1]s wdt:%[2]s ?key .
			OPTIONAL {
				%[1]s rdfs:label ?label .
				FILTER(LANG(?label) = %[3]s)
			}
		}
		LIMIT 1
	`

	// args: entity IRI, located-in property, concept VALUES list,
	// key property, language literal
	districtAncestorsQuery = prefixes + `
		SELECT DISTINCT ?district ?label ?key WHERE {
			VALUES ?concept { %[3]s }
			%[1]s wdt:%[2]s+ ?district .
			?district wdt:P31/wdt:P279* ?concept .
			?district wdt:%[4]s ?key .
			?district rdfs:label ?label .
			FILTER(LANG(?label) = %[5]s)
		}
	`
)
