package model

// Mention is a recognized entity after normalization: the knowledge graph
// identifier the recognizer proposed and the exact question substring it
// was recognized in.
type Mention struct {
	AnnotationID    string  `json:"annotation_id"`
	ExternalID      string  `json:"external_id"`
	TargetSubstring string  `json:"target_substring"`
	Score           float64 `json:"score"`
	Start           int     `json:"start"`
	End             int     `json:"end"`
}

// RawMention is one row read from the annotation store before offsets and
// score are validated.
type RawMention struct {
	AnnotationID string
	ExternalID   string
	Score        string
	Start        string
	End          string
}
