package model

import "time"

// Annotation is one record persisted for a resolved region.
type Annotation struct {
	ID          string     `json:"id"`
	QuestionURI string     `json:"question_uri"`
	Kind        RegionKind `json:"kind"`
	TypeIRI     string     `json:"type"`
	RegionID    string     `json:"region_id"`
	Label       string     `json:"label"`
	Key         string     `json:"key"`
	Score       float64    `json:"score"`
	Target      string     `json:"target"`
	Relation    Direction  `json:"relation"`
	Component   string     `json:"component"`
	SourceID    string     `json:"source_annotation"`
	CreatedAt   time.Time  `json:"created_at"`
}
