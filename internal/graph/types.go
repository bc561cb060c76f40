package graph

import "time"

// Entity is a named, typed node in the knowledge graph, scoped to a
// project. Properties carries every node property that is not one of
// the fixed attributes below.
type Entity struct {
	Name         string         `json:"name"`
	Type         string         `json:"type"`
	Project      string         `json:"project"`
	Observations []string       `json:"observations"`
	Properties   map[string]any `json:"properties,omitempty"`
	Labels       []string       `json:"labels,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// NeighborRelation summarizes one relationship adjacent to an entity
type NeighborRelation struct {
	Type         string `json:"type"`
	Neighbor     string `json:"neighbor"`
	NeighborType string `json:"neighbor_type,omitempty"`
}

// EntityWithRelations is an entity plus its incoming and outgoing
// relationships, deduplicated per direction
type EntityWithRelations struct {
	Entity   Entity             `json:"entity"`
	Outgoing []NeighborRelation `json:"outgoing_relations"`
	Incoming []NeighborRelation `json:"incoming_relations"`
}

// Relationship is a directed, typed edge between two entities. Type is
// always the sanitized form used as the structural edge label.
type Relationship struct {
	Type       string         `json:"type"`
	From       string         `json:"from"`
	To         string         `json:"to"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Migration is a sequence-numbered schema/data change record for a
// project. Seq values are gap-free per project starting at 1; Applied
// transitions false to true exactly once.
type Migration struct {
	Project     string     `json:"project"`
	Seq         int64      `json:"seq"`
	Version     string     `json:"version"`
	Description string     `json:"description"`
	CypherUp    string     `json:"cypher_up"`
	CypherDown  string     `json:"cypher_down,omitempty"`
	Applied     bool       `json:"applied"`
	CreatedAt   time.Time  `json:"created_at"`
	AppliedAt   *time.Time `json:"applied_at,omitempty"`
}

// GraphEntity is the projection of an entity in a project export
type GraphEntity struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Observations []string `json:"observations"`
}

// GraphEdge is the projection of a relationship in a project export
type GraphEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"`
}

// ProjectGraph is the complete knowledge graph for one project
type ProjectGraph struct {
	Project       string        `json:"project"`
	Entities      []GraphEntity `json:"entities"`
	Relationships []GraphEdge   `json:"relationships"`
}

// entityFromMap builds an Entity from the e{.*, labels: labels(e)}
// projection. Fixed attributes are lifted into struct fields; every
// remaining key lands in Properties.
func entityFromMap(m map[string]any) Entity {
	e := Entity{
		Name:         getStringFromMap(m, "name", ""),
		Type:         getStringFromMap(m, "type", ""),
		Project:      getStringFromMap(m, "project", ""),
		Observations: getStringSliceFromMap(m, "observations"),
		Labels:       getStringSliceFromMap(m, "labels"),
		CreatedAt:    getTimeFromMap(m, "created_at"),
		UpdatedAt:    getTimeFromMap(m, "updated_at"),
	}

	for key, val := range m {
		switch key {
		case "name", "type", "project", "observations", "labels", "created_at", "updated_at":
			continue
		}
		if e.Properties == nil {
			e.Properties = make(map[string]any)
		}
		e.Properties[key] = val
	}

	return e
}

// migrationFromMap builds a Migration from the m{.*} projection
func migrationFromMap(m map[string]any) Migration {
	mig := Migration{
		Project:     getStringFromMap(m, "project", ""),
		Seq:         getInt64FromMap(m, "seq"),
		Version:     getStringFromMap(m, "version", ""),
		Description: getStringFromMap(m, "description", ""),
		CypherUp:    getStringFromMap(m, "cypher_up", ""),
		CypherDown:  getStringFromMap(m, "cypher_down", ""),
		Applied:     getBoolFromMap(m, "applied"),
		CreatedAt:   getTimeFromMap(m, "created_at"),
	}

	if t := getTimeFromMap(m, "applied_at"); !t.IsZero() {
		mig.AppliedAt = &t
	}

	return mig
}
