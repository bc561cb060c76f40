package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	apperrors "knowledge-graph/pkg/errors"
)

// ============================================================================
// Search and Project Queries
// ============================================================================

// searchLimit caps substring search results
const searchLimit = 25

// Search finds entities whose name or any observation contains the
// given text (case-insensitive), optionally scoped to one project.
// Results come back most-recently-updated first, capped at 25.
func (r *Repository) Search(ctx context.Context, queryText, project string) ([]Entity, error) {
	session := r.store.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	projectFilter := ""
	params := map[string]any{
		"query": queryText,
		"limit": searchLimit,
	}
	if project != "" {
		projectFilter = "AND e.project = $project"
		params["project"] = project
	}

	query := fmt.Sprintf(`
		MATCH (e:Entity)
		WHERE (toLower(e.name) CONTAINS toLower($query) OR
		       any(obs IN e.observations WHERE toLower(obs) CONTAINS toLower($query)))
		      %s
		RETURN e{.*, labels: labels(e)} AS entity
		ORDER BY e.updated_at DESC
		LIMIT $limit
	`, projectFilter)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed(query, err)
	}

	entities := []Entity{}
	for result.Next(ctx) {
		entities = append(entities, entityFromMap(getMapFromRecord(result.Record(), "entity")))
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate search results: %w", err)
	}

	return entities, nil
}

// GetProjectGraph returns every entity in the project and every
// relationship whose both endpoints live in it, deduplicated.
func (r *Repository) GetProjectGraph(ctx context.Context, project string) (*ProjectGraph, error) {
	session := r.store.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	query := `
		MATCH (e:Entity {project: $project})
		OPTIONAL MATCH (e)-[r]->(t:Entity {project: $project})
		RETURN collect(DISTINCT e{.name, .type, .observations}) AS entities,
		       collect(DISTINCT {from: e.name, to: t.name, type: type(r)}) AS relationships
	`

	result, err := session.Run(ctx, query, map[string]any{"project": project})
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed(query, err)
	}

	record, err := result.Single(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch project graph: %w", err)
	}

	pg := &ProjectGraph{
		Project:       project,
		Entities:      []GraphEntity{},
		Relationships: []GraphEdge{},
	}

	for _, item := range getSliceFromRecord(record, "entities") {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		pg.Entities = append(pg.Entities, GraphEntity{
			Name:         getStringFromMap(m, "name", ""),
			Type:         getStringFromMap(m, "type", ""),
			Observations: getStringSliceFromMap(m, "observations"),
		})
	}

	// Rows from the optional match with no edge come back with a null
	// target and are skipped.
	for _, item := range getSliceFromRecord(record, "relationships") {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		to := getStringFromMap(m, "to", "")
		if to == "" {
			continue
		}
		pg.Relationships = append(pg.Relationships, GraphEdge{
			From: getStringFromMap(m, "from", ""),
			To:   to,
			Type: getStringFromMap(m, "type", ""),
		})
	}

	return pg, nil
}

// ListProjects returns the distinct project labels across all
// entities, sorted ascending.
func (r *Repository) ListProjects(ctx context.Context) ([]string, error) {
	session := r.store.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	query := `
		MATCH (e:Entity)
		RETURN DISTINCT e.project AS project
		ORDER BY project
	`

	result, err := session.Run(ctx, query, nil)
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed(query, err)
	}

	projects := []string{}
	for result.Next(ctx) {
		if project := getStringFromRecord(result.Record(), "project"); project != "" {
			projects = append(projects, project)
		}
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}

	return projects, nil
}
