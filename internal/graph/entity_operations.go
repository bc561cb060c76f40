package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	apperrors "knowledge-graph/pkg/errors"
)

// ============================================================================
// Entity Operations
// ============================================================================

// CreateEntity creates or merges an entity node. Re-creation always
// merges: type and properties are overwritten, observations are
// concatenated (duplicates allowed), created_at is set only once.
func (r *Repository) CreateEntity(ctx context.Context, name, entityType, project string, observations []string, properties map[string]any) (*Entity, error) {
	if name == "" || project == "" {
		return nil, fmt.Errorf("entity name and project are required")
	}

	session := r.store.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	if observations == nil {
		observations = []string{}
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	query := `
		MERGE (e:Entity {name: $name, project: $project})
		ON CREATE SET
			e.type = $entityType,
			e.observations = $observations,
			e.created_at = datetime($now),
			e.updated_at = datetime($now)
		ON MATCH SET
			e.type = $entityType,
			e.observations = e.observations + $observations,
			e.updated_at = datetime($now)
		SET e += $properties
		RETURN e{.*, labels: labels(e)} AS entity
	`

	result, err := session.Run(ctx, query, map[string]any{
		"name":         name,
		"project":      project,
		"entityType":   entityType,
		"observations": observations,
		"properties":   normalizeProperties(properties),
		"now":          now,
	})
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed(query, err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return nil, fmt.Errorf("failed to fetch created entity: %w", err)
		}
		return nil, nil
	}

	entity := entityFromMap(getMapFromRecord(result.Record(), "entity"))

	r.logger.Debug("Entity upserted",
		zap.String("name", name),
		zap.String("project", project),
		zap.String("type", entityType),
	)
	return &entity, nil
}

// AddObservations appends observations to an existing entity. If no
// entity matches, nil is returned rather than an error.
func (r *Repository) AddObservations(ctx context.Context, name, project string, observations []string) (*Entity, error) {
	session := r.store.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	now := time.Now().UTC().Format(time.RFC3339Nano)

	query := `
		MATCH (e:Entity {name: $name, project: $project})
		SET e.observations = e.observations + $observations,
		    e.updated_at = datetime($now)
		RETURN e{.*, labels: labels(e)} AS entity
	`

	result, err := session.Run(ctx, query, map[string]any{
		"name":         name,
		"project":      project,
		"observations": observations,
		"now":          now,
	})
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed(query, err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return nil, fmt.Errorf("failed to fetch updated entity: %w", err)
		}
		return nil, nil
	}

	entity := entityFromMap(getMapFromRecord(result.Record(), "entity"))
	return &entity, nil
}

// DeleteEntity removes an entity and every relationship incident to
// it. Returns whether a node existed to delete.
func (r *Repository) DeleteEntity(ctx context.Context, name, project string) (bool, error) {
	session := r.store.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	query := `
		MATCH (e:Entity {name: $name, project: $project})
		DETACH DELETE e
		RETURN count(e) AS deleted
	`

	result, err := session.Run(ctx, query, map[string]any{
		"name":    name,
		"project": project,
	})
	if err != nil {
		return false, apperrors.NewGraphQueryFailed(query, err)
	}

	record, err := result.Single(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to fetch delete count: %w", err)
	}

	deleted := getInt64FromRecord(record, "deleted") > 0
	if deleted {
		r.logger.Info("Entity deleted",
			zap.String("name", name),
			zap.String("project", project),
		)
	}
	return deleted, nil
}

// GetEntity retrieves an entity with its outgoing and incoming
// relationships, one deduplicated summary list per direction. Returns
// nil when the entity does not exist.
func (r *Repository) GetEntity(ctx context.Context, name, project string) (*EntityWithRelations, error) {
	session := r.store.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	query := `
		MATCH (e:Entity {name: $name, project: $project})
		OPTIONAL MATCH (e)-[r]->(target:Entity)
		OPTIONAL MATCH (source:Entity)-[ri]->(e)
		WITH e,
		     collect(DISTINCT {type: type(r), neighbor: target.name, neighbor_type: target.type}) AS outgoing,
		     collect(DISTINCT {type: type(ri), neighbor: source.name, neighbor_type: source.type}) AS incoming
		RETURN e{.*, labels: labels(e)} AS entity,
		       [x IN outgoing WHERE x.neighbor IS NOT NULL] AS outgoing_relations,
		       [x IN incoming WHERE x.neighbor IS NOT NULL] AS incoming_relations
	`

	result, err := session.Run(ctx, query, map[string]any{
		"name":    name,
		"project": project,
	})
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed(query, err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return nil, fmt.Errorf("failed to fetch entity record: %w", err)
		}
		return nil, nil
	}

	record := result.Record()
	out := &EntityWithRelations{
		Entity:   entityFromMap(getMapFromRecord(record, "entity")),
		Outgoing: neighborRelationsFromRecord(record, "outgoing_relations"),
		Incoming: neighborRelationsFromRecord(record, "incoming_relations"),
	}
	return out, nil
}

func neighborRelationsFromRecord(record *neo4j.Record, key string) []NeighborRelation {
	relations := []NeighborRelation{}
	for _, item := range getSliceFromRecord(record, key) {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		relations = append(relations, NeighborRelation{
			Type:         getStringFromMap(m, "type", ""),
			Neighbor:     getStringFromMap(m, "neighbor", ""),
			NeighborType: getStringFromMap(m, "neighbor_type", ""),
		})
	}
	return relations
}
