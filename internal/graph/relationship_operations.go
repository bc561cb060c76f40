package graph

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	apperrors "knowledge-graph/pkg/errors"
)

// ============================================================================
// Relationship Operations
// ============================================================================

// sanitizeRelationType turns a caller-supplied relationship type into
// a safe structural edge label: uppercased, with every character
// outside [A-Za-z0-9_] replaced by an underscore. Cypher does not
// support parameterized relationship types, so this sanitized form is
// the only value ever interpolated into a query.
func sanitizeRelationType(relationType string) string {
	upper := strings.ToUpper(relationType)
	return strings.Map(func(c rune) rune {
		switch {
		case c >= 'A' && c <= 'Z':
			return c
		case c >= '0' && c <= '9':
			return c
		case c == '_':
			return c
		default:
			return '_'
		}
	}, upper)
}

// CreateRelationship merges a typed edge between two entities in the
// same project. Both endpoints must already exist; if either is
// missing, nil is returned and no edge is created. Repeated calls
// merge properties into the existing edge and preserve created_at.
func (r *Repository) CreateRelationship(ctx context.Context, fromEntity, toEntity, relationType, project string, properties map[string]any) (*Relationship, error) {
	safeType := sanitizeRelationType(relationType)
	if safeType == "" {
		return nil, nil
	}

	session := r.store.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	now := time.Now().UTC().Format(time.RFC3339Nano)

	query := fmt.Sprintf(`
		MATCH (a:Entity {name: $fromName, project: $project})
		MATCH (b:Entity {name: $toName, project: $project})
		MERGE (a)-[r:%s]->(b)
		SET r += $properties, r.created_at = coalesce(r.created_at, datetime($now))
		RETURN type(r) AS type,
		       a.name AS from, b.name AS to,
		       properties(r) AS properties
	`, safeType)

	result, err := session.Run(ctx, query, map[string]any{
		"fromName":   fromEntity,
		"toName":     toEntity,
		"project":    project,
		"properties": normalizeProperties(properties),
		"now":        now,
	})
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed(query, err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return nil, fmt.Errorf("failed to fetch created relationship: %w", err)
		}
		// One or both endpoints are missing
		return nil, nil
	}

	record := result.Record()
	rel := &Relationship{
		Type:       getStringFromRecord(record, "type"),
		From:       getStringFromRecord(record, "from"),
		To:         getStringFromRecord(record, "to"),
		Properties: getMapFromRecord(record, "properties"),
	}

	r.logger.Debug("Relationship merged",
		zap.String("from", fromEntity),
		zap.String("to", toEntity),
		zap.String("type", safeType),
		zap.String("project", project),
	)
	return rel, nil
}

// DeleteRelationship removes the edge matching all four coordinates
// after sanitizing the type. Returns whether an edge existed.
func (r *Repository) DeleteRelationship(ctx context.Context, fromEntity, toEntity, relationType, project string) (bool, error) {
	safeType := sanitizeRelationType(relationType)
	if safeType == "" {
		return false, nil
	}

	session := r.store.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	query := fmt.Sprintf(`
		MATCH (a:Entity {name: $fromName, project: $project})
		      -[r:%s]->
		      (b:Entity {name: $toName, project: $project})
		DELETE r
		RETURN count(r) AS deleted
	`, safeType)

	result, err := session.Run(ctx, query, map[string]any{
		"fromName": fromEntity,
		"toName":   toEntity,
		"project":  project,
	})
	if err != nil {
		return false, apperrors.NewGraphQueryFailed(query, err)
	}

	record, err := result.Single(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to fetch delete count: %w", err)
	}

	return getInt64FromRecord(record, "deleted") > 0, nil
}
