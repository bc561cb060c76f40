package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	apperrors "knowledge-graph/pkg/errors"
	"knowledge-graph/pkg/logger"
)

// ============================================================================
// Raw Cypher Gateway
// ============================================================================

// RawGateway executes arbitrary Cypher against the store. It is a
// deliberately unrestricted escape hatch: read-only use is a
// convention, not something enforced here, which is why it is a
// separate type from Repository and callers must opt into constructing
// it.
type RawGateway struct {
	store  *Store
	logger *zap.Logger
}

// NewRawGateway creates a gateway bound to the given store
func NewRawGateway(store *Store) *RawGateway {
	return &RawGateway{
		store:  store,
		logger: logger.Get(),
	}
}

// Run executes the statement with the given parameters and returns
// every result row as a plain map. The session is opened for writes:
// the read-only convention lives in the documentation, not here, and
// a read session would have the cluster reject mutating statements.
func (g *RawGateway) Run(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	session := g.store.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed(query, err)
	}

	rows := []map[string]any{}
	for result.Next(ctx) {
		record := result.Record()
		row := make(map[string]any, len(record.Keys))
		for _, key := range record.Keys {
			val, _ := record.Get(key)
			row[key] = val
		}
		rows = append(rows, row)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cypher results: %w", err)
	}

	g.logger.Debug("Raw cypher executed", zap.Int("rows", len(rows)))
	return rows, nil
}
