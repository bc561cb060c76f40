package graph

import (
	"go.uber.org/zap"
	"knowledge-graph/pkg/logger"
)

// Repository handles all knowledge graph operations: entities,
// relationships, search, project export and the migration journal.
// Every method opens one session against the store, runs a
// parameterized statement and maps the result rows.
type Repository struct {
	store  *Store
	logger *zap.Logger
}

// NewRepository creates a new graph repository
func NewRepository(store *Store) *Repository {
	return &Repository{
		store:  store,
		logger: logger.Get(),
	}
}
