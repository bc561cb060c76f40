package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	apperrors "knowledge-graph/pkg/errors"
	"knowledge-graph/pkg/logger"
)

// Store owns the Neo4j driver shared by every repository operation.
// Connect must succeed before any operation runs; a connectivity
// failure at startup is fatal and is not retried here.
type Store struct {
	uri      string
	username string
	password string
	database string

	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewStore creates a store for the given connection settings. No
// connection is made until Connect is called.
func NewStore(uri, username, password, database string) *Store {
	return &Store{
		uri:      uri,
		username: username,
		password: password,
		database: database,
		logger:   logger.Get(),
	}
}

// Connect establishes the driver, verifies connectivity and ensures
// the indexes and constraints the repository relies on.
func (s *Store) Connect(ctx context.Context) error {
	driver, err := neo4j.NewDriverWithContext(s.uri, neo4j.BasicAuth(s.username, s.password, ""))
	if err != nil {
		return apperrors.NewGraphConnectionFailed(s.uri, err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return apperrors.NewGraphConnectionFailed(s.uri, err)
	}

	s.driver = driver

	if err := s.ensureSchema(ctx); err != nil {
		_ = driver.Close(ctx)
		s.driver = nil
		return err
	}

	s.logger.Info("Connected to Neo4j",
		zap.String("uri", s.uri),
		zap.String("database", s.database),
	)
	return nil
}

// Close releases the driver connection
func (s *Store) Close(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Close(ctx)
}

// session opens a unit of work against the configured database. Every
// public operation uses exactly one session for its full duration.
func (s *Store) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: s.database,
	})
}

// ensureSchema creates lookup indexes for entities and migrations and
// the uniqueness constraint that keeps migration sequence numbers from
// colliding under concurrent writers.
func (s *Store) ensureSchema(ctx context.Context) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	statements := []string{
		"CREATE INDEX entity_name IF NOT EXISTS FOR (e:Entity) ON (e.name)",
		"CREATE INDEX entity_project IF NOT EXISTS FOR (e:Entity) ON (e.project)",
		"CREATE INDEX migration_project IF NOT EXISTS FOR (m:Migration) ON (m.project)",
		"CREATE CONSTRAINT migration_project_seq IF NOT EXISTS FOR (m:Migration) REQUIRE (m.project, m.seq) IS UNIQUE",
	}

	for _, stmt := range statements {
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}

	return nil
}
