package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	apperrors "knowledge-graph/pkg/errors"
)

// ============================================================================
// Migration Journal
// ============================================================================

// addMigrationRetries bounds retries when concurrent writers race on
// the same sequence number.
const addMigrationRetries = 3

// ErrMigrationNotApplicable is returned by ApplyMigration when no
// pending record matches (project, seq): either the sequence number
// does not exist or the migration was already applied. This is a
// reported condition for the caller to display, not a transport
// failure.
type ErrMigrationNotApplicable struct {
	Project string
	Seq     int64
}

func (e ErrMigrationNotApplicable) Error() string {
	return "Migration not found or already applied"
}

// AddMigration records a new pending migration for a project. The
// sequence number is max(existing)+1, starting at 1; the version label
// defaults to the stringified sequence number. The uniqueness
// constraint on (project, seq) rejects concurrent writers that picked
// the same number, in which case the assignment is retried.
func (r *Repository) AddMigration(ctx context.Context, project, description, cypherUp, cypherDown, version string) (*Migration, error) {
	session := r.store.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	query := `
		MATCH (latest:Migration {project: $project})
		WITH max(latest.seq) AS max_seq
		WITH coalesce(max_seq, 0) + 1 AS next_seq
		CREATE (m:Migration {
			project: $project,
			seq: next_seq,
			version: coalesce($version, toString(next_seq)),
			description: $description,
			cypher_up: $cypherUp,
			cypher_down: $cypherDown,
			created_at: datetime($now),
			applied: false
		})
		RETURN m{.*} AS migration
	`

	var versionParam any
	if version != "" {
		versionParam = version
	}

	var lastErr error
	for attempt := 0; attempt < addMigrationRetries; attempt++ {
		result, err := session.Run(ctx, query, map[string]any{
			"project":     project,
			"description": description,
			"cypherUp":    cypherUp,
			"cypherDown":  cypherDown,
			"version":     versionParam,
			"now":         time.Now().UTC().Format(time.RFC3339Nano),
		})
		if err == nil {
			record, singleErr := result.Single(ctx)
			err = singleErr
			if err == nil {
				mig := migrationFromMap(getMapFromRecord(record, "migration"))
				r.logger.Info("Migration recorded",
					zap.String("project", project),
					zap.Int64("seq", mig.Seq),
					zap.String("version", mig.Version),
				)
				return &mig, nil
			}
		}

		if !isConstraintViolation(err) {
			return nil, fmt.Errorf("failed to add migration: %w", err)
		}
		lastErr = err
	}

	return nil, fmt.Errorf("failed to add migration after %d attempts: %w", addMigrationRetries, lastErr)
}

// GetMigrations returns the migration history for a project ordered by
// sequence number.
func (r *Repository) GetMigrations(ctx context.Context, project string) ([]Migration, error) {
	session := r.store.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	query := `
		MATCH (m:Migration {project: $project})
		RETURN m{.*} AS migration
		ORDER BY m.seq
	`

	result, err := session.Run(ctx, query, map[string]any{"project": project})
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed(query, err)
	}

	migrations := []Migration{}
	for result.Next(ctx) {
		migrations = append(migrations, migrationFromMap(getMapFromRecord(result.Record(), "migration")))
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate migrations: %w", err)
	}

	return migrations, nil
}

// ApplyMigration executes a pending migration's forward script and
// marks it applied. The pending record is claimed with a single
// conditional write, so two concurrent callers can never both run the
// script; if the script then fails, the claim is rolled back and the
// execution error is surfaced.
func (r *Repository) ApplyMigration(ctx context.Context, project string, seq int64) (*Migration, error) {
	session := r.store.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	claimQuery := `
		MATCH (m:Migration {project: $project, seq: $seq})
		WHERE m.applied = false
		SET m.applied = true, m.applied_at = datetime($now)
		RETURN m{.*} AS migration
	`

	result, err := session.Run(ctx, claimQuery, map[string]any{
		"project": project,
		"seq":     seq,
		"now":     time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed(claimQuery, err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return nil, fmt.Errorf("failed to fetch migration record: %w", err)
		}
		return nil, ErrMigrationNotApplicable{Project: project, Seq: seq}
	}

	migration := migrationFromMap(getMapFromRecord(result.Record(), "migration"))

	// Failures from the script's own writes surface when the result
	// stream is consumed, not in the RUN response, so the result must
	// be drained before the migration counts as applied.
	upResult, err := session.Run(ctx, migration.CypherUp, nil)
	if err == nil {
		_, err = upResult.Consume(ctx)
	}
	if err != nil {
		rollback := `
			MATCH (m:Migration {project: $project, seq: $seq})
			SET m.applied = false, m.applied_at = null
		`
		if _, rbErr := session.Run(ctx, rollback, map[string]any{"project": project, "seq": seq}); rbErr != nil {
			r.logger.Error("Failed to roll back migration claim",
				zap.String("project", project),
				zap.Int64("seq", seq),
				zap.Error(rbErr),
			)
		}
		return nil, apperrors.NewMigrationScriptFailed(project, seq, err)
	}

	r.logger.Info("Migration applied",
		zap.String("project", project),
		zap.Int64("seq", seq),
		zap.String("version", migration.Version),
	)
	return &migration, nil
}

func isConstraintViolation(err error) bool {
	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) {
		return neoErr.Code == "Neo.ClientError.Schema.ConstraintValidationFailed"
	}
	return false
}
