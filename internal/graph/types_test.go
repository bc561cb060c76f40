package graph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityFromMap(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	updated := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)

	e := entityFromMap(map[string]any{
		"name":         "UserService",
		"type":         "Service",
		"project":      "core",
		"observations": []any{"handles signup", "owns the users table"},
		"labels":       []any{"Entity"},
		"created_at":   created,
		"updated_at":   updated,
		"owner":        "platform-team",
		"port":         int64(8080),
	})

	assert.Equal(t, "UserService", e.Name)
	assert.Equal(t, "Service", e.Type)
	assert.Equal(t, "core", e.Project)
	assert.Equal(t, []string{"handles signup", "owns the users table"}, e.Observations)
	assert.Equal(t, []string{"Entity"}, e.Labels)
	assert.Equal(t, created, e.CreatedAt)
	assert.Equal(t, updated, e.UpdatedAt)

	// Non-fixed attributes land in Properties
	require.NotNil(t, e.Properties)
	assert.Equal(t, "platform-team", e.Properties["owner"])
	assert.Equal(t, int64(8080), e.Properties["port"])
	assert.NotContains(t, e.Properties, "name")
	assert.NotContains(t, e.Properties, "observations")
}

func TestEntityFromMap_NoExtraProperties(t *testing.T) {
	e := entityFromMap(map[string]any{
		"name":    "Postgres",
		"type":    "Datastore",
		"project": "core",
	})

	assert.Nil(t, e.Properties)
	assert.Empty(t, e.Observations)
}

func TestMigrationFromMap(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	applied := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)

	m := migrationFromMap(map[string]any{
		"project":     "core",
		"seq":         int64(2),
		"version":     "2",
		"description": "add user index",
		"cypher_up":   "CREATE INDEX user_email IF NOT EXISTS FOR (u:User) ON (u.email)",
		"applied":     true,
		"created_at":  created,
		"applied_at":  applied,
	})

	assert.Equal(t, "core", m.Project)
	assert.Equal(t, int64(2), m.Seq)
	assert.Equal(t, "2", m.Version)
	assert.True(t, m.Applied)
	assert.Equal(t, created, m.CreatedAt)
	require.NotNil(t, m.AppliedAt)
	assert.Equal(t, applied, *m.AppliedAt)
}

func TestMigrationFromMap_Pending(t *testing.T) {
	m := migrationFromMap(map[string]any{
		"project": "core",
		"seq":     int64(1),
		"applied": false,
	})

	assert.False(t, m.Applied)
	assert.Nil(t, m.AppliedAt)
}
