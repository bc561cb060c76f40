package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseError_WrapsCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewGraphConnectionFailed("bolt://localhost:7687", cause)

	assert.Contains(t, err.Error(), "bolt://localhost:7687")
	assert.True(t, stderrors.Is(err, cause))
}

func TestIsErrorType(t *testing.T) {
	graphErr := NewGraphQueryFailed("MATCH (n) RETURN n", fmt.Errorf("boom"))
	assert.True(t, IsErrorType(graphErr.BaseError, ErrorTypeGraph))
	assert.False(t, IsErrorType(graphErr.BaseError, ErrorTypeConfig))

	migErr := NewMigrationScriptFailed("core", 3, fmt.Errorf("bad cypher"))
	assert.True(t, IsErrorType(migErr.BaseError, ErrorTypeMigration))

	cfgErr := NewConfigMissingRequired("NEO4J_URI")
	assert.True(t, IsErrorType(cfgErr.BaseError, ErrorTypeConfig))
	assert.Contains(t, cfgErr.Error(), "NEO4J_URI")
}
