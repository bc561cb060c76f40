package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeRelationType(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"already safe", "IMPLEMENTS", "IMPLEMENTS"},
		{"lowercase", "depends_on", "DEPENDS_ON"},
		{"spaces and punctuation", "depends on!", "DEPENDS_ON_"},
		{"hyphen", "Uses-API", "USES_API"},
		{"empty string", "", ""},
		{"all invalid", "!!!", "___"},
		{"unicode letters", "relève", "REL_VE"},
		{"digits", "v2 rollout", "V2_ROLLOUT"},
		{"mixed", "calls->via gRPC", "CALLS__VIA_GRPC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeRelationType(tt.input))
		})
	}
}
