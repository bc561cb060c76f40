package graph

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ============================================================================
// Helper Functions
// ============================================================================

func getStringFromRecord(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func getBoolFromRecord(record *neo4j.Record, key string) bool {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return false
	}
	if b, ok := val.(bool); ok {
		return b
	}
	return false
}

func getInt64FromRecord(record *neo4j.Record, key string) int64 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0
	}
	if i, ok := val.(int64); ok {
		return i
	}
	if i, ok := val.(int); ok {
		return int64(i)
	}
	return 0
}

func getMapFromRecord(record *neo4j.Record, key string) map[string]any {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return nil
	}
	if m, ok := val.(map[string]any); ok {
		return m
	}
	return nil
}

func getSliceFromRecord(record *neo4j.Record, key string) []any {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return nil
	}
	if s, ok := val.([]any); ok {
		return s
	}
	return nil
}

func getStringFromMap(m map[string]any, key, defaultValue string) string {
	val, ok := m[key]
	if !ok || val == nil {
		return defaultValue
	}
	if str, ok := val.(string); ok {
		return str
	}
	return defaultValue
}

func getBoolFromMap(m map[string]any, key string) bool {
	val, ok := m[key]
	if !ok || val == nil {
		return false
	}
	if b, ok := val.(bool); ok {
		return b
	}
	return false
}

func getInt64FromMap(m map[string]any, key string) int64 {
	val, ok := m[key]
	if !ok || val == nil {
		return 0
	}
	if i, ok := val.(int64); ok {
		return i
	}
	if i, ok := val.(int); ok {
		return int64(i)
	}
	return 0
}

func getTimeFromMap(m map[string]any, key string) time.Time {
	val, ok := m[key]
	if !ok || val == nil {
		return time.Time{}
	}
	// Neo4j datetime values come back as time.Time
	if t, ok := val.(time.Time); ok {
		return t
	}
	return time.Time{}
}

func getStringSliceFromMap(m map[string]any, key string) []string {
	val, ok := m[key]
	if !ok || val == nil {
		return []string{}
	}
	if strs, ok := val.([]string); ok {
		return strs
	}
	if slice, ok := val.([]any); ok {
		result := make([]string, 0, len(slice))
		for _, v := range slice {
			if str, ok := v.(string); ok {
				result = append(result, str)
			}
		}
		return result
	}
	return []string{}
}

// normalizeProperties restricts property bags to the value kinds the
// store round-trips cleanly: strings, integers, floats, booleans and
// lists of strings. Anything else is dropped rather than rejected.
func normalizeProperties(props map[string]any) map[string]any {
	if props == nil {
		return map[string]any{}
	}

	out := make(map[string]any, len(props))
	for key, val := range props {
		switch v := val.(type) {
		case string, bool, int64, float64:
			out[key] = v
		case int:
			out[key] = int64(v)
		case int32:
			out[key] = int64(v)
		case float32:
			out[key] = float64(v)
		case []string:
			out[key] = v
		case []any:
			strs := make([]string, 0, len(v))
			ok := true
			for _, item := range v {
				str, isStr := item.(string)
				if !isStr {
					ok = false
					break
				}
				strs = append(strs, str)
			}
			if ok {
				out[key] = strs
			}
		}
	}
	return out
}
