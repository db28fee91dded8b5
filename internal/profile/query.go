package profile

import (
	"encoding/json"
	"net/url"
	"sort"
	"strings"

	"github.com/rpattn/activegames/internal/domain"
)

// QueryFromValues rebuilds the nested filter object a client encoded in the query
// string. Keys nest on dots and brackets (moves.puzzleCurrentState and
// moves[puzzleCurrentState] are equivalent). Values under moves always stay strings,
// numbers are decoded only under counter fields, and true/false elsewhere become
// booleans. For repeated keys the last value wins.
func QueryFromValues(values url.Values) domain.Query {
	query := domain.Query{}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		segments := splitKey(key)
		if len(segments) == 0 || len(values[key]) == 0 {
			continue
		}
		raw := values[key][len(values[key])-1]
		assign(query, segments, coerce(segments[0], raw))
	}
	return query
}

func splitKey(key string) []string {
	key = strings.ReplaceAll(key, "[", ".")
	key = strings.ReplaceAll(key, "]", "")
	parts := strings.Split(key, ".")
	segments := parts[:0]
	for _, part := range parts {
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}

func assign(target map[string]any, segments []string, value any) {
	for _, segment := range segments[:len(segments)-1] {
		next, ok := target[segment].(map[string]any)
		if !ok {
			next = map[string]any{}
			target[segment] = next
		}
		target = next
	}
	target[segments[len(segments)-1]] = value
}

// counterFields hold per-strategy counters whose leaves are numbers.
var counterFields = map[string]bool{
	"numWrongCellsPlayedPerStrategy": true,
}

// stringFields hold puzzle states, which are digit strings and must never become numbers.
var stringFields = map[string]bool{
	domain.MovesField: true,
}

func coerce(field, raw string) any {
	if stringFields[field] {
		return raw
	}
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return raw
	}
	switch decoded.(type) {
	case bool:
		return decoded
	case float64:
		if counterFields[field] {
			return decoded
		}
	}
	return raw
}
