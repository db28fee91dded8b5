package domain

import (
	"encoding/json"
	"fmt"
)

// ModelKind identifies which stored resource a gateway call addresses.
type ModelKind string

// UserActiveGames is the model kind backing user active game profiles.
const UserActiveGames ModelKind = "userActiveGames"

// IDField is the document key under which gateways store the record identifier.
const IDField = "_id"

// ProfileRecord is an opaque JSON document describing a user's active game.
type ProfileRecord map[string]any

// Query is the raw, possibly nested filter object received from the controller.
type Query map[string]any

// Clone returns a deep copy of the record.
func (p ProfileRecord) Clone() ProfileRecord {
	if p == nil {
		return nil
	}
	return ProfileRecord(deepCopyMap(p))
}

// ID returns the record identifier if one has been assigned.
func (p ProfileRecord) ID() string {
	id, _ := p[IDField].(string)
	return id
}

// Clone returns a deep copy of the query.
func (q Query) Clone() Query {
	if q == nil {
		return nil
	}
	return Query(deepCopyMap(q))
}

// NormalizeJSON round-trips a value through encoding/json so numbers, nested maps and
// slices share the representation produced when decoding request bodies.
func NormalizeJSON(value any) (any, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value: %w", err)
	}
	var decoded any
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode value: %w", err)
	}
	return decoded, nil
}

// NormalizeRecord applies NormalizeJSON to a whole record.
func NormalizeRecord(record map[string]any) (ProfileRecord, error) {
	normalized, err := NormalizeJSON(record)
	if err != nil {
		return nil, err
	}
	out, ok := normalized.(map[string]any)
	if !ok {
		return ProfileRecord{}, nil
	}
	return ProfileRecord(out), nil
}

// deepCopyMap deep copies nested maps and slices; leaves are shared.
func deepCopyMap(input map[string]any) map[string]any {
	if input == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(input))
	for key, value := range input {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return deepCopyMap(typed)
	case Query:
		return deepCopyMap(typed)
	case ProfileRecord:
		return deepCopyMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return typed
	}
}
