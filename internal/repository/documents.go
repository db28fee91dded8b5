package repository

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/rpattn/activegames/internal/domain"
)

// prepareDocuments normalizes documents for storage and assigns missing identifiers.
func prepareDocuments(docs []domain.ProfileRecord) ([]domain.ProfileRecord, []string, error) {
	if len(docs) == 0 {
		return nil, nil, ErrEmptyBatch
	}

	prepared := make([]domain.ProfileRecord, len(docs))
	ids := make([]string, len(docs))
	for i, doc := range docs {
		normalized, err := domain.NormalizeRecord(doc)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to normalize document %d: %w", i, err)
		}
		id := normalized.ID()
		if id == "" {
			id = uuid.New().String()
			normalized[domain.IDField] = id
		}
		prepared[i] = normalized
		ids[i] = id
	}
	return prepared, ids, nil
}

// preparePatch normalizes an update patch and strips the identifier.
func preparePatch(patch domain.ProfileRecord) (domain.ProfileRecord, error) {
	normalized, err := domain.NormalizeRecord(patch)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize patch: %w", err)
	}
	delete(normalized, domain.IDField)
	return normalized, nil
}

// normalizeClauses converts clause values to their JSON representation so they compare
// equal to stored documents.
func normalizeClauses(clauses domain.FilterClauseList) (domain.FilterClauseList, error) {
	out := make(domain.FilterClauseList, len(clauses))
	for i, clause := range clauses {
		next := domain.FilterClause{}
		if clause.ElemMatch != nil {
			conditions, err := domain.NormalizeRecord(clause.ElemMatch.Conditions)
			if err != nil {
				return nil, fmt.Errorf("failed to normalize element match: %w", err)
			}
			next.ElemMatch = &domain.ElementMatch{Field: clause.ElemMatch.Field, Conditions: conditions}
		}
		if len(clause.Paths) > 0 {
			paths, err := domain.NormalizeRecord(clause.Paths)
			if err != nil {
				return nil, fmt.Errorf("failed to normalize paths: %w", err)
			}
			next.Paths = paths
		}
		out[i] = next
	}
	return out, nil
}

// matchesAny evaluates a normalized clause list against a normalized document.
func matchesAny(doc domain.ProfileRecord, clauses domain.FilterClauseList) bool {
	if clauses.MatchesEverything() {
		return true
	}
	for _, clause := range clauses {
		if matchesClause(doc, clause) {
			return true
		}
	}
	return false
}

func matchesClause(doc domain.ProfileRecord, clause domain.FilterClause) bool {
	if clause.ElemMatch != nil && !matchesElement(doc, *clause.ElemMatch) {
		return false
	}
	for path, want := range clause.Paths {
		if !pathMatches(map[string]any(doc), strings.Split(path, "."), want) {
			return false
		}
	}
	return true
}

// matchesElement requires field to be an array with one object element satisfying every
// condition under valueMatches rules.
func matchesElement(doc domain.ProfileRecord, match domain.ElementMatch) bool {
	items, ok := doc[match.Field].([]any)
	if !ok {
		return false
	}
	for _, item := range items {
		element, ok := item.(map[string]any)
		if !ok {
			continue
		}
		matched := true
		for key, want := range match.Conditions {
			got, present := element[key]
			if !valueMatches(got, present, want) {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

// valueMatches applies document-store equality: the value equals want, or is an array
// holding want. A missing path only matches a nil want.
func valueMatches(got any, present bool, want any) bool {
	if !present {
		return want == nil
	}
	if reflect.DeepEqual(got, want) {
		return true
	}
	if items, ok := got.([]any); ok {
		for _, item := range items {
			if reflect.DeepEqual(item, want) {
				return true
			}
		}
	}
	return false
}

// pathMatches walks segments through current. Numeric segments index arrays; any
// segment applied to an array also fans out over its object elements, so
// moves.puzzleCurrentState matches when some move carries the value.
func pathMatches(current any, segments []string, want any) bool {
	if len(segments) == 0 {
		return valueMatches(current, true, want)
	}
	segment, rest := segments[0], segments[1:]

	switch typed := current.(type) {
	case map[string]any:
		next, ok := typed[segment]
		if !ok {
			return want == nil
		}
		return pathMatches(next, rest, want)
	case []any:
		if idx, ok := arrayIndex(segment); ok && idx < len(typed) {
			if pathMatches(typed[idx], rest, want) {
				return true
			}
		}
		for _, item := range typed {
			if element, ok := item.(map[string]any); ok && pathMatches(element, segments, want) {
				return true
			}
		}
		return false
	default:
		return want == nil
	}
}

// arrayIndex reports whether segment is a plain array position.
func arrayIndex(segment string) (int, bool) {
	if segment == "" || len(segment) > 9 {
		return 0, false
	}
	for _, r := range segment {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	idx, err := strconv.Atoi(segment)
	return idx, err == nil
}

// applyPatch sets every top-level patch key and reports whether anything changed.
func applyPatch(doc domain.ProfileRecord, patch domain.ProfileRecord) bool {
	changed := false
	for key, value := range patch {
		if existing, ok := doc[key]; ok && reflect.DeepEqual(existing, value) {
			continue
		}
		doc[key] = value
		changed = true
	}
	return changed
}
