package domain

import (
	"sort"
	"strconv"
)

const (
	// MovesField holds the per-move history of an active game.
	MovesField = "moves"
	// PuzzleCurrentStateField is the board state recorded on a move.
	PuzzleCurrentStateField = "puzzleCurrentState"
	// PuzzleCurrentNotesStateField is the notes state recorded on a move.
	PuzzleCurrentNotesStateField = "puzzleCurrentNotesState"
)

// ElementMatch matches records whose Field is a sequence holding at least one element
// whose sub-fields equal every entry in Conditions.
type ElementMatch struct {
	Field      string
	Conditions map[string]any
}

// FilterClause is one way a record can match a query.
//
// A clause with neither ElemMatch nor Paths matches every record. Otherwise every
// condition it carries must hold.
type FilterClause struct {
	ElemMatch *ElementMatch
	Paths     map[string]any
}

// MatchAll returns the catch-all clause.
func MatchAll() FilterClause {
	return FilterClause{}
}

// IsCatchAll reports whether the clause matches every record.
func (c FilterClause) IsCatchAll() bool {
	return c.ElemMatch == nil && len(c.Paths) == 0
}

// SortedPaths returns the dot-path keys in deterministic order.
func (c FilterClause) SortedPaths() []string {
	keys := make([]string, 0, len(c.Paths))
	for key := range c.Paths {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// FilterClauseList is an ordered set of alternative clauses. A record matches the list
// when it matches any clause; an empty list matches every record.
type FilterClauseList []FilterClause

// MatchesEverything reports whether the list selects all records.
func (l FilterClauseList) MatchesEverything() bool {
	if len(l) == 0 {
		return true
	}
	for _, clause := range l {
		if clause.IsCatchAll() {
			return true
		}
	}
	return false
}

// NormalizeFilter turns a raw query into the clause list handed to a gateway.
//
// The query is copied first and never modified. A qualifying moves object becomes an
// element-match clause; whatever fields remain afterwards are flattened to dot-paths
// and appended as one more clause.
func NormalizeFilter(query Query) FilterClauseList {
	if len(query) == 0 {
		return FilterClauseList{MatchAll()}
	}

	working := query.Clone()
	clauses := make(FilterClauseList, 0, 2)

	if moves, ok := working[MovesField].(map[string]any); ok {
		state, hasState := moves[PuzzleCurrentStateField]
		notes, hasNotes := moves[PuzzleCurrentNotesStateField]
		if hasState && hasNotes {
			clauses = append(clauses, FilterClause{
				ElemMatch: &ElementMatch{
					Field: MovesField,
					Conditions: map[string]any{
						PuzzleCurrentStateField:      state,
						PuzzleCurrentNotesStateField: notes,
					},
				},
			})
			delete(working, MovesField)
		}
	}

	// moves may have been the only field
	if len(working) != 0 {
		paths := make(map[string]any)
		FlattenPaths("", map[string]any(working), paths)
		clauses = append(clauses, FilterClause{Paths: paths})
	}

	return clauses
}

// FlattenPaths writes every leaf of value into acc keyed by its dot-path. Non-empty maps
// and slices are descended into, slice elements keyed by index; empty containers,
// scalars and nil are leaves.
func FlattenPaths(prefix string, value any, acc map[string]any) {
	switch typed := value.(type) {
	case Query:
		FlattenPaths(prefix, map[string]any(typed), acc)
	case ProfileRecord:
		FlattenPaths(prefix, map[string]any(typed), acc)
	case map[string]any:
		if len(typed) == 0 {
			if prefix != "" {
				acc[prefix] = map[string]any{}
			}
			return
		}
		for key, item := range typed {
			FlattenPaths(joinPath(prefix, key), item, acc)
		}
	case []any:
		if len(typed) == 0 {
			if prefix != "" {
				acc[prefix] = []any{}
			}
			return
		}
		for idx, item := range typed {
			FlattenPaths(joinPath(prefix, strconv.Itoa(idx)), item, acc)
		}
	default:
		if prefix != "" {
			acc[prefix] = typed
		}
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
