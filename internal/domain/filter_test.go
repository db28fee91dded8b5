package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFilterEmptyQueryMatchesAll(t *testing.T) {
	for _, query := range []Query{nil, {}} {
		clauses := NormalizeFilter(query)
		require.Len(t, clauses, 1)
		assert.True(t, clauses[0].IsCatchAll())
		assert.True(t, clauses.MatchesEverything())
	}
}

func TestNormalizeFilterMovesBecomesElementMatch(t *testing.T) {
	query := Query{
		"moves": map[string]any{
			"puzzleCurrentState":      "S1",
			"puzzleCurrentNotesState": "N1",
		},
	}

	clauses := NormalizeFilter(query)

	require.Len(t, clauses, 1)
	require.NotNil(t, clauses[0].ElemMatch)
	assert.Equal(t, "moves", clauses[0].ElemMatch.Field)
	assert.Equal(t, map[string]any{
		"puzzleCurrentState":      "S1",
		"puzzleCurrentNotesState": "N1",
	}, clauses[0].ElemMatch.Conditions)
	assert.Empty(t, clauses[0].Paths)
}

func TestNormalizeFilterFlattensNestedCounters(t *testing.T) {
	query := Query{
		"numWrongCellsPlayedPerStrategy": map[string]any{"strategyA": 2},
	}

	clauses := NormalizeFilter(query)

	require.Len(t, clauses, 1)
	assert.Nil(t, clauses[0].ElemMatch)
	assert.Equal(t, map[string]any{"numWrongCellsPlayedPerStrategy.strategyA": 2}, clauses[0].Paths)
}

func TestNormalizeFilterMovesAndFieldsProducesTwoClausesInOrder(t *testing.T) {
	query := Query{
		"userID": "user-1",
		"moves": map[string]any{
			"puzzleCurrentState":      "S1",
			"puzzleCurrentNotesState": "N1",
		},
		"numWrongCellsPlayedPerStrategy": map[string]any{
			"nakedSingle": 1,
			"hiddenPair":  map[string]any{"row": 3},
		},
	}

	clauses := NormalizeFilter(query)

	require.Len(t, clauses, 2)
	require.NotNil(t, clauses[0].ElemMatch)
	assert.Nil(t, clauses[1].ElemMatch)
	paths := clauses[1].Paths
	require.Len(t, paths, 3)
	assert.Equal(t, "user-1", paths["userID"])
	assert.Equal(t, 1, paths["numWrongCellsPlayedPerStrategy.nakedSingle"])
	assert.Equal(t, 3, paths["numWrongCellsPlayedPerStrategy.hiddenPair.row"])
	for key := range paths {
		assert.NotContains(t, key, "moves")
	}
}

func TestNormalizeFilterPartialMovesIsFlattened(t *testing.T) {
	query := Query{
		"moves": map[string]any{"puzzleCurrentState": "S1"},
	}

	clauses := NormalizeFilter(query)

	require.Len(t, clauses, 1)
	assert.Nil(t, clauses[0].ElemMatch)
	assert.Equal(t, map[string]any{"moves.puzzleCurrentState": "S1"}, clauses[0].Paths)
}

func TestNormalizeFilterKeepsNullMoveValues(t *testing.T) {
	query := Query{
		"moves": map[string]any{
			"puzzleCurrentState":      nil,
			"puzzleCurrentNotesState": "N1",
		},
	}

	clauses := NormalizeFilter(query)

	require.Len(t, clauses, 1)
	require.NotNil(t, clauses[0].ElemMatch)
	assert.Nil(t, clauses[0].ElemMatch.Conditions["puzzleCurrentState"])
}

func TestNormalizeFilterDoesNotMutateQuery(t *testing.T) {
	moves := map[string]any{
		"puzzleCurrentState":      "S1",
		"puzzleCurrentNotesState": "N1",
	}
	query := Query{"moves": moves, "difficulty": 3}

	NormalizeFilter(query)

	assert.Equal(t, Query{"moves": moves, "difficulty": 3}, query)
	assert.Len(t, moves, 2)
}

func TestFlattenPathsHandlesArraysAndEmptyContainers(t *testing.T) {
	acc := map[string]any{}
	FlattenPaths("", map[string]any{
		"a":     []any{"x", map[string]any{"b": true}},
		"empty": map[string]any{},
		"none":  []any{},
		"nil":   nil,
	}, acc)

	assert.Equal(t, map[string]any{
		"a.0":   "x",
		"a.1.b": true,
		"empty": map[string]any{},
		"none":  []any{},
		"nil":   nil,
	}, acc)
}

func TestFilterClauseSortedPaths(t *testing.T) {
	clause := FilterClause{Paths: map[string]any{"b": 1, "a": 2, "c.d": 3}}
	assert.Equal(t, []string{"a", "b", "c.d"}, clause.SortedPaths())
}

func TestMatchesEverythingOnEmptyList(t *testing.T) {
	assert.True(t, FilterClauseList{}.MatchesEverything())
	assert.False(t, FilterClauseList{{Paths: map[string]any{"a": 1}}}.MatchesEverything())
}
