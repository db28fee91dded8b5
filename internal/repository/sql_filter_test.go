package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpattn/activegames/internal/domain"
)

func TestBuildSQLPredicateCatchAll(t *testing.T) {
	predicate, err := buildSQLPredicate(domain.FilterClauseList{domain.MatchAll()}, 2)
	require.NoError(t, err)

	assert.Equal(t, "TRUE", predicate.SQL)
	assert.Empty(t, predicate.Args)
}

func TestBuildSQLPredicateElementMatch(t *testing.T) {
	clauses := domain.NormalizeFilter(domain.Query{
		"moves": map[string]any{"puzzleCurrentState": "S1", "puzzleCurrentNotesState": "N1"},
	})

	predicate, err := buildSQLPredicate(clauses, 2)
	require.NoError(t, err)

	assert.Equal(t,
		"(jsonb_typeof(document -> $2::text) = 'array' AND "+
			"jsonb_path_exists(document -> $2::text, $3::text::jsonpath, $4::jsonb))",
		predicate.SQL,
	)
	require.Len(t, predicate.Args, 3)
	assert.Equal(t, "moves", predicate.Args[0])
	assert.Equal(t,
		`$[*] ? (@.type() == "object" && @."puzzleCurrentNotesState" == $c0 && @."puzzleCurrentState" == $c1)`,
		predicate.Args[1],
	)
	assert.JSONEq(t, `{"c0":"N1","c1":"S1"}`, predicate.Args[2].(string))
}

func TestBuildSQLPredicateElementMatchNullAndObjectConditions(t *testing.T) {
	nullable := domain.FilterClauseList{{ElemMatch: &domain.ElementMatch{
		Field:      "moves",
		Conditions: map[string]any{"puzzleCurrentState": "S1", "puzzleCurrentNotesState": nil},
	}}}
	predicate, err := buildSQLPredicate(nullable, 1)
	require.NoError(t, err)
	assert.Equal(t,
		`$[*] ? (@.type() == "object" && (!(exists(@."puzzleCurrentNotesState")) || @."puzzleCurrentNotesState" == null) && @."puzzleCurrentState" == $c1)`,
		predicate.Args[1],
	)
	assert.JSONEq(t, `{"c1":"S1"}`, predicate.Args[2].(string))

	object := domain.FilterClauseList{{ElemMatch: &domain.ElementMatch{
		Field:      "moves",
		Conditions: map[string]any{"puzzleCurrentState": map[string]any{"row": 1}},
	}}}
	predicate, err = buildSQLPredicate(object, 1)
	require.NoError(t, err)
	assert.Equal(t,
		"(jsonb_typeof(document -> $1::text) = 'array' AND document -> $1::text @> $2::jsonb)",
		predicate.SQL,
	)
	assert.JSONEq(t, `[{"puzzleCurrentState":{"row":1}}]`, predicate.Args[1].(string))
}

func TestBuildSQLPredicatePathsAreOrderedAndAlternativesOred(t *testing.T) {
	clauses := domain.FilterClauseList{
		{ElemMatch: &domain.ElementMatch{Field: "moves", Conditions: map[string]any{"puzzleCurrentState": "S1"}}},
		{Paths: map[string]any{"userID": "u1", "counters.a": 2, "gone": nil}},
	}

	predicate, err := buildSQLPredicate(clauses, 2)
	require.NoError(t, err)

	assert.Equal(t,
		"(jsonb_typeof(document -> $2::text) = 'array' AND jsonb_path_exists(document -> $2::text, $3::text::jsonpath, $4::jsonb)) OR "+
			"((jsonb_path_exists(document, $6::text::jsonpath, $5::jsonb)) AND "+
			"(NOT (jsonb_path_exists(document, $7::text::jsonpath)) OR jsonb_path_exists(document, $8::text::jsonpath)) AND "+
			"(jsonb_path_exists(document, $10::text::jsonpath, $9::jsonb)))",
		predicate.SQL,
	)
	assert.Equal(t, []any{
		"moves", `$[*] ? (@.type() == "object" && @."puzzleCurrentState" == $c0)`, `{"c0":"S1"}`,
		`{"v":2}`, `$."counters"."a" ? (@ == $v)`,
		`$."gone"`, `$."gone" ? (@ == null)`,
		`{"v":"u1"}`, `$."userID" ? (@ == $v)`,
	}, predicate.Args)
}

func TestBuildSQLPredicateSubdocumentPathFansOut(t *testing.T) {
	clauses := domain.NormalizeFilter(domain.Query{
		"moves": map[string]any{"puzzleCurrentState": "S1"},
	})

	predicate, err := buildSQLPredicate(clauses, 1)
	require.NoError(t, err)

	assert.Equal(t, "((jsonb_path_exists(document, $2::text::jsonpath, $1::jsonb)))", predicate.SQL)
	assert.Equal(t, []any{`{"v":"S1"}`, `$."moves"."puzzleCurrentState" ? (@ == $v)`}, predicate.Args)
}

func TestBuildSQLPredicateEmptyContainerLeaf(t *testing.T) {
	clauses := domain.FilterClauseList{{Paths: map[string]any{"tags": []any{}}}}

	predicate, err := buildSQLPredicate(clauses, 1)
	require.NoError(t, err)

	assert.Equal(t,
		"((document #> $1::text[] = $2::jsonb OR (jsonb_typeof(document #> $1::text[]) = 'array' AND document #> $1::text[] @> jsonb_build_array($2::jsonb))))",
		predicate.SQL,
	)
	assert.Equal(t, []any{[]string{"tags"}, "[]"}, predicate.Args)
}

func TestJSONPathVariants(t *testing.T) {
	assert.Equal(t, []string{`$."a"."b"`}, jsonPathVariants([]string{"a", "b"}))
	assert.Equal(t,
		[]string{`$."moves"."0"."x"`, `$."moves"[0]."x"`},
		jsonPathVariants([]string{"moves", "0", "x"}),
	)
	assert.Equal(t, []string{`$."we\"ird"`}, jsonPathVariants([]string{`we"ird`}))
}
