package repository

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rpattn/activegames/internal/domain"
)

// sqlPredicate is a WHERE fragment over the document column with its positional args.
type sqlPredicate struct {
	SQL  string
	Args []any
}

// buildSQLPredicate compiles a clause list into a predicate whose placeholders start
// at $firstArg. Clauses are OR-ed; conditions inside a clause are AND-ed.
//
// Scalar comparisons go through lax-mode jsonpath so member access fans out over
// arrays of subdocuments and array leaves match when they hold the value.
func buildSQLPredicate(clauses domain.FilterClauseList, firstArg int) (sqlPredicate, error) {
	if clauses.MatchesEverything() {
		return sqlPredicate{SQL: "TRUE"}, nil
	}

	b := &predicateBuilder{next: firstArg}
	alternatives := make([]string, 0, len(clauses))
	for _, clause := range clauses {
		fragment, err := b.clause(clause)
		if err != nil {
			return sqlPredicate{}, err
		}
		alternatives = append(alternatives, "("+fragment+")")
	}

	return sqlPredicate{SQL: strings.Join(alternatives, " OR "), Args: b.args}, nil
}

type predicateBuilder struct {
	next int
	args []any
}

func (b *predicateBuilder) bind(value any) string {
	b.args = append(b.args, value)
	placeholder := fmt.Sprintf("$%d", b.next)
	b.next++
	return placeholder
}

func (b *predicateBuilder) clause(clause domain.FilterClause) (string, error) {
	conditions := make([]string, 0, len(clause.Paths)+1)

	if clause.ElemMatch != nil {
		condition, err := b.elementMatch(*clause.ElemMatch)
		if err != nil {
			return "", err
		}
		conditions = append(conditions, condition)
	}

	for _, path := range clause.SortedPaths() {
		condition, err := b.path(path, clause.Paths[path])
		if err != nil {
			return "", err
		}
		conditions = append(conditions, condition)
	}

	if len(conditions) == 0 {
		return "TRUE", nil
	}
	return strings.Join(conditions, " AND "), nil
}

// elementMatch requires one object element of the array field to satisfy every
// condition. Object or array conditions fall back to JSONB containment.
func (b *predicateBuilder) elementMatch(match domain.ElementMatch) (string, error) {
	field := b.bind(match.Field)

	if !allScalar(match.Conditions) {
		element, err := json.Marshal([]any{match.Conditions})
		if err != nil {
			return "", fmt.Errorf("failed to encode element match: %w", err)
		}
		value := b.bind(string(element))
		return fmt.Sprintf(
			"jsonb_typeof(document -> %[1]s::text) = 'array' AND document -> %[1]s::text @> %[2]s::jsonb",
			field, value,
		), nil
	}

	keys := make([]string, 0, len(match.Conditions))
	for key := range match.Conditions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	predicates := []string{`@.type() == "object"`}
	vars := make(map[string]any, len(keys))
	for i, key := range keys {
		member := "@" + memberAccessor(key)
		want := match.Conditions[key]
		if want == nil {
			predicates = append(predicates, fmt.Sprintf("(!(exists(%[1]s)) || %[1]s == null)", member))
			continue
		}
		name := fmt.Sprintf("c%d", i)
		vars[name] = want
		predicates = append(predicates, fmt.Sprintf("%s == $%s", member, name))
	}

	encodedVars, err := json.Marshal(vars)
	if err != nil {
		return "", fmt.Errorf("failed to encode element match: %w", err)
	}
	path := b.bind("$[*] ? (" + strings.Join(predicates, " && ") + ")")
	varsArg := b.bind(string(encodedVars))
	return fmt.Sprintf(
		"jsonb_typeof(document -> %[1]s::text) = 'array' AND jsonb_path_exists(document -> %[1]s::text, %[2]s::text::jsonpath, %[3]s::jsonb)",
		field, path, varsArg,
	), nil
}

func (b *predicateBuilder) path(path string, want any) (string, error) {
	switch want.(type) {
	case map[string]any, []any:
		return b.containerPath(path, want)
	}

	variants := jsonPathVariants(strings.Split(path, "."))

	if want == nil {
		present := make([]string, 0, len(variants))
		nulls := make([]string, 0, len(variants))
		for _, variant := range variants {
			present = append(present, fmt.Sprintf("jsonb_path_exists(document, %s::text::jsonpath)", b.bind(variant)))
		}
		for _, variant := range variants {
			nulls = append(nulls, fmt.Sprintf("jsonb_path_exists(document, %s::text::jsonpath)", b.bind(variant+" ? (@ == null)")))
		}
		return fmt.Sprintf("(NOT (%s) OR %s)", strings.Join(present, " OR "), strings.Join(nulls, " OR ")), nil
	}

	encoded, err := json.Marshal(map[string]any{"v": want})
	if err != nil {
		return "", fmt.Errorf("failed to encode value for %s: %w", path, err)
	}
	vars := b.bind(string(encoded))
	matches := make([]string, 0, len(variants))
	for _, variant := range variants {
		matches = append(matches, fmt.Sprintf(
			"jsonb_path_exists(document, %s::text::jsonpath, %s::jsonb)",
			b.bind(variant+" ? (@ == $v)"), vars,
		))
	}
	return "(" + strings.Join(matches, " OR ") + ")", nil
}

// containerPath compares an empty object or array leaf by equality, or by containment
// when the path holds an array.
func (b *predicateBuilder) containerPath(path string, want any) (string, error) {
	segments := b.bind(strings.Split(path, "."))
	target := fmt.Sprintf("document #> %s::text[]", segments)

	encoded, err := json.Marshal(want)
	if err != nil {
		return "", fmt.Errorf("failed to encode value for %s: %w", path, err)
	}
	value := b.bind(string(encoded))
	return fmt.Sprintf(
		"(%[1]s = %[2]s::jsonb OR (jsonb_typeof(%[1]s) = 'array' AND %[1]s @> jsonb_build_array(%[2]s::jsonb)))",
		target, value,
	), nil
}

// jsonPathVariants renders a dot path as jsonpath accessors. A numeric segment may be
// an array position or an object key, so it yields both forms.
func jsonPathVariants(segments []string) []string {
	variants := []string{"$"}
	for _, segment := range segments {
		member := memberAccessor(segment)
		idx, isIndex := arrayIndex(segment)

		next := make([]string, 0, len(variants)*2)
		for _, prefix := range variants {
			next = append(next, prefix+member)
			if isIndex {
				next = append(next, fmt.Sprintf("%s[%d]", prefix, idx))
			}
		}
		variants = next
	}
	return variants
}

func memberAccessor(key string) string {
	quoted, _ := json.Marshal(key)
	return "." + string(quoted)
}

func allScalar(conditions map[string]any) bool {
	for _, value := range conditions {
		switch value.(type) {
		case map[string]any, []any:
			return false
		}
	}
	return true
}
