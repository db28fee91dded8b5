package repository

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/rpattn/activegames/internal/domain"
)

// buildBSONFilter renders a clause list as a MongoDB query document.
func buildBSONFilter(clauses domain.FilterClauseList) bson.M {
	if clauses.MatchesEverything() {
		return bson.M{}
	}

	alternatives := make([]bson.M, 0, len(clauses))
	for _, clause := range clauses {
		alternatives = append(alternatives, clauseToBSON(clause))
	}
	if len(alternatives) == 1 {
		return alternatives[0]
	}
	return bson.M{"$or": alternatives}
}

func clauseToBSON(clause domain.FilterClause) bson.M {
	doc := bson.M{}
	for path, value := range clause.Paths {
		doc[path] = value
	}
	if clause.ElemMatch != nil {
		conditions := bson.M{}
		for key, value := range clause.ElemMatch.Conditions {
			conditions[key] = value
		}
		doc[clause.ElemMatch.Field] = bson.M{"$elemMatch": conditions}
	}
	return doc
}

// fromBSON converts driver-decoded values back to plain JSON-shaped Go values.
func fromBSON(value any) any {
	switch typed := value.(type) {
	case bson.M:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[key] = fromBSON(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[key] = fromBSON(item)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(typed))
		for _, elem := range typed {
			out[elem.Key] = fromBSON(elem.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = fromBSON(item)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = fromBSON(item)
		}
		return out
	default:
		return typed
	}
}
