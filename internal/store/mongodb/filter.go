package mongodb

import (
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/yourorg/workstream/internal/domain"
	"github.com/yourorg/workstream/internal/store"
)

// mongoField maps the engine's logical id field to Mongo's _id.
func mongoField(field string) string {
	if field == domain.FieldID {
		return "_id"
	}
	return field
}

// mongoValue converts a condition value for the wire: ids become
// ObjectIDs, everything else passes through. A malformed id can never
// occur here because services reject it before querying.
func mongoValue(field string, value any) any {
	if field != domain.FieldID {
		return value
	}
	s, ok := value.(string)
	if !ok {
		return value
	}
	oid, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return value
	}
	return oid
}

// buildFilter translates the engine query model into a bson filter.
func buildFilter(q store.Query) bson.M {
	filter := bson.M{}
	for _, c := range q.All {
		merge(filter, c)
	}
	if len(q.Any) > 0 {
		var or bson.A
		for _, c := range q.Any {
			clause := bson.M{}
			merge(clause, c)
			or = append(or, clause)
		}
		filter["$or"] = or
	}
	return filter
}

func merge(filter bson.M, c store.Cond) {
	field := mongoField(c.Field)
	switch c.Op {
	case store.OpEq:
		filter[field] = mongoValue(c.Field, c.Value)
	case store.OpNe:
		mergeOperator(filter, field, "$ne", c.Value)
	case store.OpIn:
		mergeOperator(filter, field, "$in", c.Value)
	case store.OpContains:
		filter[field] = bson.M{"$regex": regexp.QuoteMeta(asString(c.Value)), "$options": "i"}
	case store.OpPrefix:
		filter[field] = bson.M{"$regex": "^" + regexp.QuoteMeta(asString(c.Value))}
	case store.OpGte:
		mergeOperator(filter, field, "$gte", c.Value)
	case store.OpLte:
		mergeOperator(filter, field, "$lte", c.Value)
	}
}

// mergeOperator folds an operator into any existing operator document for
// the same field, so Gte and Lte on one field become a single range.
func mergeOperator(filter bson.M, field, op string, value any) {
	if existing, ok := filter[field].(bson.M); ok {
		existing[op] = value
		return
	}
	filter[field] = bson.M{op: value}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// toBSON prepares a document for writing: nested documents become bson.M
// and the logical id field is dropped (callers address documents through
// filters, never by rewriting _id).
func toBSON(doc domain.Document) bson.M {
	out := bson.M{}
	for k, v := range doc {
		if k == domain.FieldID {
			continue
		}
		switch nested := v.(type) {
		case domain.Document:
			out[k] = toBSON(nested)
		case map[string]any:
			out[k] = toBSON(domain.Document(nested))
		default:
			out[k] = v
		}
	}
	return out
}

// fromBSON re-hydrates a decoded document: _id becomes the string id,
// primitive.DateTime values become time.Time, nested maps and arrays
// collapse to the engine's plain shapes.
func fromBSON(raw bson.M) domain.Document {
	out := make(domain.Document, len(raw))
	for k, v := range raw {
		if k == "_id" {
			if oid, ok := v.(primitive.ObjectID); ok {
				out[domain.FieldID] = oid.Hex()
			}
			continue
		}
		out[k] = fromBSONValue(v)
	}
	return out
}

func fromBSONValue(v any) any {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC()
	case time.Time:
		return t.UTC()
	case bson.M:
		return fromBSON(t)
	case primitive.A:
		// String arrays are the only collection shape the schema allows.
		out := make([]string, 0, len(t))
		for _, el := range t {
			if s, ok := el.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	default:
		return v
	}
}
