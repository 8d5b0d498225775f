// Package mongodb implements the document store against MongoDB. Query
// translation lives in filter.go so it stays testable without a server.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yourorg/workstream/internal/domain"
	"github.com/yourorg/workstream/internal/store"
)

// opTimeout bounds every store call so a stuck server surfaces as a
// retryable error instead of stalling the handler.
const opTimeout = 5 * time.Second

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger *slog.Logger
}

// Connect dials MongoDB and verifies connectivity before returning.
func Connect(ctx context.Context, uri, database string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Store{client: client, db: client.Database(database), logger: logger}, nil
}

func (s *Store) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, opTimeout)
}

func (s *Store) Find(ctx context.Context, collection string, q store.Query, opts store.FindOptions) ([]domain.Document, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	findOpts := options.Find()
	if opts.SortField != "" {
		dir := 1
		if opts.SortDesc {
			dir = -1
		}
		findOpts.SetSort(bson.D{{Key: mongoField(opts.SortField), Value: dir}})
	}
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}

	cursor, err := s.db.Collection(collection).Find(ctx, buildFilter(q), findOpts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var out []domain.Document
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode %s document: %w", collection, err)
		}
		out = append(out, fromBSON(raw))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", collection, err)
	}
	return out, nil
}

func (s *Store) FindOne(ctx context.Context, collection string, q store.Query) (domain.Document, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	var raw bson.M
	err := s.db.Collection(collection).FindOne(ctx, buildFilter(q)).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("find one %s: %w", collection, err)
	}
	return fromBSON(raw), nil
}

func (s *Store) InsertOne(ctx context.Context, collection string, doc domain.Document) (string, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	payload := toBSON(doc)
	delete(payload, "id")

	res, err := s.db.Collection(collection).InsertOne(ctx, payload)
	if err != nil {
		return "", fmt.Errorf("insert into %s: %w", collection, err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("insert into %s: unexpected id type %T", collection, res.InsertedID)
	}
	return oid.Hex(), nil
}

func (s *Store) UpdateOne(ctx context.Context, collection string, q store.Query, set domain.Document) (int64, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	res, err := s.db.Collection(collection).UpdateOne(ctx, buildFilter(q), bson.M{"$set": toBSON(set)})
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", collection, err)
	}
	return res.MatchedCount, nil
}

func (s *Store) DeleteOne(ctx context.Context, collection string, q store.Query) (int64, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	res, err := s.db.Collection(collection).DeleteOne(ctx, buildFilter(q))
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", collection, err)
	}
	return res.DeletedCount, nil
}

func (s *Store) DeleteMany(ctx context.Context, collection string, q store.Query) (int64, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	res, err := s.db.Collection(collection).DeleteMany(ctx, buildFilter(q))
	if err != nil {
		return 0, fmt.Errorf("delete many from %s: %w", collection, err)
	}
	return res.DeletedCount, nil
}

func (s *Store) Count(ctx context.Context, collection string, q store.Query) (int64, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	n, err := s.db.Collection(collection).CountDocuments(ctx, buildFilter(q))
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return n, nil
}

func (s *Store) CountGroups(ctx context.Context, collection string, q store.Query, field string) (map[string]int64, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: buildFilter(q)}},
		{{Key: "$group", Value: bson.M{"_id": "$" + field, "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := s.db.Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s by %s: %w", collection, field, err)
	}
	defer cursor.Close(ctx)

	out := map[string]int64{}
	for cursor.Next(ctx) {
		var row struct {
			ID    string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("decode aggregation row: %w", err)
		}
		out[row.ID] = row.Count
	}
	return out, cursor.Err()
}

func (s *Store) ValidID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
