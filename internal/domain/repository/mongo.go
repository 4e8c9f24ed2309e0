package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"darkzone_service/internal/domain/model"
)

// MongoObservationRepository reads raw litter observations exported as
// nested documents ({"date": {"utc": ...}, "edge": {"id": ...}, ...}).
type MongoObservationRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoObservationRepository(ctx context.Context, uri, database, collection string) (*MongoObservationRepository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return &MongoObservationRepository{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

// LoadObservations returns the documents with from <= date.utc < to, flattened
// to dotted column names. A zero bound leaves that side open.
func (r *MongoObservationRepository) LoadObservations(ctx context.Context, from, to time.Time) (model.RawTable, error) {
	cur, err := r.collection.Find(ctx, dateWindow(from, to),
		options.Find().SetSort(bson.D{{Key: "date.utc", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer cur.Close(ctx)

	var table model.RawTable
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode observation: %w", err)
		}
		table = append(table, FlattenDocument(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("failed to read observations: %w", err)
	}
	return table, nil
}

func (r *MongoObservationRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func dateWindow(from, to time.Time) bson.M {
	window := bson.M{}
	if !from.IsZero() {
		window["$gte"] = from.UTC()
	}
	if !to.IsZero() {
		window["$lt"] = to.UTC()
	}
	if len(window) == 0 {
		return bson.M{}
	}
	return bson.M{"date.utc": window}
}

// FlattenDocument turns nested documents into dotted keys and BSON scalar
// types into plain Go values.
func FlattenDocument(doc bson.M) model.RawRecord {
	out := make(model.RawRecord, len(doc))
	flatten("", doc, out)
	return out
}

func flatten(prefix string, doc bson.M, out model.RawRecord) {
	for k, v := range doc {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch t := v.(type) {
		case bson.M:
			flatten(key, t, out)
		case bson.D:
			flatten(key, t.Map(), out)
		default:
			out[key] = plainValue(v)
		}
	}
}

func plainValue(v any) any {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.ObjectID:
		return t.Hex()
	case primitive.Decimal128:
		return t.String()
	case int32:
		return int64(t)
	case primitive.Null, primitive.Undefined:
		return nil
	}
	return v
}
