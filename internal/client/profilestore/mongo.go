package profilestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophmeet/internal/client/models"
	"github.com/dmitrijs2005/gophmeet/internal/common"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo stores each profile as one document in the users collection,
// keyed by _id. Update uses $set for fields and $currentDate for the stamp.
type Mongo struct {
	coll       *mongo.Collection
	disconnect func(ctx context.Context) error
	now        func() time.Time
}

// NewMongo connects to uri and uses the users collection of database.
func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	opts := options.Client().ApplyURI(uri).SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	m := NewMongoWithCollection(client.Database(database).Collection(common.ProfilesCollection))
	m.disconnect = client.Disconnect
	return m, nil
}

// NewMongoWithCollection creates a store on an existing collection.
func NewMongoWithCollection(coll *mongo.Collection) *Mongo {
	return &Mongo{
		coll:       coll,
		disconnect: func(context.Context) error { return nil },
		now:        utcNow,
	}
}

func (m *Mongo) Get(ctx context.Context, id string) (*models.Profile, error) {
	var doc bson.M
	err := m.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("mongo find: %w", err)
	}

	p := &models.Profile{ID: id, Fields: models.Fields{}}
	for k, v := range doc {
		switch k {
		case "_id":
		case models.FieldCreatedAt:
			p.CreatedAt = toTime(v)
		case models.FieldUpdatedAt:
			p.UpdatedAt = toTime(v)
		default:
			p.Fields[k] = fromBSON(v)
		}
	}
	return p, nil
}

func toTime(v any) time.Time {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC()
	case time.Time:
		return t.UTC()
	default:
		return time.Time{}
	}
}

// fromBSON converts driver container types into plain maps and slices.
func fromBSON(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = fromBSON(e)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = fromBSON(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = fromBSON(e)
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	default:
		return v
	}
}

// Create upserts the document for id. Fields of an existing document that
// are not in fields are left alone, and createdAt is only set on insert.
func (m *Mongo) Create(ctx context.Context, id string, fields models.Fields) error {
	f, err := prepareCreate(id, fields)
	if err != nil {
		return err
	}

	set := bson.M{}
	for k, v := range f {
		set[k] = v
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{models.FieldCreatedAt: m.now()},
		"$currentDate": bson.M{models.FieldUpdatedAt: true},
	}

	_, err = m.coll.UpdateOne(ctx, bson.M{"_id": id}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo upsert: %w", err)
	}
	return nil
}

func (m *Mongo) Update(ctx context.Context, id string, fields models.Fields) error {
	f, err := prepareUpdate(id, fields)
	if err != nil {
		return err
	}

	update := bson.M{"$currentDate": bson.M{models.FieldUpdatedAt: true}}
	if len(f) > 0 {
		set := bson.M{}
		for k, v := range f {
			set[k] = v
		}
		update["$set"] = set
	}

	res, err := m.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("mongo update: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return m.disconnect(ctx)
}
