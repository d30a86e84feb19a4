package activity

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

// Mongo keeps each record kind in its own collection of one database.
type Mongo struct {
	notifications *mongo.Collection
	views         *mongo.Collection
	posts         *mongo.Collection
	disconnect    func(ctx context.Context) error
	now           func() time.Time
}

// NewMongo connects to uri and uses the activity collections of database.
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

	m := NewMongoWithDatabase(client.Database(database))
	m.disconnect = client.Disconnect
	return m, nil
}

// NewMongoWithDatabase creates a store on an existing database handle.
func NewMongoWithDatabase(db *mongo.Database) *Mongo {
	return &Mongo{
		notifications: db.Collection(common.NotificationsCollection),
		views:         db.Collection(common.ProfileViewsCollection),
		posts:         db.Collection(common.PostsCollection),
		disconnect:    func(context.Context) error { return nil },
		now:           utcNow,
	}
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}}

func (m *Mongo) CreateNotification(ctx context.Context, n models.Notification) (string, error) {
	n, err := prepareNotification(n, m.now())
	if err != nil {
		return "", err
	}
	if _, err := m.notifications.InsertOne(ctx, n); err != nil {
		return "", fmt.Errorf("mongo insert: %w", err)
	}
	return n.ID, nil
}

func (m *Mongo) Notifications(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	opts := options.Find().SetSort(newestFirst).SetLimit(int64(limitOr(limit, DefaultNotificationLimit)))
	cur, err := m.notifications.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	var out []models.Notification
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("mongo decode: %w", err)
	}
	return out, nil
}

func (m *Mongo) MarkNotificationRead(ctx context.Context, id string) error {
	res, err := m.notifications.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return fmt.Errorf("mongo update: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	_, err := m.notifications.UpdateMany(ctx,
		bson.M{"userId": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return fmt.Errorf("mongo update: %w", err)
	}
	return nil
}

type viewDoc struct {
	ID            string    `bson:"_id"`
	ViewedUserID  string    `bson:"viewedUserId"`
	ViewerUserID  string    `bson:"viewerUserId"`
	ViewerProfile bson.M    `bson:"viewerProfile,omitempty"`
	CreatedAt     time.Time `bson:"createdAt"`
}

func (m *Mongo) TrackProfileView(ctx context.Context, viewedUserID, viewerUserID string, viewer models.Fields) (bool, error) {
	v, ok, err := prepareView(viewedUserID, viewerUserID, viewer, m.now())
	if err != nil || !ok {
		return false, err
	}

	filter := bson.M{
		"viewedUserId": viewedUserID,
		"viewerUserId": viewerUserID,
		"createdAt":    bson.M{"$gte": dayStart(v.CreatedAt)},
	}
	err = m.views.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, mongo.ErrNoDocuments):
		return false, fmt.Errorf("mongo find: %w", err)
	}

	if _, err := m.views.InsertOne(ctx, v); err != nil {
		return false, fmt.Errorf("mongo insert: %w", err)
	}
	return true, nil
}

func (m *Mongo) ProfileViews(ctx context.Context, userID string, limit int) ([]models.ProfileView, error) {
	opts := options.Find().SetSort(newestFirst).SetLimit(int64(limitOr(limit, DefaultProfileViewLimit)))
	cur, err := m.views.Find(ctx, bson.M{"viewedUserId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	var docs []viewDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo decode: %w", err)
	}

	out := make([]models.ProfileView, 0, len(docs))
	for _, d := range docs {
		v := models.ProfileView{
			ID:           d.ID,
			ViewedUserID: d.ViewedUserID,
			ViewerUserID: d.ViewerUserID,
			CreatedAt:    d.CreatedAt.UTC(),
		}
		if len(d.ViewerProfile) > 0 {
			v.ViewerProfile = models.Fields(plain(d.ViewerProfile).(map[string]any))
		}
		out = append(out, v)
	}
	return out, nil
}

// plain converts driver container types into plain maps and slices.
func plain(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = plain(e)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = plain(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plain(e)
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	default:
		return v
	}
}

func (m *Mongo) CreatePost(ctx context.Context, p models.Post) (string, error) {
	p, err := preparePost(p, m.now())
	if err != nil {
		return "", err
	}
	if _, err := m.posts.InsertOne(ctx, p); err != nil {
		return "", fmt.Errorf("mongo insert: %w", err)
	}
	return p.ID, nil
}

func (m *Mongo) UserPosts(ctx context.Context, userID string) ([]models.Post, error) {
	return m.findPosts(ctx, bson.M{"userId": userID}, options.Find().SetSort(newestFirst))
}

func (m *Mongo) PublicPosts(ctx context.Context, limit int) ([]models.Post, error) {
	opts := options.Find().SetSort(newestFirst).SetLimit(int64(limitOr(limit, DefaultPublicPostLimit)))
	return m.findPosts(ctx, bson.M{"visibility": models.VisibilityPublic}, opts)
}

func (m *Mongo) findPosts(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Post, error) {
	cur, err := m.posts.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	var out []models.Post
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("mongo decode: %w", err)
	}
	return out, nil
}

func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return m.disconnect(ctx)
}
