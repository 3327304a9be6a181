package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/todoapp/tasktracker/internal/core/domain"
)

const authEventsCollection = "auth_events"

// AuthEventRepository implements ports.AuthEventRepository using MongoDB.
type AuthEventRepository struct {
	coll *mongo.Collection
}

func NewAuthEventRepository(db *mongo.Database) *AuthEventRepository {
	return &AuthEventRepository{coll: db.Collection(authEventsCollection)}
}

type authEventDoc struct {
	Type       string    `bson:"type"`
	Username   string    `bson:"username,omitempty"`
	UserID     int64     `bson:"user_id,omitempty"`
	Reason     string    `bson:"reason,omitempty"`
	OccurredAt time.Time `bson:"occurred_at"`
}

func toAuthEventDoc(e *domain.AuthEvent) authEventDoc {
	return authEventDoc{
		Type:       string(e.Type),
		Username:   e.Username,
		UserID:     e.UserID,
		Reason:     e.Reason,
		OccurredAt: e.OccurredAt.UTC(),
	}
}

// InsertEvent appends an auth event to the audit collection.
func (r *AuthEventRepository) InsertEvent(ctx context.Context, event *domain.AuthEvent) error {
	if _, err := r.coll.InsertOne(ctx, toAuthEventDoc(event)); err != nil {
		return fmt.Errorf("insert auth event: %w", err)
	}
	return nil
}

func authEventIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}, {Key: "occurred_at", Value: -1}}},
		{Keys: bson.D{{Key: "occurred_at", Value: -1}}},
		{
			Keys:    bson.D{{Key: "type", Value: 1}},
			Options: options.Index().SetName("type_idx"),
		},
	}
}

// EnsureIndexes creates the lookup indexes for per-user history and
// time-ordered scans. Connect calls it once at startup.
func (r *AuthEventRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.coll.Indexes().CreateMany(ctx, authEventIndexes()); err != nil {
		return fmt.Errorf("ensure auth_events indexes: %w", err)
	}
	return nil
}
