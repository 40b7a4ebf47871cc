package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mcstatus/internal/database"
	"mcstatus/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoPresenceStore keeps presence records in the players collection
type MongoPresenceStore struct {
	collection *mongo.Collection
}

// NewMongoPresenceStore creates a presence store over the players collection
func NewMongoPresenceStore(db *database.MongoDB) *MongoPresenceStore {
	return &MongoPresenceStore{collection: db.Collection(database.CollectionPlayers)}
}

// UpsertSeen upserts every name in one unordered bulk write.
// $max keeps lastSeen monotonic even if an older cycle lands late.
func (s *MongoPresenceStore) UpsertSeen(ctx context.Context, names []string, now time.Time) error {
	names = dedupeNames(names)
	if len(names) == 0 {
		return nil
	}

	now = now.UTC()
	writes := make([]mongo.WriteModel, 0, len(names))
	for _, name := range names {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"name": name}).
			SetUpdate(bson.M{
				"$max":         bson.M{"lastSeen": now},
				"$setOnInsert": bson.M{"firstSeen": now},
			}).
			SetUpsert(true))
	}

	if _, err := s.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("failed to upsert players: %w", err)
	}
	return nil
}

// QueryRecentlySeen returns players seen since now-window, newest first
func (s *MongoPresenceStore) QueryRecentlySeen(ctx context.Context, excluding []string, window time.Duration, now time.Time) ([]models.PresenceRecord, error) {
	filter := bson.M{"lastSeen": bson.M{"$gte": now.Add(-window).UTC()}}
	if skip := dedupeNames(excluding); len(skip) > 0 {
		filter["name"] = bson.M{"$nin": skip}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "lastSeen", Value: -1}, {Key: "name", Value: 1}}).
		SetProjection(bson.M{"_id": 0, "name": 1, "lastSeen": 1})

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer cursor.Close(ctx)

	var records []models.PresenceRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode players: %w", err)
	}
	return records, nil
}

// MongoArtifactRefStore keeps the status message id in the messages collection
type MongoArtifactRefStore struct {
	collection *mongo.Collection
}

// NewMongoArtifactRefStore creates an artifact ref store over the messages collection
func NewMongoArtifactRefStore(db *database.MongoDB) *MongoArtifactRefStore {
	return &MongoArtifactRefStore{collection: db.Collection(database.CollectionMessages)}
}

// LastKnownID returns the stored message id, or "" when none exists
func (s *MongoArtifactRefStore) LastKnownID(ctx context.Context) (string, error) {
	var ref models.StatusMessageRef
	err := s.collection.FindOne(ctx, bson.M{"type": models.StatusMessageType}).Decode(&ref)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load status message id: %w", err)
	}
	return ref.MessageID, nil
}

// SaveID upserts the single status message document
func (s *MongoArtifactRefStore) SaveID(ctx context.Context, id string) error {
	now := time.Now().UTC()
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"type": models.StatusMessageType},
		bson.M{
			"$set":         bson.M{"messageId": id, "updatedAt": now},
			"$setOnInsert": bson.M{"createdAt": now},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to save status message id: %w", err)
	}
	return nil
}
