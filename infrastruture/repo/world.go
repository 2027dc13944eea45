package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	dmn "github.com/beka-birhanu/vinom-caves/domain"
	"github.com/beka-birhanu/vinom-caves/service/i"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrWorldNotFound = errors.New("world not found")

// WorldRepo handles the persistence of world snapshots.
type WorldRepo struct {
	collection *mongo.Collection
	logger     i.Logger
}

// NewWorldRepo creates a new WorldRepo with the given MongoDB client, database name, and collection name.
func NewWorldRepo(client *mongo.Client, dbName, collectionName string, logger i.Logger) *WorldRepo {
	collection := client.Database(dbName).Collection(collectionName)
	return &WorldRepo{
		collection: collection,
		logger:     logger,
	}
}

// Save inserts or updates a snapshot in the repository.
func (r *WorldRepo) Save(snapshot *dmn.WorldSnapshot) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	filter := bson.M{"_id": snapshot.ID}
	update := bson.M{
		"$set": bson.M{
			"seed":      snapshot.Seed,
			"width":     snapshot.Width,
			"height":    snapshot.Height,
			"rows":      snapshot.Rows,
			"report":    snapshot.Report,
			"updatedAt": time.Now(),
		},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		r.logger.Error(fmt.Sprintf("saving world %s: %s", snapshot.ID, err))
		return fmt.Errorf("unexpected error: %w", err)
	}

	r.logger.Info(fmt.Sprintf("saved world %s (seed %d)", snapshot.ID, snapshot.Seed))
	return nil
}

// ByID retrieves a snapshot by its session ID.
// Returns ErrWorldNotFound if no snapshot exists.
func (r *WorldRepo) ByID(id uuid.UUID) (*dmn.WorldSnapshot, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	filter := bson.M{"_id": id}
	var snapshot dmn.WorldSnapshot
	if err := r.collection.FindOne(ctx, filter).Decode(&snapshot); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrWorldNotFound
		}
		return nil, fmt.Errorf("unexpected error: %w", err)
	}
	return &snapshot, nil
}
