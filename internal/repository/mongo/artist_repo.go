package mongo

import (
	"context"
	"errors"
	"log"
	"time"

	"stagesnap/concert-app/internal/domain"
	"stagesnap/concert-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const artistCollectionName = "artists"

// mongoArtistRepository implements repository.ArtistRepository using MongoDB.
type mongoArtistRepository struct {
	collection *mongo.Collection
}

// NewMongoArtistRepository creates a new instance of mongoArtistRepository.
func NewMongoArtistRepository(db *mongo.Database) repository.ArtistRepository {
	return &mongoArtistRepository{
		collection: db.Collection(artistCollectionName),
	}
}

// FindOrCreateByName returns the artist with the given name, inserting it if
// absent. FindOneAndUpdate with upsert plus the unique name index makes
// concurrent first-sightings converge on a single row.
func (r *mongoArtistRepository) FindOrCreateByName(ctx context.Context, name string) (*domain.Artist, error) {
	if name == "" {
		return nil, errors.New("artist name is required")
	}

	now := time.Now().UTC()
	filter := bson.M{"name": name}
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":       primitive.NewObjectID(),
			"name":      name,
			"createdAt": now,
			"updatedAt": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var artist domain.Artist
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&artist); err != nil {
		return nil, err
	}
	return &artist, nil
}

// GetByID retrieves an artist by its ObjectID.
func (r *mongoArtistRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Artist, error) {
	var artist domain.Artist
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&artist)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &artist, nil
}

// EnsureArtistIndexes creates necessary indexes for the artists collection.
func EnsureArtistIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("WARN: failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
