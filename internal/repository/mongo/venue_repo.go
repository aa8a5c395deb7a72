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

const venueCollectionName = "venues"

// mongoVenueRepository implements repository.VenueRepository using MongoDB.
type mongoVenueRepository struct {
	collection *mongo.Collection
}

// NewMongoVenueRepository creates a new instance of mongoVenueRepository.
func NewMongoVenueRepository(db *mongo.Database) repository.VenueRepository {
	return &mongoVenueRepository{
		collection: db.Collection(venueCollectionName),
	}
}

// FindOrCreate returns the venue with the given name, inserting the provided
// record if absent. Coordinates and location fields are only written on
// insert; an existing row wins.
func (r *mongoVenueRepository) FindOrCreate(ctx context.Context, venue *domain.Venue) (*domain.Venue, error) {
	if venue.Name == "" {
		return nil, errors.New("venue name is required")
	}

	now := time.Now().UTC()
	onInsert := bson.M{
		"_id":       primitive.NewObjectID(),
		"name":      venue.Name,
		"city":      venue.City,
		"country":   venue.Country,
		"createdAt": now,
		"updatedAt": now,
	}
	if venue.State != "" {
		onInsert["state"] = venue.State
	}
	if venue.Latitude != nil {
		onInsert["latitude"] = *venue.Latitude
	}
	if venue.Longitude != nil {
		onInsert["longitude"] = *venue.Longitude
	}

	filter := bson.M{"name": venue.Name}
	update := bson.M{"$setOnInsert": onInsert}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var result domain.Venue
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetByID retrieves a venue by its ObjectID.
func (r *mongoVenueRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Venue, error) {
	var venue domain.Venue
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&venue)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &venue, nil
}

// GetByIDs retrieves multiple venues at once, keyed by ObjectID. Missing IDs
// are simply absent from the result map.
func (r *mongoVenueRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*domain.Venue, error) {
	result := make(map[primitive.ObjectID]*domain.Venue, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var venues []domain.Venue
	if err := cursor.All(ctx, &venues); err != nil {
		return nil, err
	}
	for i := range venues {
		result[venues[i].ID] = &venues[i]
	}
	return result, nil
}

// EnsureVenueIndexes creates necessary indexes for the venues collection.
func EnsureVenueIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "city", Value: 1}},
			Options: options.Index(),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("WARN: failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
