package mongo

import (
	"context"
	"log"
	"time"

	"stagesnap/concert-app/internal/domain"
	"stagesnap/concert-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const attendeeCollectionName = "attendees"

// mongoAttendeeRepository implements repository.AttendeeRepository using MongoDB.
type mongoAttendeeRepository struct {
	collection *mongo.Collection
}

// NewMongoAttendeeRepository creates a new instance of mongoAttendeeRepository.
func NewMongoAttendeeRepository(db *mongo.Database) repository.AttendeeRepository {
	return &mongoAttendeeRepository{
		collection: db.Collection(attendeeCollectionName),
	}
}

// Add records that a user attended a concert. A duplicate (userId, concertId)
// insert is rejected by the unique index and treated as success.
func (r *mongoAttendeeRepository) Add(ctx context.Context, userID, concertID primitive.ObjectID) error {
	attendee := domain.Attendee{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		ConcertID: concertID,
		CreatedAt: time.Now().UTC(),
	}

	_, err := r.collection.InsertOne(ctx, attendee)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return err
	}
	return nil
}

// EnsureAttendeeIndexes creates necessary indexes for the attendees collection.
func EnsureAttendeeIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "concertId", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("WARN: failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
