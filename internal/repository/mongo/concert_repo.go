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

const concertCollectionName = "concerts"

// mongoConcertRepository implements repository.ConcertRepository using MongoDB.
type mongoConcertRepository struct {
	collection *mongo.Collection
}

// NewMongoConcertRepository creates a new instance of mongoConcertRepository.
func NewMongoConcertRepository(db *mongo.Database) repository.ConcertRepository {
	return &mongoConcertRepository{
		collection: db.Collection(concertCollectionName),
	}
}

// GetByID retrieves a concert by its ObjectID.
func (r *mongoConcertRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Concert, error) {
	var concert domain.Concert
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&concert)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &concert, nil
}

// GetByExternalSetlistID retrieves a concert by its external setlist id.
func (r *mongoConcertRepository) GetByExternalSetlistID(ctx context.Context, externalID string) (*domain.Concert, error) {
	var concert domain.Concert
	err := r.collection.FindOne(ctx, bson.M{"externalSetlistId": externalID}).Decode(&concert)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &concert, nil
}

// FindByDateRange returns concerts with concertDate in [from, to].
func (r *mongoConcertRepository) FindByDateRange(ctx context.Context, from, to time.Time) ([]domain.Concert, error) {
	filter := bson.M{"concertDate": bson.M{"$gte": from, "$lte": to}}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var concerts []domain.Concert
	if err := cursor.All(ctx, &concerts); err != nil {
		return nil, err
	}
	return concerts, nil
}

// UpsertByExternalID inserts the concert keyed by its external setlist id, or
// returns the existing row. The unique index on externalSetlistId makes this
// safe under concurrent first-sightings: the second writer decodes the first
// writer's row instead of creating a duplicate.
func (r *mongoConcertRepository) UpsertByExternalID(ctx context.Context, concert *domain.Concert) (*domain.Concert, error) {
	if concert.ExternalSetlistID == "" {
		return nil, errors.New("concert external setlist id is required for upsert")
	}

	now := time.Now().UTC()
	onInsert := bson.M{
		"_id":               primitive.NewObjectID(),
		"artistId":          concert.ArtistID,
		"venueId":           concert.VenueID,
		"concertDate":       concert.ConcertDate,
		"externalSetlistId": concert.ExternalSetlistID,
		"createdAt":         now,
		"updatedAt":         now,
	}
	if concert.TourName != "" {
		onInsert["tourName"] = concert.TourName
	}
	if concert.ExternalPollstarID != "" {
		onInsert["externalPollstarId"] = concert.ExternalPollstarID
	}

	filter := bson.M{"externalSetlistId": concert.ExternalSetlistID}
	update := bson.M{"$setOnInsert": onInsert}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var result domain.Concert
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// List returns the most recent concerts, newest first.
func (r *mongoConcertRepository) List(ctx context.Context, limit int64) ([]domain.Concert, error) {
	opts := options.Find().SetSort(bson.D{{Key: "concertDate", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var concerts []domain.Concert
	if err := cursor.All(ctx, &concerts); err != nil {
		return nil, err
	}
	return concerts, nil
}

// EnsureConcertIndexes creates necessary indexes for the concerts collection.
func EnsureConcertIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// At most one concert per external setlist id. Sparse because
			// manually created concerts may have no external id.
			Keys:    bson.D{{Key: "externalSetlistId", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "concertDate", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "artistId", Value: 1}},
			Options: options.Index(),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("WARN: failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
