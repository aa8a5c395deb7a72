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

const songCollectionName = "songs"

// mongoSongRepository implements repository.SongRepository using MongoDB.
type mongoSongRepository struct {
	collection *mongo.Collection
}

// NewMongoSongRepository creates a new instance of mongoSongRepository.
func NewMongoSongRepository(db *mongo.Database) repository.SongRepository {
	return &mongoSongRepository{
		collection: db.Collection(songCollectionName),
	}
}

// CreateMany bulk-inserts songs and returns how many were actually written.
// Inserts are unordered and duplicate-key failures are swallowed: if two
// enrichment runs race, the (concertId, orderInSetlist) index rejects the
// loser's rows and the surviving setlist stays consistent.
func (r *mongoSongRepository) CreateMany(ctx context.Context, songs []domain.Song) (int, error) {
	if len(songs) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(songs))
	for i := range songs {
		if !songs[i].Source.Valid() {
			return 0, errors.New("song source must be setlist_source, audio_fingerprint or user_manual")
		}
		songs[i].ID = primitive.NewObjectID()
		songs[i].CreatedAt = now
		docs = append(docs, songs[i])
	}

	opts := options.InsertMany().SetOrdered(false)
	result, err := r.collection.InsertMany(ctx, docs, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if result != nil {
				return len(result.InsertedIDs), nil
			}
			return 0, nil
		}
		if result != nil {
			// Partial write: keep what made it in.
			return len(result.InsertedIDs), err
		}
		return 0, err
	}
	return len(result.InsertedIDs), nil
}

// GetByConcertID returns a concert's setlist in performance order.
func (r *mongoSongRepository) GetByConcertID(ctx context.Context, concertID primitive.ObjectID) ([]domain.Song, error) {
	filter := bson.M{"concertId": concertID}
	opts := options.Find().SetSort(bson.D{{Key: "orderInSetlist", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var songs []domain.Song
	if err := cursor.All(ctx, &songs); err != nil {
		return nil, err
	}
	return songs, nil
}

// CountByConcertID counts a concert's songs; the enrichment guard.
func (r *mongoSongRepository) CountByConcertID(ctx context.Context, concertID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"concertId": concertID})
}

// GetByID retrieves a song by its ObjectID.
func (r *mongoSongRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Song, error) {
	var song domain.Song
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&song)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &song, nil
}

// EnsureSongIndexes creates necessary indexes for the songs collection.
func EnsureSongIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// No two songs share a setlist position within one concert.
			Keys: bson.D{
				{Key: "concertId", Value: 1},
				{Key: "orderInSetlist", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("WARN: failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
