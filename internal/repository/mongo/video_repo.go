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

const videoCollectionName = "videos"

// mongoVideoRepository implements repository.VideoRepository using MongoDB.
type mongoVideoRepository struct {
	collection *mongo.Collection
}

// NewMongoVideoRepository creates a new instance of mongoVideoRepository.
func NewMongoVideoRepository(db *mongo.Database) repository.VideoRepository {
	return &mongoVideoRepository{
		collection: db.Collection(videoCollectionName),
	}
}

// Create inserts new video metadata into the database.
func (r *mongoVideoRepository) Create(ctx context.Context, video *domain.Video) (primitive.ObjectID, error) {
	if video.UserID == primitive.NilObjectID || video.StorageKey == "" || video.StorageURL == "" {
		return primitive.NilObjectID, errors.New("video requires userId, storageKey and storageUrl")
	}

	video.ID = primitive.NewObjectID()
	video.UploadedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, video)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}

	return insertedID, nil
}

// GetByID retrieves a video by its ObjectID.
func (r *mongoVideoRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Video, error) {
	var video domain.Video
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&video)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &video, nil
}

// GetByConcertID returns all videos linked to a concert, oldest recording first
// so multi-angle timelines line up naturally.
func (r *mongoVideoRepository) GetByConcertID(ctx context.Context, concertID primitive.ObjectID) ([]domain.Video, error) {
	filter := bson.M{"concertId": concertID}
	opts := options.Find().SetSort(bson.D{{Key: "recordedAt", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var videos []domain.Video
	if err := cursor.All(ctx, &videos); err != nil {
		return nil, err
	}
	return videos, nil
}

// SetConcert links a video to a concert. Set at most once by the pipeline.
func (r *mongoVideoRepository) SetConcert(ctx context.Context, videoID, concertID primitive.ObjectID) error {
	return r.setField(ctx, videoID, "concertId", concertID)
}

// SetSong links a video to a song. Set at most once by the pipeline.
func (r *mongoVideoRepository) SetSong(ctx context.Context, videoID, songID primitive.ObjectID) error {
	return r.setField(ctx, videoID, "songId", songID)
}

func (r *mongoVideoRepository) setField(ctx context.Context, videoID primitive.ObjectID, field string, value primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": videoID},
		bson.M{"$set": bson.M{field: value}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// IncrementViews bumps a video's view counter.
func (r *mongoVideoRepository) IncrementViews(ctx context.Context, videoID primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": videoID},
		bson.M{"$inc": bson.M{"viewsCount": 1}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureVideoIndexes creates necessary indexes for the videos collection.
func EnsureVideoIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index(),
		},
		{
			// Concert timeline queries: all clips of a show by recording time.
			Keys: bson.D{
				{Key: "concertId", Value: 1},
				{Key: "recordedAt", Value: 1},
			},
			Options: options.Index().SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "storageKey", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("WARN: failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
