package repository

import (
	"context"
	"time"

	"stagesnap/concert-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("duplicate key")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// ArtistRepository finds-or-creates artists deduplicated by name.
type ArtistRepository interface {
	FindOrCreateByName(ctx context.Context, name string) (*domain.Artist, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Artist, error)
}

// VenueRepository finds-or-creates venues deduplicated by name.
type VenueRepository interface {
	FindOrCreate(ctx context.Context, venue *domain.Venue) (*domain.Venue, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Venue, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*domain.Venue, error)
}

// ConcertRepository defines catalog access for concerts. UpsertByExternalID is
// the idempotency anchor for concurrent first-sightings of the same event: the
// unique index on externalSetlistId guarantees a single row wins.
type ConcertRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Concert, error)
	GetByExternalSetlistID(ctx context.Context, externalID string) (*domain.Concert, error)
	FindByDateRange(ctx context.Context, from, to time.Time) ([]domain.Concert, error)
	UpsertByExternalID(ctx context.Context, concert *domain.Concert) (*domain.Concert, error)
	List(ctx context.Context, limit int64) ([]domain.Concert, error)
}

// SongRepository defines setlist access. CreateMany tolerates duplicate
// (concertId, orderInSetlist) keys so re-enrichment races stay additive.
type SongRepository interface {
	CreateMany(ctx context.Context, songs []domain.Song) (int, error)
	GetByConcertID(ctx context.Context, concertID primitive.ObjectID) ([]domain.Song, error)
	CountByConcertID(ctx context.Context, concertID primitive.ObjectID) (int64, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Song, error)
}

// VideoRepository defines the interface for interacting with video metadata.
type VideoRepository interface {
	Create(ctx context.Context, video *domain.Video) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Video, error)
	GetByConcertID(ctx context.Context, concertID primitive.ObjectID) ([]domain.Video, error)
	SetConcert(ctx context.Context, videoID, concertID primitive.ObjectID) error
	SetSong(ctx context.Context, videoID, songID primitive.ObjectID) error
	IncrementViews(ctx context.Context, videoID primitive.ObjectID) error
}

// AttendeeRepository records concert attendance. Add is idempotent: a
// duplicate (userId, concertId) insert is a no-op, not an error.
type AttendeeRepository interface {
	Add(ctx context.Context, userID, concertID primitive.ObjectID) error
}
