package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path"
	"strings"
	"time"

	"stagesnap/concert-app/internal/domain"
	"stagesnap/concert-app/internal/media"
	"stagesnap/concert-app/internal/repository"
	"stagesnap/concert-app/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrMissingFile      = errors.New("upload file is missing")
	ErrStorageFailed    = errors.New("failed to store uploaded file")
	ErrPersistenceError = errors.New("failed to persist video record")
)

// MetadataExtractor probes an uploaded file. media.Extractor is the
// production implementation.
type MetadataExtractor interface {
	Extract(ctx context.Context, path string) media.Metadata
}

// UploadInput is one upload request: the file already sits at TempPath on
// local disk.
type UploadInput struct {
	UserID      primitive.ObjectID
	TempPath    string
	FileName    string
	ContentType string
	Size        int64
	Title       string
	Description string
}

// ConcertSummary is the concert section of an upload response, nil when no
// concert was resolved.
type ConcertSummary struct {
	ID             primitive.ObjectID       `json:"id"`
	ArtistName     string                   `json:"artistName"`
	VenueName      string                   `json:"venueName"`
	ConcertDate    time.Time                `json:"concertDate"`
	Confidence     domain.ConcertConfidence `json:"confidence"`
	DistanceMeters float64                  `json:"distanceMeters"`
}

// UploadResult is the assembled response: the stored video plus whatever the
// best-effort matching stages achieved.
type UploadResult struct {
	Video   *domain.Video     `json:"video"`
	Concert *ConcertSummary   `json:"concert"`
	Song    *domain.SongMatch `json:"song"`
}

// IngestService runs the upload pipeline end to end.
type IngestService interface {
	ProcessUpload(ctx context.Context, in UploadInput) (*UploadResult, error)
}

type ingestService struct {
	videoRepo   repository.VideoRepository
	artistRepo  repository.ArtistRepository
	venueRepo   repository.VenueRepository
	fileStorage storage.FileStorage
	extractor   MetadataExtractor
	concerts    ConcertService
	songs       SongService
}

// NewIngestService creates a new instance of ingestService.
func NewIngestService(
	videoRepo repository.VideoRepository,
	artistRepo repository.ArtistRepository,
	venueRepo repository.VenueRepository,
	fileStorage storage.FileStorage,
	extractor MetadataExtractor,
	concerts ConcertService,
	songs SongService,
) IngestService {
	return &ingestService{
		videoRepo:   videoRepo,
		artistRepo:  artistRepo,
		venueRepo:   venueRepo,
		fileStorage: fileStorage,
		extractor:   extractor,
		concerts:    concerts,
		songs:       songs,
	}
}

// ProcessUpload sequences the pipeline: extract metadata, store the bytes,
// persist the video row, then best-effort concert resolution and song
// matching. Creating the video row is the durability checkpoint: anything
// failing before it aborts the request, anything after it degrades into a
// response with null concert/song sections. The local temp file is removed on
// every exit path.
func (s *ingestService) ProcessUpload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	if in.TempPath == "" {
		return nil, ErrMissingFile
	}
	defer os.Remove(in.TempPath)

	if _, err := os.Stat(in.TempPath); err != nil {
		return nil, ErrMissingFile
	}

	// Stage 1: metadata. Extraction errors yield empty metadata internally;
	// an upload with no tags is a normal upload.
	meta := s.extractor.Extract(ctx, in.TempPath)

	// Stage 2: object storage. Hard failure; without the bytes there is
	// nothing to persist.
	objectKey := buildObjectKey(in.UserID, in.FileName, in.ContentType)
	file, err := os.Open(in.TempPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingFile, err)
	}
	storageURL, err := s.fileStorage.Upload(ctx, objectKey, file, in.ContentType)
	file.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}

	// Stage 3: the video row. Hard failure; the stored object is deleted so
	// a failed request leaves nothing behind.
	video := &domain.Video{
		UserID:          in.UserID,
		Title:           in.Title,
		Description:     in.Description,
		StorageURL:      storageURL,
		StorageKey:      objectKey,
		FileName:        in.FileName,
		ContentType:     in.ContentType,
		Size:            in.Size,
		RecordedAt:      meta.RecordedAt,
		Latitude:        meta.Latitude,
		Longitude:       meta.Longitude,
		DeviceMake:      meta.DeviceMake,
		DeviceModel:     meta.DeviceModel,
		Width:           meta.Width,
		Height:          meta.Height,
		DurationSeconds: meta.DurationSeconds,
	}
	videoID, err := s.videoRepo.Create(ctx, video)
	if err != nil {
		if delErr := s.fileStorage.DeleteObject(ctx, objectKey); delErr != nil {
			log.Printf("WARN: failed to clean up object %s after persist failure: %v", objectKey, delErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistenceError, err)
	}
	video.ID = videoID

	// Stage 4: concert resolution, only when GPS and timestamp are present.
	var concertSummary *ConcertSummary
	var concertID *primitive.ObjectID
	if meta.HasGeoTime() {
		result := s.concerts.Resolve(ctx, ConcertResolveInput{
			VideoID:      videoID,
			UserID:       in.UserID,
			Latitude:     *meta.Latitude,
			Longitude:    *meta.Longitude,
			RecordedAt:   *meta.RecordedAt,
			LocationCity: meta.LocationCity,
		})
		if result.Success && result.Match != nil {
			concertID = &result.Match.ConcertID
			video.ConcertID = concertID
			concertSummary = s.summarizeConcert(ctx, result.Match)
		}
	}

	// Stage 5: song matching, always attempted. Without a concert it
	// degrades to raw-recognition-only mode.
	songResult := s.songs.MatchSong(ctx, SongMatchInput{
		VideoID:   videoID,
		MediaPath: in.TempPath,
		ConcertID: concertID,
	})
	if songResult.Success && songResult.Match != nil {
		video.SongID = songResult.Match.SongID
	}

	return &UploadResult{
		Video:   video,
		Concert: concertSummary,
		Song:    songResult.Match,
	}, nil
}

// summarizeConcert fills in display names for the response. Lookups are best
// effort: a missing name never fails a completed upload.
func (s *ingestService) summarizeConcert(ctx context.Context, match *domain.ConcertMatch) *ConcertSummary {
	summary := &ConcertSummary{
		ID:             match.ConcertID,
		Confidence:     match.Confidence,
		DistanceMeters: match.DistanceMeters,
	}
	if artist, err := s.artistRepo.GetByID(ctx, match.ArtistID); err == nil {
		summary.ArtistName = artist.Name
	}
	if venue, err := s.venueRepo.GetByID(ctx, match.VenueID); err == nil {
		summary.VenueName = venue.Name
	}
	if concert, _, err := s.concerts.GetConcert(ctx, match.ConcertID); err == nil {
		summary.ConcertDate = concert.ConcertDate
	}
	return summary
}

// buildObjectKey generates a unique S3 key for an upload.
func buildObjectKey(userID primitive.ObjectID, fileName, contentType string) string {
	ext := path.Ext(fileName)
	if ext == "" {
		if parts := strings.Split(contentType, "/"); len(parts) == 2 {
			ext = "." + parts[1]
		}
	}
	return path.Join("videos", userID.Hex(), uuid.NewString()+ext)
}
