package service

import (
	"context"
	"log"

	"stagesnap/concert-app/internal/domain"
	"stagesnap/concert-app/internal/repository"
	"stagesnap/concert-app/internal/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VideoDetails pairs a video with a temporary playback URL.
type VideoDetails struct {
	domain.Video
	PlaybackURL string `json:"playbackUrl,omitempty"`
}

// VideoService is the read side: watch a clip, browse a concert's timeline.
type VideoService interface {
	GetVideo(ctx context.Context, id primitive.ObjectID) (*VideoDetails, error)
	GetConcertVideos(ctx context.Context, concertID primitive.ObjectID) ([]VideoDetails, error)
}

type videoService struct {
	videoRepo   repository.VideoRepository
	fileStorage storage.FileStorage
}

// NewVideoService creates a new instance of videoService.
func NewVideoService(videoRepo repository.VideoRepository, fileStorage storage.FileStorage) VideoService {
	return &videoService{
		videoRepo:   videoRepo,
		fileStorage: fileStorage,
	}
}

// GetVideo fetches a video, bumps its view counter and attaches a presigned
// playback URL.
func (s *videoService) GetVideo(ctx context.Context, id primitive.ObjectID) (*VideoDetails, error) {
	video, err := s.videoRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.videoRepo.IncrementViews(ctx, id); err != nil {
		log.Printf("WARN: failed to increment views for video %s: %v", id.Hex(), err)
	} else {
		video.ViewsCount++
	}

	details := &VideoDetails{Video: *video}
	url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, video.StorageKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		log.Printf("WARN: failed to presign playback URL for video %s: %v", id.Hex(), err)
	} else {
		details.PlaybackURL = url
	}
	return details, nil
}

// GetConcertVideos returns a concert's clips in recording order, each with a
// playback URL. The ordering is what lets the client build a synchronized
// multi-angle timeline.
func (s *videoService) GetConcertVideos(ctx context.Context, concertID primitive.ObjectID) ([]VideoDetails, error) {
	videos, err := s.videoRepo.GetByConcertID(ctx, concertID)
	if err != nil {
		return nil, err
	}

	details := make([]VideoDetails, 0, len(videos))
	for _, v := range videos {
		d := VideoDetails{Video: v}
		if url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, v.StorageKey, storage.DefaultPresignedURLExpiry); err == nil {
			d.PlaybackURL = url
		}
		details = append(details, d)
	}
	return details, nil
}
